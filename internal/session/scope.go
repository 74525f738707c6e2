package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/models"
)

// ErrScopeDenied is returned when a group may not search a scope.
var ErrScopeDenied = errors.New("scope not allowed for this group")

// DefaultSphere is the sphere searched when the request names none: state
// for STATE_SPHERE groups, municipal for everyone else.
func DefaultSphere(s *models.Session) string {
	if s != nil && s.User.Group != nil && s.User.Group.Access == models.AccessStateSphere {
		return atena.SphereState
	}
	return atena.SphereMunicipal
}

// CanView checks whether the session's group may search the given sphere and
// city. An empty sphere means DefaultSphere.
func CanView(s *models.Session, sphere, city string) error {
	if s == nil || s.User.Group == nil {
		return ErrScopeDenied
	}
	if sphere == "" {
		sphere = DefaultSphere(s)
	}
	sphere = strings.ToLower(sphere)
	g := s.User.Group

	switch g.Access {
	case models.AccessAny:
		return nil
	case models.AccessStateSphere:
		if sphere == atena.SphereState {
			return nil
		}
	case models.AccessMunicipalSphere:
		if sphere == atena.SphereMunicipal {
			return nil
		}
	case models.AccessCities:
		if sphere == atena.SphereMunicipal && city != "" && g.HasCity(city) {
			return nil
		}
	}
	return fmt.Errorf("%w: access %s, sphere %s, city %q", ErrScopeDenied, g.Access, sphere, city)
}
