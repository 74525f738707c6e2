package models

import "time"

// Access is the scope a user group is allowed to see.
type Access string

const (
	AccessAny             Access = "ANY"
	AccessMunicipalSphere Access = "MUNICIPAL_SPHERE"
	AccessStateSphere     Access = "STATE_SPHERE"
	AccessCities          Access = "CITIES"
)

// Valid reports whether a is one of the known scopes.
func (a Access) Valid() bool {
	switch a {
	case AccessAny, AccessMunicipalSphere, AccessStateSphere, AccessCities:
		return true
	}
	return false
}

// Session is what the API returns on sign-in, plus the dashboard state the
// gateway keeps for the signed-in user.
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Filters      Filters   `json:"filters,omitempty"`
	RefreshedAt  time.Time `json:"refreshedAt"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Group    *Group `json:"group,omitempty"`
}

type Group struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Access Access `json:"access"`
	Cities []City `json:"cities"`
}

// HasCity reports whether the group lists a city by id, name or IBGE code.
func (g *Group) HasCity(city string) bool {
	if g == nil {
		return false
	}
	for _, c := range g.Cities {
		if c.ID == city || c.IBGE == city || equalFoldTrim(c.Name, city) {
			return true
		}
	}
	return false
}

type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	UF   string `json:"uf"`
	IBGE string `json:"ibge"`
}

// Credentials are posted to the API to open a session.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
