package atena

import (
	"net/url"
	"strings"
	"time"
)

// Spheres accepted by the search endpoints.
const (
	SphereMunicipal = "municipal"
	SphereState     = "state"
)

// timeLayout matches JavaScript's Date.toISOString, which the API parses.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Params scope an agreement search.
type Params struct {
	BeginDate    time.Time
	EndDate      time.Time
	UF           string
	City         string
	Sphere       string
	CustomFilter string
}

// Values encodes p the way the API expects it. Empty fields are omitted.
func (p Params) Values() url.Values {
	v := url.Values{}
	if !p.BeginDate.IsZero() {
		v.Set("beginDate", p.BeginDate.UTC().Format(timeLayout))
	}
	if !p.EndDate.IsZero() {
		v.Set("endDate", p.EndDate.UTC().Format(timeLayout))
	}
	if p.UF != "" {
		v.Set("UF", strings.ToUpper(p.UF))
	}
	if p.City != "" {
		v.Set("Cidade", strings.ToUpper(p.City))
	}
	if p.Sphere != "" {
		v.Set("sphere", p.Sphere)
	}
	if p.CustomFilter != "" {
		v.Set("customFilter", p.CustomFilter)
	}
	return v
}
