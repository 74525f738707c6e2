package atena

import (
	"context"
	"net/http"

	"github.com/GlarosConsulting/atena-client/models"
)

type filtersBody struct {
	Filters models.Filters `json:"filters"`
}

// Agreements runs an unfiltered search for the scope in p.
func (c *Client) Agreements(ctx context.Context, token string, p Params) (*models.AgreementsResponse, error) {
	var out models.AgreementsResponse
	if err := c.do(ctx, http.MethodGet, "agreements", token, p.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchAgreements runs a search narrowed by filters.
func (c *Client) SearchAgreements(ctx context.Context, token string, p Params, filters models.Filters) (*models.AgreementsResponse, error) {
	var out models.AgreementsResponse
	if err := c.do(ctx, http.MethodPost, "agreements", token, p.Values(), filtersBody{Filters: nonNil(filters)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckFilters asks the API which agreements a filter set would match.
func (c *Client) CheckFilters(ctx context.Context, token string, p Params, filters models.Filters) (*models.AgreementsResponse, error) {
	var out models.AgreementsResponse
	if err := c.do(ctx, http.MethodPost, "filters", token, p.Values(), filtersBody{Filters: nonNil(filters)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingAgreements returns the ranking of agreements with pending steps.
func (c *Client) PendingAgreements(ctx context.Context, token string, p Params) ([]models.PendingAgreement, error) {
	var out []models.PendingAgreement
	if err := c.do(ctx, http.MethodGet, "agreements/pending", token, p.Values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OldestAgreements returns the oldest agreements still open in the scope.
func (c *Client) OldestAgreements(ctx context.Context, token string, p Params) ([]models.Agreement, error) {
	var out []models.Agreement
	if err := c.do(ctx, http.MethodGet, "agreements/oldest", token, p.Values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities lists the cities known to the API.
func (c *Client) Cities(ctx context.Context, token string) ([]models.City, error) {
	var out []models.City
	if err := c.do(ctx, http.MethodGet, "cities", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil(f models.Filters) models.Filters {
	if f == nil {
		return models.Filters{}
	}
	return f
}
