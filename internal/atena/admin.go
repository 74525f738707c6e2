package atena

import (
	"context"
	"net/http"

	"github.com/GlarosConsulting/atena-client/models"
)

// GroupInput creates or updates a group.
type GroupInput struct {
	Name    string        `json:"name" binding:"required"`
	Access  models.Access `json:"access" binding:"required"`
	CityIDs []string      `json:"cityIds"`
}

// UserInput creates or updates a user.
type UserInput struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	GroupID  string `json:"groupId,omitempty"`
}

// GroupLookup is the id/name pair the user table offers as group options.
type GroupLookup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) Groups(ctx context.Context, token string) ([]models.Group, error) {
	var out []models.Group
	if err := c.do(ctx, http.MethodGet, "groups", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LookupGroups(ctx context.Context, token string) ([]GroupLookup, error) {
	var out []GroupLookup
	if err := c.do(ctx, http.MethodGet, "groups/lookup", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGroup(ctx context.Context, token string, in GroupInput) (*models.Group, error) {
	var out models.Group
	if err := c.do(ctx, http.MethodPost, "groups", token, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateGroup(ctx context.Context, token, id string, in GroupInput) error {
	return c.do(ctx, http.MethodPut, "groups/"+id, token, nil, in, nil)
}

func (c *Client) DeleteGroup(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "groups/"+id, token, nil, nil, nil)
}

func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "users", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, in UserInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "users", token, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, in UserInput) error {
	return c.do(ctx, http.MethodPut, "users/"+id, token, nil, in, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "users/"+id, token, nil, nil, nil)
}
