// Package handlers serves the dashboard gateway's HTTP API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/dashboard"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/models"
)

// statusClientClosed is logged when the caller went away mid-request.
const statusClientClosed = 499

// Handler holds what the HTTP handlers share.
type Handler struct {
	Gate      *session.Gate
	Tokens    *middleware.Tokens
	API       *atena.Client
	Dashboard *dashboard.Service
	// DB stores filter presets. Nil disables the preset endpoints.
	DB  *gorm.DB
	Now func() time.Time
}

// New returns a Handler and migrates the preset table when db is set.
func New(gate *session.Gate, tokens *middleware.Tokens, api *atena.Client, svc *dashboard.Service, db *gorm.DB) (*Handler, error) {
	h := &Handler{
		Gate:      gate,
		Tokens:    tokens,
		API:       api,
		Dashboard: svc,
		DB:        db,
		Now:       time.Now,
	}
	if db != nil {
		if err := db.AutoMigrate(&models.FilterPreset{}); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// currentSession returns the session AuthMiddleware resolved. Routes using it
// are always behind AuthMiddleware.
func currentSession(c *gin.Context) (*models.Session, string, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return nil, "", false
	}
	return sess, middleware.SessionID(c), true
}

// scopeParams reads the search scope from the query string. Dates default to
// yesterday..now; a STATE_SPHERE group without a sphere searches the state.
func (h *Handler) scopeParams(c *gin.Context, sess *models.Session) (atena.Params, error) {
	now := h.Now()
	p := atena.Params{
		BeginDate: now.AddDate(0, 0, -1),
		EndDate:   now,
		UF:        strings.TrimSpace(c.Query("uf")),
		City:      strings.TrimSpace(c.Query("city")),
		Sphere:    strings.TrimSpace(c.Query("sphere")),
	}
	if v := c.Query("beginDate"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return p, errors.New("invalid beginDate")
		}
		p.BeginDate = d.Time
	}
	if v := c.Query("endDate"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return p, errors.New("invalid endDate")
		}
		p.EndDate = d.Time
	}
	if p.EndDate.Before(p.BeginDate) {
		return p, errors.New("endDate is before beginDate")
	}
	switch p.Sphere {
	case "", atena.SphereMunicipal, atena.SphereState:
	default:
		return p, errors.New("sphere must be municipal or state")
	}
	if p.Sphere == "" && session.DefaultSphere(sess) == atena.SphereState {
		p.Sphere = atena.SphereState
	}
	return p, nil
}

// respondSearchError maps search and backend failures to responses.
func respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrScopeDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrUnknownCard):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosed)
	default:
		respondBackendError(c, err)
	}
}

// respondBackendError answers a failed Atena API call.
func respondBackendError(c *gin.Context, err error) {
	if errors.Is(err, atena.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, sign in again"})
		return
	}
	slog.Error("Atena API call failed", "path", c.FullPath(), "user_id", c.GetString(middleware.KeyUserID), "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the agreements service"})
}

// respondSessionError answers a failed session read or write.
func respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, sign in again"})
		return
	}
	slog.Error("Session update failed", "session", middleware.SessionID(c), "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save session"})
}
