package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/dashboard"
	"github.com/GlarosConsulting/atena-client/internal/filters"
	"github.com/GlarosConsulting/atena-client/models"
)

func nonNilFilters(f models.Filters) models.Filters {
	if f == nil {
		return models.Filters{}
	}
	return f
}

// GetFiltersHandler returns the session's filter state.
func (h *Handler) GetFiltersHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, nonNilFilters(sess.Filters))
}

// PatchFiltersHandler merges a partial update into the session's filters.
// Blank values unset their field.
func (h *Handler) PatchFiltersHandler(c *gin.Context) {
	_, sid, ok := currentSession(c)
	if !ok {
		return
	}

	var update models.Filters
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := filters.Validate(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.Gate.Update(c.Request.Context(), sid, func(s *models.Session) error {
		s.Filters = filters.Merge(s.Filters, update)
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilFilters(sess.Filters))
}

// ClearFiltersHandler drops every filter of the session.
func (h *Handler) ClearFiltersHandler(c *gin.Context) {
	_, sid, ok := currentSession(c)
	if !ok {
		return
	}
	if _, err := h.Gate.Update(c.Request.Context(), sid, func(s *models.Session) error {
		s.Filters = nil
		return nil
	}); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Filters{})
}

// CheckFiltersHandler previews what the session's filters, merged with the
// optional body, would match. Nothing is saved.
func (h *Handler) CheckFiltersHandler(c *gin.Context) {
	sess, sid, ok := currentSession(c)
	if !ok {
		return
	}
	params, err := h.scopeParams(c, sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var update models.Filters
	if err := c.ShouldBindJSON(&update); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := filters.Validate(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	onlyAlerts, _ := strconv.ParseBool(c.Query("onlyAlerts"))
	q := dashboard.Query{
		Params:     params,
		Filters:    filters.Merge(sess.Filters, update),
		OnlyAlerts: onlyAlerts,
	}
	res, err := h.Dashboard.Check(c.Request.Context(), sid, sess, q)
	if err != nil {
		respondSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      res.Count,
		"agreements": res.Agreements,
		"warnings":   res.Warnings,
	})
}
