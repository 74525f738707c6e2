package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GlarosConsulting/atena-client/internal/filters"
	"github.com/GlarosConsulting/atena-client/models"
)

// presetsEnabled answers 503 when no database is configured.
func (h *Handler) presetsEnabled(c *gin.Context) bool {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Filter presets need a database (DB_URL)"})
		return false
	}
	return true
}

// ListPresetsHandler lists the user's presets, paginated unless all=true.
func (h *Handler) ListPresetsHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok || !h.presetsEnabled(c) {
		return
	}

	var presets []models.FilterPreset
	query := h.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", sess.User.ID).
		Order("is_default desc, name")

	var totalRows int64
	all := c.Query("all") == "true"
	if all {
		if err := query.Find(&presets).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch presets"})
			return
		}
	} else {
		if err := h.DB.WithContext(c.Request.Context()).Model(&models.FilterPreset{}).
			Where("user_id = ?", sess.User.ID).Count(&totalRows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch presets"})
			return
		}
		if err := query.Scopes(paged(c)).Find(&presets).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch presets"})
			return
		}
	}

	if presets == nil {
		presets = make([]models.FilterPreset, 0)
	}
	for i := range presets {
		if err := presets[i].Decode(); err != nil {
			slog.Warn("Skipping unreadable preset payload", "preset_id", presets[i].ID, "error", err)
			presets[i].Filters = models.Filters{}
		}
	}

	if all {
		c.JSON(http.StatusOK, presets)
		return
	}
	c.JSON(http.StatusOK, newPage(c, presets, totalRows))
}

// CreatePresetHandler saves a preset. Without filters in the body, the
// session's current filters are saved.
func (h *Handler) CreatePresetHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok || !h.presetsEnabled(c) {
		return
	}

	var input struct {
		Name      string         `json:"name" binding:"required"`
		Filters   models.Filters `json:"filters"`
		IsDefault bool           `json:"isDefault"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := input.Filters
	if f == nil {
		f = sess.Filters
	}
	if err := filters.Validate(f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preset := models.FilterPreset{
		ID:        uuid.NewString(),
		UserID:    sess.User.ID,
		Name:      input.Name,
		IsDefault: input.IsDefault,
		Filters:   nonNilFilters(filters.Prune(f)),
	}
	if err := preset.Encode(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if preset.IsDefault {
			if err := tx.Model(&models.FilterPreset{}).
				Where("user_id = ? AND is_default = ?", preset.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&preset).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create preset: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, preset)
}

// DeletePresetHandler removes one of the user's presets.
func (h *Handler) DeletePresetHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok || !h.presetsEnabled(c) {
		return
	}

	result := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), sess.User.ID).
		Delete(&models.FilterPreset{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete preset"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyPresetHandler replaces the session's filters with a preset's.
func (h *Handler) ApplyPresetHandler(c *gin.Context) {
	sess, sid, ok := currentSession(c)
	if !ok || !h.presetsEnabled(c) {
		return
	}

	var preset models.FilterPreset
	err := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), sess.User.ID).
		First(&preset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch preset"})
		return
	}
	if err := preset.Decode(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Preset payload is unreadable"})
		return
	}

	updated, err := h.Gate.Update(c.Request.Context(), sid, func(s *models.Session) error {
		s.Filters = filters.Prune(preset.Filters)
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilFilters(updated.Filters))
}
