package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/models"
)

// adminErrors maps API failures of the admin screens to answers.
var adminErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{atena.ErrUsernameInUse, http.StatusConflict, atena.CodeUsernameInUse, "username in use"},
	{atena.ErrEmailInUse, http.StatusConflict, atena.CodeEmailInUse, "e-mail in use"},
	{atena.ErrInvalidEmail, http.StatusBadRequest, atena.CodeInvalidEmail, "invalid e-mail"},
	{atena.ErrValidation, http.StatusBadRequest, atena.CodeValidationFailed, "fill in the fields correctly"},
	{atena.ErrConflict, http.StatusConflict, "CONFLICT", "username or e-mail in use"},
	{atena.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "record not found"},
}

func respondAdminError(c *gin.Context, err error) {
	for _, m := range adminErrors {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.message, "code": m.code})
			return
		}
	}
	respondBackendError(c, err)
}

// bindGroup reads a group form. Cities only apply to CITIES groups.
func bindGroup(c *gin.Context) (atena.GroupInput, bool) {
	var in atena.GroupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fill in the fields correctly", "code": atena.CodeValidationFailed})
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || !in.Access.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fill in the fields correctly", "code": atena.CodeValidationFailed})
		return in, false
	}
	if in.Access != models.AccessCities {
		in.CityIDs = []string{}
	}
	return in, true
}

func bindUser(c *gin.Context) (atena.UserInput, bool) {
	var in atena.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fill in the fields correctly", "code": atena.CodeValidationFailed})
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	return in, true
}

// ListGroupsHandler lists every group.
func (h *Handler) ListGroupsHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	groups, err := h.API.Groups(c.Request.Context(), sess.AccessToken)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if groups == nil {
		groups = make([]models.Group, 0)
	}
	c.JSON(http.StatusOK, groups)
}

// LookupGroupsHandler lists group id/name pairs for the user form.
func (h *Handler) LookupGroupsHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	groups, err := h.API.LookupGroups(c.Request.Context(), sess.AccessToken)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if groups == nil {
		groups = make([]atena.GroupLookup, 0)
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handler) CreateGroupHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	in, ok := bindGroup(c)
	if !ok {
		return
	}
	group, err := h.API.CreateGroup(c.Request.Context(), sess.AccessToken, in)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *Handler) UpdateGroupHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	in, ok := bindGroup(c)
	if !ok {
		return
	}
	if err := h.API.UpdateGroup(c.Request.Context(), sess.AccessToken, c.Param("id"), in); err != nil {
		respondAdminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteGroupHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.API.DeleteGroup(c.Request.Context(), sess.AccessToken, c.Param("id")); err != nil {
		respondAdminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsersHandler lists every user.
func (h *Handler) ListUsersHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	users, err := h.API.Users(c.Request.Context(), sess.AccessToken)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if users == nil {
		users = make([]models.User, 0)
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUserHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	in, ok := bindUser(c)
	if !ok {
		return
	}
	user, err := h.API.CreateUser(c.Request.Context(), sess.AccessToken, in)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUserHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	in, ok := bindUser(c)
	if !ok {
		return
	}
	if err := h.API.UpdateUser(c.Request.Context(), sess.AccessToken, c.Param("id"), in); err != nil {
		respondAdminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteUserHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.API.DeleteUser(c.Request.Context(), sess.AccessToken, c.Param("id")); err != nil {
		respondAdminError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
