package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
	"github.com/GlarosConsulting/atena-client/models"
)

const invalidCredentialsMessage = "invalid credentials, see your administrator"

// LoginHandler opens a session with the API and sets the auth cookie.
func (h *Handler) LoginHandler(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mail and password are required"})
		return
	}

	sid, sess, err := h.Gate.SignIn(c.Request.Context(), creds)
	if err != nil {
		if errors.Is(err, atena.ErrInvalidCredentials) || errors.Is(err, atena.ErrUnauthorized) || errors.Is(err, atena.ErrValidation) {
			slog.Warn("Sign in refused", "email", creds.Email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentialsMessage})
			return
		}
		respondBackendError(c, err)
		return
	}

	token, err := h.Tokens.Issue(sid, sess.User.ID)
	if err != nil {
		slog.Error("Failed to issue token", "user_id", sess.User.ID, "error", err)
		_ = h.Gate.SignOut(c.Request.Context(), sid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}
	h.Tokens.SetCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "token": token})
}

// LogoutHandler drops the session named by the request token, if any.
func (h *Handler) LogoutHandler(c *gin.Context) {
	if tokenStr, err := middleware.TokenFrom(c); err == nil {
		if sid, _, err := h.Tokens.Parse(tokenStr); err == nil {
			if err := h.Gate.SignOut(c.Request.Context(), sid); err != nil {
				slog.Error("Failed to sign out", "session", sid, "error", err)
			}
			h.Dashboard.Forget(sid)
		}
	}
	h.Tokens.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// MeHandler returns the signed-in user.
func (h *Handler) MeHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.User)
}

// HealthzHandler reports liveness.
func HealthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
