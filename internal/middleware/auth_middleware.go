package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/models"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "auth_token"

// Context keys set by AuthMiddleware.
const (
	KeySessionID = "session_id"
	KeySession   = "session"
	KeyUserID    = "user_id"
)

// Tokens signs and verifies the session token handed to the browser. The
// token only names the server-side session; nothing else is trusted from it.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Issue signs a token for the session sid of user userID.
func (t *Tokens) Issue(sid, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":     sid,
		"user_id": userID,
		"iat":     now.Unix(),
	}
	if t.TTL > 0 {
		claims["exp"] = now.Add(t.TTL).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns the session and user ids it carries.
func (t *Tokens) Parse(tokenStr string) (sid, userID string, err error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	sid, _ = claims["sid"].(string)
	userID, _ = claims["user_id"].(string)
	if sid == "" || userID == "" {
		return "", "", errors.New("token does not name a session")
	}
	return sid, userID, nil
}

// SetCookie stores token in the auth cookie.
func (t *Tokens) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(t.TTL.Seconds()), "/", "", t.Secure, true)
}

// ClearCookie removes the auth cookie.
func (t *Tokens) ClearCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", t.Secure, true)
}

// TokenFrom reads the token from the auth cookie, falling back to a Bearer
// Authorization header.
func TokenFrom(c *gin.Context) (string, error) {
	tokenStr, err := c.Cookie(CookieName)
	if err == nil && tokenStr != "" {
		return tokenStr, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization token not provided")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}

// AuthMiddleware resolves the session named by the request token and puts it
// in the context. The cached user is refreshed from the API when stale.
func AuthMiddleware(gate *session.Gate, tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := TokenFrom(c)
		if err != nil {
			handleAuthError(c, err.Error())
			return
		}

		sid, userID, err := tokens.Parse(tokenStr)
		if err != nil {
			tokens.ClearCookie(c)
			handleAuthError(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		sess, err := gate.Current(ctx, sid)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				slog.Error("Failed to load session", "session", sid, "error", err)
			}
			tokens.ClearCookie(c)
			handleAuthError(c, "Session expired, sign in again")
			return
		}
		if sess.User.ID != userID {
			slog.Warn("Token user does not match session", "session", sid, "user_id", userID)
			tokens.ClearCookie(c)
			handleAuthError(c, "Session expired, sign in again")
			return
		}

		sess, err = gate.Refresh(ctx, sid, sess)
		if err != nil {
			tokens.ClearCookie(c)
			handleAuthError(c, "Session expired, sign in again")
			return
		}

		c.Set(KeySessionID, sid)
		c.Set(KeySession, sess)
		c.Set(KeyUserID, sess.User.ID)
		c.Next()
	}
}

// AccessMiddleware lets the request through only when the group access of the
// signed-in user is one of scopes.
func AccessMiddleware(scopes ...models.Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Session not found in context"})
			c.Abort()
			return
		}
		if !session.HasAccess(sess, scopes...) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session AuthMiddleware stored in c.
func SessionFrom(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(KeySession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*models.Session)
	return sess, ok && sess != nil
}

// SessionID returns the id of the session AuthMiddleware resolved.
func SessionID(c *gin.Context) string {
	return c.GetString(KeySessionID)
}

func handleAuthError(c *gin.Context, message string) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/")
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	}
	c.Abort()
}
