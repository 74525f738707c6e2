package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/models"
)

type stubAuth struct {
	access models.Access
}

func (s stubAuth) CreateSession(_ context.Context, creds models.Credentials) (*models.Session, error) {
	return &models.Session{
		User:        models.User{ID: "u1", Email: creds.Email, Group: &models.Group{Access: s.access}},
		AccessToken: "tok",
	}, nil
}

func (s stubAuth) GetUser(context.Context, string, string) (*models.User, error) {
	return &models.User{ID: "u1", Group: &models.Group{Access: s.access}}, nil
}

func setup(t *testing.T, access models.Access) (*gin.Engine, *Tokens, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gate := session.NewGate(session.NewMemoryStore(), stubAuth{access: access}, session.Options{TTL: time.Hour})
	sid, _, err := gate.SignIn(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	tokens := &Tokens{Secret: []byte("secret"), TTL: time.Hour}
	r := gin.New()
	api := r.Group("/api", AuthMiddleware(gate, tokens))
	api.GET("/me", func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": sess.User.ID, "sid": SessionID(c)})
	})
	api.GET("/admin", AccessMiddleware(models.AccessAny), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens, sid
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r, _, _ := setup(t, models.AccessAny)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authorization token not provided")
}

func TestAuthMiddlewareRedirectsBrowsers(t *testing.T) {
	r, _, _ := setup(t, models.AccessAny)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Accept", "text/html")
	w := serve(r, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestAuthMiddlewareCookie(t *testing.T) {
	r, tokens, sid := setup(t, models.AccessAny)
	token, err := tokens.Issue(sid, "u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","sid":"`+sid+`"}`, w.Body.String())
}

func TestAuthMiddlewareBearer(t *testing.T) {
	r, tokens, sid := setup(t, models.AccessAny)
	token, err := tokens.Issue(sid, "u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	r, tokens, sid := setup(t, models.AccessAny)

	other := &Tokens{Secret: []byte("other"), TTL: time.Hour}
	forged, err := other.Issue(sid, "u1")
	require.NoError(t, err)
	unknown, err := tokens.Issue("no-such-session", "u1")
	require.NoError(t, err)
	wrongUser, err := tokens.Issue(sid, "u2")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"forged":     forged,
		"unknown":    unknown,
		"wrong user": wrongUser,
		"garbage":    "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			w := serve(r, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Header().Get("Set-Cookie"), CookieName+"=;")
		})
	}
}

func TestTokensParseExpired(t *testing.T) {
	tokens := &Tokens{Secret: []byte("secret"), TTL: -time.Minute}
	token, err := tokens.Issue("sid", "u1")
	require.NoError(t, err)

	_, _, err = tokens.Parse(token)
	assert.Error(t, err)
}

func TestAccessMiddleware(t *testing.T) {
	for access, want := range map[models.Access]int{
		models.AccessAny:             http.StatusNoContent,
		models.AccessCities:          http.StatusForbidden,
		models.AccessStateSphere:     http.StatusForbidden,
		models.AccessMunicipalSphere: http.StatusForbidden,
	} {
		t.Run(string(access), func(t *testing.T) {
			r, tokens, sid := setup(t, access)
			token, err := tokens.Issue(sid, "u1")
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			assert.Equal(t, want, serve(r, req).Code)
		})
	}
}
