package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/dashboard"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
	"github.com/GlarosConsulting/atena-client/internal/warnings"
	"github.com/GlarosConsulting/atena-client/models"
)

type staticAPI struct{}

func (staticAPI) answer() (*models.AgreementsResponse, error) {
	return &models.AgreementsResponse{Agreements: []models.Agreement{{ID: "a1", Name: "Pavimentação"}}}, nil
}

func (s staticAPI) Agreements(context.Context, string, atena.Params) (*models.AgreementsResponse, error) {
	return s.answer()
}

func (s staticAPI) SearchAgreements(context.Context, string, atena.Params, models.Filters) (*models.AgreementsResponse, error) {
	return s.answer()
}

func (s staticAPI) CheckFilters(context.Context, string, atena.Params, models.Filters) (*models.AgreementsResponse, error) {
	return s.answer()
}

// exportRouter serves the export of a session that already ran a search.
func exportRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	evaluator, err := warnings.NewEvaluator(nil)
	require.NoError(t, err)
	svc := dashboard.NewService(staticAPI{}, evaluator)
	sess := &models.Session{User: models.User{ID: "u1", Group: &models.Group{Access: models.AccessAny}}}
	_, err = svc.Search(context.Background(), "s1", sess, dashboard.Query{})
	require.NoError(t, err)

	h := &Handler{Dashboard: svc, Now: func() time.Time { return time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC) }}
	r := gin.New()
	r.GET("/export", func(c *gin.Context) {
		c.Set(middleware.KeySession, sess)
		c.Set(middleware.KeySessionID, "s1")
	}, h.ExportHandler)
	return r
}

func TestExportHandler(t *testing.T) {
	w := httptest.NewRecorder()
	exportRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=agreements_20210304_050607.xlsx", w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())
}

func TestExportHandlerFailureIsNotAnAttachment(t *testing.T) {
	orig := writeWorkbook
	writeWorkbook = func(io.Writer, *dashboard.Result) error { return errors.New("disk full") }
	t.Cleanup(func() { writeWorkbook = orig })

	w := httptest.NewRecorder()
	exportRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"error":"Failed to write Excel file"}`, w.Body.String())
}
