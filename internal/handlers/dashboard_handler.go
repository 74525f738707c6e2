package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/dashboard"
	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeWorkbook renders the export; tests swap it.
var writeWorkbook = dashboard.WriteXLSX

// dashboardQuery builds the search of the request: the scope from the query
// string and the filters kept in the session.
func (h *Handler) dashboardQuery(c *gin.Context, sess *models.Session) (dashboard.Query, bool) {
	params, err := h.scopeParams(c, sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return dashboard.Query{}, false
	}
	onlyAlerts, _ := strconv.ParseBool(c.Query("onlyAlerts"))
	return dashboard.Query{
		Params:     params,
		Filters:    sess.Filters.Clone(),
		OnlyAlerts: onlyAlerts,
	}, true
}

// DashboardHandler runs the dashboard search.
func (h *Handler) DashboardHandler(c *gin.Context) {
	sess, sid, ok := currentSession(c)
	if !ok {
		return
	}
	q, ok := h.dashboardQuery(c, sess)
	if !ok {
		return
	}

	res, err := h.Dashboard.Search(c.Request.Context(), sid, sess, q)
	if err != nil {
		respondSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CardHandler lists the agreements behind one summary card.
func (h *Handler) CardHandler(c *gin.Context) {
	sess, sid, ok := currentSession(c)
	if !ok {
		return
	}
	q, ok := h.dashboardQuery(c, sess)
	if !ok {
		return
	}

	res, err := h.Dashboard.Card(c.Request.Context(), sid, sess, q, c.Param("card"))
	if err != nil {
		respondSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportHandler downloads the session's last search as a spreadsheet.
func (h *Handler) ExportHandler(c *gin.Context) {
	_, sid, ok := currentSession(c)
	if !ok {
		return
	}
	res, ok := h.Dashboard.Last(sid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run a search before exporting"})
		return
	}

	var buf bytes.Buffer
	if err := writeWorkbook(&buf, res); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}

	fileName := fmt.Sprintf("agreements_%s.xlsx", h.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// PendingAgreementsHandler returns the pending ranking for the scope.
func (h *Handler) PendingAgreementsHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	params, err := h.scopeParams(c, sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.CanView(sess, params.Sphere, params.City); err != nil {
		respondSearchError(c, err)
		return
	}

	pending, err := h.API.PendingAgreements(c.Request.Context(), sess.AccessToken, params)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if pending == nil {
		pending = make([]models.PendingAgreement, 0)
	}
	c.JSON(http.StatusOK, pending)
}

// OldestAgreementsHandler returns the oldest open agreements for the scope.
func (h *Handler) OldestAgreementsHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}
	params, err := h.scopeParams(c, sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.CanView(sess, params.Sphere, params.City); err != nil {
		respondSearchError(c, err)
		return
	}

	oldest, err := h.API.OldestAgreements(c.Request.Context(), sess.AccessToken, params)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if oldest == nil {
		oldest = make([]models.Agreement, 0)
	}
	c.JSON(http.StatusOK, oldest)
}

// CitiesHandler lists the cities the user may pick. Groups restricted to
// cities only see theirs.
func (h *Handler) CitiesHandler(c *gin.Context) {
	sess, _, ok := currentSession(c)
	if !ok {
		return
	}

	if session.HasAccess(sess, models.AccessCities) {
		cities := sess.User.Group.Cities
		if cities == nil {
			cities = make([]models.City, 0)
		}
		c.JSON(http.StatusOK, cities)
		return
	}

	cities, err := h.API.Cities(c.Request.Context(), sess.AccessToken)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if cities == nil {
		cities = make([]models.City, 0)
	}
	c.JSON(http.StatusOK, cities)
}
