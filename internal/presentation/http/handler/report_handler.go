package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/application/service"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/dto/request"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/dto/response"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles the daily report editing session endpoints
type ReportHandler struct {
	sessions *service.SessionService
}

// NewReportHandler creates a new report handler
func NewReportHandler(sessions *service.SessionService) *ReportHandler {
	return &ReportHandler{sessions: sessions}
}

// OpenSession opens (or reopens) the actor's editing session for a date
// @Summary Open editing session
// @Description Open a daily report editing session for a date
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.OpenSessionRequest true "Session date"
// @Success 200 {object} response.APIResponse
// @Router /reports/session [post]
func (h *ReportHandler) OpenSession(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := utils.ParseDate(req.Date)
		if err != nil {
			response.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	view, err := h.sessions.Open(c.Request.Context(), *userID, GetUserRoles(c), date)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Session opened", view)
}

// GetSession returns the current session state
// @Summary Get editing session
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /reports/session [get]
func (h *ReportHandler) GetSession(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	view, err := h.sessions.Get(*userID)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Session retrieved", view)
}

// CloseSession ends the session, flushing any pending edits
// @Summary Close editing session
// @Tags reports
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /reports/session [delete]
func (h *ReportHandler) CloseSession(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.sessions.Close(*userID); err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Session closed", nil)
}

// UpdateField applies a single-field edit to one row
// @Summary Edit a row field
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param kind path string true "Row kind (order or staff)"
// @Param index path int true "Row index"
// @Param request body request.UpdateFieldRequest true "Field edit"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /reports/session/rows/{kind}/{index} [patch]
func (h *ReportHandler) UpdateField(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "Invalid row index")
		return
	}

	var req request.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.sessions.UpdateField(c.Request.Context(), *userID, c.Param("kind"), index, req.Field, req.Value)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Row updated", view)
}

// AddRow appends a fresh row to a collection
// @Summary Add a row
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param kind path string true "Row kind (order or staff)"
// @Success 200 {object} response.APIResponse
// @Router /reports/session/rows/{kind} [post]
func (h *ReportHandler) AddRow(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	view, err := h.sessions.AddRow(c.Request.Context(), *userID, c.Param("kind"))
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Row added", view)
}

// RemoveRow deletes one row from a collection
// @Summary Remove a row
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param kind path string true "Row kind (order or staff)"
// @Param index path int true "Row index"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /reports/session/rows/{kind}/{index} [delete]
func (h *ReportHandler) RemoveRow(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "Invalid row index")
		return
	}

	view, err := h.sessions.RemoveRow(c.Request.Context(), *userID, c.Param("kind"), index)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Row removed", view)
}

// Finalize forces an immediate save and resets the session for a new day
// @Summary Finalize report
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Failure 502 {object} response.APIResponse
// @Router /reports/session/finalize [post]
func (h *ReportHandler) Finalize(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	view, err := h.sessions.Finalize(c.Request.Context(), *userID)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	response.OK(c, "Report finalized", view)
}

// sessionError maps session and report errors onto HTTP status codes
func (h *ReportHandler) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.NotFound(c, "No active editing session")
	case report.IsInvariantViolation(err):
		response.UnprocessableEntity(c, err.Error())
	case report.IsWriteError(err), report.IsFetchError(err):
		response.ErrorWithCode(c, 502, "Report storage is unavailable, your work is backed up locally")
	default:
		response.Error(c, err)
	}
}
