package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dewelsk/vk-testing-backend/internal/middleware"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/repository"
	"github.com/dewelsk/vk-testing-backend/internal/response"
	"github.com/dewelsk/vk-testing-backend/internal/scoring"
	"github.com/dewelsk/vk-testing-backend/internal/service"
	"github.com/dewelsk/vk-testing-backend/internal/validator"
)

// CandidatePortalHandler handles candidate-facing endpoints: dashboard,
// session lifecycle and results.
type CandidatePortalHandler struct {
	sessionService   *service.SessionService
	dashboardService *service.DashboardService
}

// NewCandidatePortalHandler creates a new CandidatePortalHandler.
func NewCandidatePortalHandler(
	sessionService *service.SessionService,
	dashboardService *service.DashboardService,
) *CandidatePortalHandler {
	return &CandidatePortalHandler{
		sessionService:   sessionService,
		dashboardService: dashboardService,
	}
}

// GetDashboard godoc
// GET /api/v1/candidate/dashboard
// Returns the candidate's procedure overview with per-level lock states.
func (h *CandidatePortalHandler) GetDashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	dashboard, err := h.dashboardService.Build(c.Request.Context(), claims.CandidateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}

// StartSession godoc
// POST /api/v1/candidate/sessions/start
// Begins a session for an assignment. Fails when the level is locked or a
// session already exists.
func (h *CandidatePortalHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), claims.CandidateID, claims.ProcedureID, req.AssignmentID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, state)
}

// GetSession godoc
// GET /api/v1/candidate/sessions/:session_id
// Returns the session state with server-computed remaining time. An expired
// session is finalized before the state is returned.
func (h *CandidatePortalHandler) GetSession(c *gin.Context) {
	claims, sessionID, ok := sessionRequest(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Get(c.Request.Context(), claims.CandidateID, sessionID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswers godoc
// POST /api/v1/candidate/sessions/:session_id/save
// Autosaves the candidate's answers. Rejected after completion or expiry.
func (h *CandidatePortalHandler) SaveAnswers(c *gin.Context) {
	claims, sessionID, ok := sessionRequest(c)
	if !ok {
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	receipt, err := h.sessionService.Save(c.Request.Context(), claims.CandidateID, sessionID, req.Answers)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, receipt)
}

// SubmitSession godoc
// POST /api/v1/candidate/sessions/:session_id/submit
// Finalizes the session and returns the scored outcome. Idempotent: a
// repeated submit returns the stored outcome.
func (h *CandidatePortalHandler) SubmitSession(c *gin.Context) {
	claims, sessionID, ok := sessionRequest(c)
	if !ok {
		return
	}

	var req model.SubmitSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.sessionService.Submit(c.Request.Context(), claims.CandidateID, sessionID, req.Answers)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// GetResult godoc
// GET /api/v1/candidate/sessions/:session_id/result
// Returns the stored outcome of a completed session.
func (h *CandidatePortalHandler) GetResult(c *gin.Context) {
	claims, sessionID, ok := sessionRequest(c)
	if !ok {
		return
	}

	outcome, err := h.sessionService.Result(c.Request.Context(), claims.CandidateID, sessionID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// sessionRequest extracts claims and the session id path param, failing the
// request itself on problems.
func sessionRequest(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

// failSessionError maps session domain errors onto HTTP error codes.
func failSessionError(c *gin.Context, err error) {
	var answerErrs scoring.AnswerErrors
	switch {
	case errors.As(err, &answerErrs):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidAnswers, answerErrs.Fields())
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssigned)
	case errors.Is(err, service.ErrTestingNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrTestingNotOpen)
	case errors.Is(err, service.ErrLevelLocked):
		response.Fail(c, http.StatusForbidden, response.ErrLevelLocked)
	case errors.Is(err, service.ErrAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyStarted)
	case errors.Is(err, service.ErrTimeExpired):
		response.Fail(c, http.StatusConflict, response.ErrTimeExpired)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusGone, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrNotCompleted):
		response.Fail(c, http.StatusConflict, response.ErrNotCompleted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
