package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dewelsk/vk-testing-backend/internal/repository"
	"github.com/dewelsk/vk-testing-backend/internal/response"
	"github.com/dewelsk/vk-testing-backend/internal/service"
)

// MonitorHandler serves the admin monitoring view. Plain polling JSON; the
// dashboard refreshes by re-requesting, there is no push channel.
type MonitorHandler struct {
	monitorService *service.MonitorService
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{monitorService: monitorService}
}

// GetMonitoring godoc
// GET /api/v1/admin/procedures/:procedure_id/monitoring
// Returns live per-candidate progress and summary buckets for a procedure.
func (h *MonitorHandler) GetMonitoring(c *gin.Context) {
	procedureID, err := uuid.Parse(c.Param("procedure_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.monitorService.Build(c.Request.Context(), procedureID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, report)
}
