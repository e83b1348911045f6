package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type studyPlanService interface {
	Preview(ctx context.Context, userID string, req dto.PlanPreviewRequest) (*dto.PlanPreviewResponse, error)
	Proposal(ctx context.Context, userID, proposalID string) (*dto.PlanPreviewResponse, error)
	Accept(ctx context.Context, userID string, req dto.AcceptPlanRequest) (*dto.AcceptPlanResponse, error)
	Export(ctx context.Context, userID, proposalID, format string) (*dto.PlanExport, error)
}

// PlanHandler exposes study plan generation.
type PlanHandler struct {
	service studyPlanService
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(service studyPlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

// Preview godoc
// @Summary Suggest study sessions
// @Description Computes sessions for active exams around calendar events and existing sessions. Nothing is persisted until the proposal is accepted.
// @Tags Plan
// @Accept json
// @Produce json
// @Param payload body dto.PlanPreviewRequest false "Overrides"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /plan/preview [post]
func (h *PlanHandler) Preview(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.PlanPreviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err, "invalid plan preview payload"))
			return
		}
	}
	result, err := h.service.Preview(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Proposal godoc
// @Summary Fetch a pending proposal
// @Tags Plan
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /plan/proposals/{id} [get]
func (h *PlanHandler) Proposal(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	result, err := h.service.Proposal(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Accept godoc
// @Summary Persist suggested sessions
// @Tags Plan
// @Accept json
// @Produce json
// @Param payload body dto.AcceptPlanRequest true "Proposal and selection"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plan/accept [post]
func (h *PlanHandler) Accept(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.AcceptPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid accept payload"))
		return
	}
	result, err := h.service.Accept(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Export godoc
// @Summary Download a proposal
// @Tags Plan
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /plan/proposals/{id}/export [get]
func (h *PlanHandler) Export(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	result, err := h.service.Export(c.Request.Context(), userID, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
