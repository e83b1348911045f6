package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type studySessionService interface {
	List(ctx context.Context, userID string, query dto.StudySessionQuery) ([]models.StudySession, *models.Pagination, error)
	Create(ctx context.Context, userID string, req dto.CreateStudySessionRequest) (*models.StudySession, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateStudySessionRequest) (*models.StudySession, error)
	Delete(ctx context.Context, userID, id string) error
}

// StudySessionHandler manages persisted study sessions.
type StudySessionHandler struct {
	service studySessionService
}

// NewStudySessionHandler constructs a StudySessionHandler.
func NewStudySessionHandler(service studySessionService) *StudySessionHandler {
	return &StudySessionHandler{service: service}
}

// List godoc
// @Summary List study sessions
// @Tags Sessions
// @Produce json
// @Param exam_id query string false "Exam filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *StudySessionHandler) List(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var query dto.StudySessionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	sessions, pagination, err := h.service.List(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Create godoc
// @Summary Schedule a study session manually
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudySessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *StudySessionHandler) Create(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.CreateStudySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid study session payload"))
		return
	}
	session, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Record progress on a study session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateStudySessionRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [patch]
func (h *StudySessionHandler) Update(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.UpdateStudySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid study session payload"))
		return
	}
	session, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Delete godoc
// @Summary Delete a study session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *StudySessionHandler) Delete(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
