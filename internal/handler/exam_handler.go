package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type examService interface {
	List(ctx context.Context, userID string) ([]models.Exam, error)
	Get(ctx context.Context, userID, id string) (*models.Exam, error)
	Create(ctx context.Context, userID string, req dto.CreateExamRequest) (*models.Exam, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateExamRequest) (*models.Exam, error)
	Delete(ctx context.Context, userID, id string) (*dto.DeleteExamResponse, error)
}

// ExamHandler manages exam endpoints.
type ExamHandler struct {
	service examService
}

// NewExamHandler constructs an ExamHandler.
func NewExamHandler(service examService) *ExamHandler {
	return &ExamHandler{service: service}
}

// List godoc
// @Summary List active exams
// @Tags Exams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	exams, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exams)
}

// Get godoc
// @Summary Get exam detail
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	exam, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

// Create godoc
// @Summary Create exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body dto.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid exam payload"))
		return
	}
	exam, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Update godoc
// @Summary Update exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body dto.UpdateExamRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [patch]
func (h *ExamHandler) Update(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid exam payload"))
		return
	}
	exam, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

// Delete godoc
// @Summary Delete exam and its study sessions
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	result, err := h.service.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
