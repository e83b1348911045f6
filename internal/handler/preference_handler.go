package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type preferenceService interface {
	Get(ctx context.Context, userID string) (*dto.PlannerPreferences, error)
	Upsert(ctx context.Context, userID string, req dto.UpsertPreferenceRequest) (*dto.PlannerPreferences, error)
}

// PreferenceHandler exposes planner preference endpoints.
type PreferenceHandler struct {
	service preferenceService
}

// NewPreferenceHandler constructs a PreferenceHandler.
func NewPreferenceHandler(service preferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// Get godoc
// @Summary Get planner preferences
// @Description Returns stored preferences or the application defaults.
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	prefs, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, prefs)
}

// Upsert godoc
// @Summary Replace planner preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.UpsertPreferenceRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /preferences [put]
func (h *PreferenceHandler) Upsert(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	var req dto.UpsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid preference payload"))
		return
	}
	prefs, err := h.service.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, prefs)
}
