package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/planner"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type preferenceRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.UserPreference, error)
	Upsert(ctx context.Context, pref *models.UserPreference) error
}

// PreferenceService resolves and stores per-user planner preferences.
type PreferenceService struct {
	repo      preferenceRepository
	cache     *CacheService
	defaults  PlannerDefaults
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService constructs a PreferenceService. cache may be nil.
func NewPreferenceService(repo preferenceRepository, cache *CacheService, defaults PlannerDefaults, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, cache: cache, defaults: defaults.withFallbacks(), validator: validate, logger: logger}
}

func preferenceCacheKey(userID string) string {
	return "planner:prefs:" + userID
}

// Get returns the user's stored preferences or the application defaults.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*dto.PlannerPreferences, error) {
	key := preferenceCacheKey(userID)
	var cached dto.PlannerPreferences
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	stored, err := s.repo.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planner preferences")
	}

	prefs := s.defaults.preferences()
	if stored != nil {
		decoded, decodeErr := preferenceFromModel(stored)
		if decodeErr != nil {
			s.logger.Warn("stored planner preferences unreadable, using defaults", zap.String("user_id", userID), zap.Error(decodeErr))
		} else {
			prefs = s.fillGaps(decoded)
		}
	}

	s.cache.Set(ctx, key, prefs, 0)
	return prefs, nil
}

// fillGaps completes a stored record with defaults for any field it leaves empty.
func (s *PreferenceService) fillGaps(prefs *dto.PlannerPreferences) *dto.PlannerPreferences {
	defaults := s.defaults.preferences()
	if len(prefs.PreferredSlots) == 0 {
		prefs.PreferredSlots = defaults.PreferredSlots
	}
	if len(prefs.Intervals) == 0 {
		prefs.Intervals = defaults.Intervals
	}
	if prefs.SessionDurationHours <= 0 {
		prefs.SessionDurationHours = defaults.SessionDurationHours
	}
	return prefs
}

// Upsert validates and stores preferences, then drops the cached copy.
func (s *PreferenceService) Upsert(ctx context.Context, userID string, req dto.UpsertPreferenceRequest) (*dto.PlannerPreferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid planner preferences")
	}
	check := planner.Config{
		Now:                  time.Now(),
		PreferredSlots:       slotsToPlanner(req.PreferredSlots),
		Intervals:            req.Intervals,
		SessionDurationHours: req.SessionDurationHours,
	}
	if err := check.Validate(); err != nil {
		return nil, plannerError(err)
	}

	slots, err := json.Marshal(req.PreferredSlots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preferred slots")
	}
	intervals := make(pq.Int64Array, 0, len(req.Intervals))
	for _, v := range req.Intervals {
		intervals = append(intervals, int64(v))
	}
	record := &models.UserPreference{
		UserID:               userID,
		PreferredSlots:       slots,
		Intervals:            intervals,
		SessionDurationHours: req.SessionDurationHours,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store planner preferences")
	}
	if err := s.cache.Invalidate(ctx, preferenceCacheKey(userID)); err != nil {
		s.logger.Warn("stale planner preferences may be served until expiry", zap.String("user_id", userID))
	}

	return &dto.PlannerPreferences{
		PreferredSlots:       req.PreferredSlots,
		Intervals:            append([]int(nil), req.Intervals...),
		SessionDurationHours: req.SessionDurationHours,
		Source:               dto.PreferenceSourceStored,
	}, nil
}

// plannerError maps planner sentinel errors onto API errors.
func plannerError(err error) error {
	switch {
	case errors.Is(err, planner.ErrInvalidConfig):
		return appErrors.Wrap(err, appErrors.ErrInvalidPlannerConfig.Code, appErrors.ErrInvalidPlannerConfig.Status, err.Error())
	case errors.Is(err, planner.ErrInvalidInput):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute study plan")
	}
}
