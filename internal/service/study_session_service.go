package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type studySessionRepository interface {
	List(ctx context.Context, filter models.StudySessionFilter) ([]models.StudySession, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.StudySession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.StudySession) error
	Update(ctx context.Context, session *models.StudySession) error
	Delete(ctx context.Context, userID, id string) error
}

type examLookup interface {
	FindByID(ctx context.Context, userID, id string) (*models.Exam, error)
}

// StudySessionService manages persisted study sessions.
type StudySessionService struct {
	sessions  studySessionRepository
	exams     examLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudySessionService constructs a StudySessionService.
func NewStudySessionService(sessions studySessionRepository, exams examLookup, validate *validator.Validate, logger *zap.Logger) *StudySessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudySessionService{sessions: sessions, exams: exams, validator: validate, logger: logger}
}

// List returns the user's sessions, newest first, optionally for one exam.
func (s *StudySessionService) List(ctx context.Context, userID string, query dto.StudySessionQuery) ([]models.StudySession, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session query")
	}
	filter := models.StudySessionFilter{
		UserID:   userID,
		ExamID:   strings.TrimSpace(query.ExamID),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study sessions")
	}
	if sessions == nil {
		sessions = []models.StudySession{}
	}
	var pagination *models.Pagination
	if query.PageSize > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		pagination = &models.Pagination{Page: page, PageSize: query.PageSize, TotalCount: total}
	}
	return sessions, pagination, nil
}

// Create records a manually scheduled session for one of the user's exams.
func (s *StudySessionService) Create(ctx context.Context, userID string, req dto.CreateStudySessionRequest) (*models.StudySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study session payload")
	}
	if _, err := s.exams.FindByID(ctx, userID, req.ExamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	session := &models.StudySession{
		UserID:         userID,
		ExamID:         req.ExamID,
		Title:          strings.TrimSpace(req.Title),
		ScheduledStart: req.ScheduledStart.UTC(),
		ScheduledEnd:   req.ScheduledEnd.UTC(),
		Notes:          req.Notes,
	}
	if err := s.sessions.Create(ctx, nil, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study session")
	}
	return session, nil
}

// Update records progress: completion, notes and the actual start/end times.
func (s *StudySessionService) Update(ctx context.Context, userID, id string, req dto.UpdateStudySessionRequest) (*models.StudySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study session payload")
	}
	session, err := s.sessions.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study session")
	}
	if req.Completed != nil {
		session.Completed = *req.Completed
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}
	if req.ActualStart != nil {
		session.ActualStart = utcPtr(*req.ActualStart)
	}
	if req.ActualEnd != nil {
		session.ActualEnd = utcPtr(*req.ActualEnd)
	}
	if session.ActualStart != nil && session.ActualEnd != nil && !session.ActualEnd.After(*session.ActualStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actual_end must be after actual_start")
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study session")
	}
	return session, nil
}

// Delete removes a session.
func (s *StudySessionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.sessions.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "study session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study session")
	}
	return nil
}

func utcPtr(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}
