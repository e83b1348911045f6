package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error)
	FindByID(ctx context.Context, userID, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) error
}

type examSessionCleaner interface {
	DeleteByExam(ctx context.Context, exec sqlx.ExtContext, userID, examID string) (int, error)
}

// ExamService manages the exams a user plans study time for.
type ExamService struct {
	exams     examRepository
	sessions  examSessionCleaner
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(exams examRepository, sessions examSessionCleaner, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{exams: exams, sessions: sessions, tx: tx, validator: validate, logger: logger}
}

// List returns the user's active exams ordered by due date.
func (s *ExamService) List(ctx context.Context, userID string) ([]models.Exam, error) {
	exams, err := s.exams.List(ctx, models.ExamFilter{UserID: userID, Status: models.ExamStatusActive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	if exams == nil {
		exams = []models.Exam{}
	}
	return exams, nil
}

// Get returns a single exam.
func (s *ExamService) Get(ctx context.Context, userID, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// Create registers an exam. Priority and difficulty are clamped to 1-5 and negative
// effort becomes zero.
func (s *ExamService) Create(ctx context.Context, userID string, req dto.CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam := &models.Exam{
		UserID:           userID,
		Title:            strings.TrimSpace(req.Title),
		Subject:          strings.TrimSpace(req.Subject),
		Description:      req.Description,
		DueDate:          req.DueDate.UTC(),
		Priority:         clampRating(*req.Priority),
		Difficulty:       clampRating(*req.Difficulty),
		EstimatedHours:   nonNegative(*req.EstimatedHours),
		Status:           models.ExamStatusActive,
		GoogleCalendarID: req.GoogleCalendarID,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	s.logger.Info("exam created", zap.String("user_id", userID), zap.String("exam_id", exam.ID))
	return exam, nil
}

// Update applies the non-nil fields of req.
func (s *ExamService) Update(ctx context.Context, userID, id string, req dto.UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		exam.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DueDate != nil {
		exam.DueDate = req.DueDate.UTC()
	}
	if req.Priority != nil {
		exam.Priority = clampRating(*req.Priority)
	}
	if req.Difficulty != nil {
		exam.Difficulty = clampRating(*req.Difficulty)
	}
	if req.EstimatedHours != nil {
		exam.EstimatedHours = nonNegative(*req.EstimatedHours)
	}
	if req.Status != nil {
		exam.Status = *req.Status
	}
	if req.GoogleCalendarID != nil {
		exam.GoogleCalendarID = req.GoogleCalendarID
	}
	if err := s.exams.Update(ctx, exam); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}
	return exam, nil
}

// Delete removes an exam together with its study sessions in one transaction.
func (s *ExamService) Delete(ctx context.Context, userID, id string) (resp *dto.DeleteExamResponse, err error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.sessions.DeleteByExam(ctx, tx, userID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam sessions")
	}
	if err = s.exams.Delete(ctx, tx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit exam deletion")
	}

	s.logger.Info("exam deleted", zap.String("user_id", userID), zap.String("exam_id", id), zap.Int("deleted_sessions", deleted))
	return &dto.DeleteExamResponse{ExamID: id, DeletedSessions: deleted}, nil
}

func clampRating(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
