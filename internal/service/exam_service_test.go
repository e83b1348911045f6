package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
)

type examRepoStub struct {
	exams     map[string]*models.Exam
	listErr   error
	created   []*models.Exam
	updated   []*models.Exam
	deleted   []string
	deleteErr error
	filters   []models.ExamFilter
}

func newExamRepoStub(exams ...models.Exam) *examRepoStub {
	stub := &examRepoStub{exams: map[string]*models.Exam{}}
	for i := range exams {
		exam := exams[i]
		stub.exams[exam.ID] = &exam
	}
	return stub
}

func (s *examRepoStub) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	s.filters = append(s.filters, filter)
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Exam
	for _, exam := range s.exams {
		if exam.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && exam.Status != filter.Status {
			continue
		}
		out = append(out, *exam)
	}
	return out, nil
}

func (s *examRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Exam, error) {
	exam, ok := s.exams[id]
	if !ok || exam.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *exam
	return &clone, nil
}

func (s *examRepoStub) Create(ctx context.Context, exam *models.Exam) error {
	exam.ID = "exam-new"
	s.created = append(s.created, exam)
	return nil
}

func (s *examRepoStub) Update(ctx context.Context, exam *models.Exam) error {
	if _, ok := s.exams[exam.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updated = append(s.updated, exam)
	return nil
}

func (s *examRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.exams[id]; !ok {
		return sql.ErrNoRows
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type sessionCleanerStub struct {
	removed int
	err     error
	examIDs []string
}

func (s *sessionCleanerStub) DeleteByExam(ctx context.Context, exec sqlx.ExtContext, userID, examID string) (int, error) {
	s.examIDs = append(s.examIDs, examID)
	return s.removed, s.err
}

func sampleExam(id string) models.Exam {
	return models.Exam{
		ID:             id,
		UserID:         "user-1",
		Title:          "Calculus midterm",
		Subject:        "math",
		DueDate:        time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC),
		Priority:       3,
		Difficulty:     3,
		EstimatedHours: 3,
		Status:         models.ExamStatusActive,
	}
}

func TestExamServiceListFiltersActive(t *testing.T) {
	repo := newExamRepoStub(sampleExam("exam-1"))
	svc := NewExamService(repo, &sessionCleanerStub{}, nil, nil, nil)

	exams, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, exams, 1)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, models.ExamStatusActive, repo.filters[0].Status)

	empty, err := svc.List(context.Background(), "user-2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestExamServiceCreateClampsRatings(t *testing.T) {
	repo := newExamRepoStub()
	svc := NewExamService(repo, &sessionCleanerStub{}, nil, nil, nil)

	exam, err := svc.Create(context.Background(), "user-1", dto.CreateExamRequest{
		Title:          "  Physics final ",
		Subject:        "physics",
		DueDate:        time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600)),
		Priority:       intPtr(9),
		Difficulty:     intPtr(-2),
		EstimatedHours: floatPtr(-4),
	})
	require.NoError(t, err)
	assert.Equal(t, "exam-new", exam.ID)
	assert.Equal(t, "Physics final", exam.Title)
	assert.Equal(t, 5, exam.Priority)
	assert.Equal(t, 1, exam.Difficulty)
	assert.Zero(t, exam.EstimatedHours)
	assert.Equal(t, time.UTC, exam.DueDate.Location())
	assert.Equal(t, models.ExamStatusActive, exam.Status)
}

func TestExamServiceCreateValidation(t *testing.T) {
	svc := NewExamService(newExamRepoStub(), &sessionCleanerStub{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), "user-1", dto.CreateExamRequest{Title: "No due date", Subject: "art"})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestExamServiceUpdatePatchesFields(t *testing.T) {
	repo := newExamRepoStub(sampleExam("exam-1"))
	svc := NewExamService(repo, &sessionCleanerStub{}, nil, nil, nil)
	completed := models.ExamStatusCompleted

	exam, err := svc.Update(context.Background(), "user-1", "exam-1", dto.UpdateExamRequest{
		Title:    strPtr("Calculus final"),
		Priority: intPtr(0),
		Status:   &completed,
	})
	require.NoError(t, err)
	assert.Equal(t, "Calculus final", exam.Title)
	assert.Equal(t, 1, exam.Priority)
	assert.Equal(t, "math", exam.Subject)
	assert.Equal(t, models.ExamStatusCompleted, exam.Status)
	assert.Len(t, repo.updated, 1)
}

func TestExamServiceUpdateUnknownExam(t *testing.T) {
	svc := NewExamService(newExamRepoStub(), &sessionCleanerStub{}, nil, nil, nil)
	_, err := svc.Update(context.Background(), "user-1", "missing", dto.UpdateExamRequest{Title: strPtr("x")})
	requireAppError(t, err, http.StatusNotFound)
}

func TestExamServiceDeleteCascadesSessions(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newExamRepoStub(sampleExam("exam-1"))
	cleaner := &sessionCleanerStub{removed: 4}
	svc := NewExamService(repo, cleaner, tx, nil, nil)

	resp, err := svc.Delete(context.Background(), "user-1", "exam-1")
	require.NoError(t, err)
	assert.Equal(t, &dto.DeleteExamResponse{ExamID: "exam-1", DeletedSessions: 4}, resp)
	assert.Equal(t, []string{"exam-1"}, cleaner.examIDs)
	assert.Equal(t, []string{"exam-1"}, repo.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamServiceDeleteRollsBackWhenExamMissing(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := NewExamService(newExamRepoStub(), &sessionCleanerStub{}, tx, nil, nil)
	_, err := svc.Delete(context.Background(), "user-1", "missing")
	requireAppError(t, err, http.StatusNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamServiceDeleteRollsBackOnSessionFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newExamRepoStub(sampleExam("exam-1"))
	svc := NewExamService(repo, &sessionCleanerStub{err: errors.New("boom")}, tx, nil, nil)
	_, err := svc.Delete(context.Background(), "user-1", "exam-1")
	requireAppError(t, err, http.StatusInternalServerError)
	assert.Empty(t, repo.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
