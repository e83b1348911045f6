package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
)

var examRowColumns = []string{"id", "user_id", "title", "subject", "description", "due_date", "priority", "difficulty", "estimated_hours", "status", "google_calendar_id", "created_at", "updated_at"}

func TestExamRepositoryListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	due := time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(examRowColumns).
		AddRow("exam-1", "user-1", "Final", "Math", "", due, 5, 3, 3.0, "active", nil, due, due)
	mock.ExpectQuery(`SELECT .+ FROM exams WHERE user_id = \$1 AND status = \$2 ORDER BY due_date ASC`).
		WithArgs("user-1", models.ExamStatusActive).
		WillReturnRows(rows)

	exams, err := repo.List(context.Background(), models.ExamFilter{UserID: "user-1", Status: models.ExamStatusActive})
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, "Final", exams[0].Title)
	assert.Equal(t, 3.0, exams[0].EstimatedHours)
	assert.Nil(t, exams[0].GoogleCalendarID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectExec("INSERT INTO exams").
		WithArgs(sqlmock.AnyArg(), "user-1", "Final", "Math", "", sqlmock.AnyArg(), 5, 3, 3.0, models.ExamStatusActive, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exam := &models.Exam{UserID: "user-1", Title: "Final", Subject: "Math", DueDate: time.Now(), Priority: 5, Difficulty: 3, EstimatedHours: 3}
	require.NoError(t, repo.Create(context.Background(), exam))
	assert.NotEmpty(t, exam.ID)
	assert.Equal(t, models.ExamStatusActive, exam.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectExec("UPDATE exams SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Exam{ID: "exam-x", UserID: "user-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryDeleteInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM exams WHERE id = \$1 AND user_id = \$2`).
		WithArgs("exam-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), tx, "user-1", "exam-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
