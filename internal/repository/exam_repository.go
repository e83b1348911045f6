package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyplan-api/internal/models"
)

const examColumns = `id, user_id, title, subject, description, due_date, priority, difficulty, estimated_hours, status, google_calendar_id, created_at, updated_at`

// ExamRepository persists exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

func (r *ExamRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns a user's exams ordered by due date.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	args := []interface{}{filter.UserID}
	conditions := []string{"user_id = $1"}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	query := fmt.Sprintf("SELECT %s FROM exams WHERE %s ORDER BY due_date ASC, id ASC", examColumns, strings.Join(conditions, " AND "))

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindByID loads an exam owned by the user.
func (r *ExamRepository) FindByID(ctx context.Context, userID, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1 AND user_id = $2", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id, userID); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	if exam.Status == "" {
		exam.Status = models.ExamStatusActive
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now

	const query = `INSERT INTO exams (id, user_id, title, subject, description, due_date, priority, difficulty, estimated_hours, status, google_calendar_id, created_at, updated_at)
		VALUES (:id, :user_id, :title, :subject, :description, :due_date, :priority, :difficulty, :estimated_hours, :status, :google_calendar_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, subject = :subject, description = :description, due_date = :due_date,
		priority = :priority, difficulty = :difficulty, estimated_hours = :estimated_hours, status = :status,
		google_calendar_id = :google_calendar_id, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exam rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an exam. Pass a transaction to combine it with the session cascade.
func (r *ExamRepository) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) error {
	const query = `DELETE FROM exams WHERE id = $1 AND user_id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exam rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
