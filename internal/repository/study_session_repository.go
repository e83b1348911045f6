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

const studySessionColumns = `id, user_id, exam_id, title, scheduled_start, scheduled_end, actual_start, actual_end, completed, notes, google_calendar_id, created_at, updated_at`

// StudySessionRepository persists study sessions.
type StudySessionRepository struct {
	db *sqlx.DB
}

// NewStudySessionRepository constructs the repository.
func NewStudySessionRepository(db *sqlx.DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

func (r *StudySessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns sessions newest first together with the total match count.
// From/To select sessions overlapping the range.
func (r *StudySessionRepository) List(ctx context.Context, filter models.StudySessionFilter) ([]models.StudySession, int, error) {
	return r.list(ctx, r.db, filter)
}

// ListOverlapping runs the range listing on exec, which may be an open transaction.
func (r *StudySessionRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) ([]models.StudySession, error) {
	sessions, _, err := r.list(ctx, r.exec(exec), models.StudySessionFilter{UserID: userID, From: from, To: to})
	return sessions, err
}

func (r *StudySessionRepository) list(ctx context.Context, q sqlx.QueryerContext, filter models.StudySessionFilter) ([]models.StudySession, int, error) {
	args := []interface{}{filter.UserID}
	conditions := []string{"user_id = $1"}
	if filter.ExamID != "" {
		conditions = append(conditions, fmt.Sprintf("exam_id = $%d", len(args)+1))
		args = append(args, filter.ExamID)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("scheduled_start < $%d", len(args)+1))
		args = append(args, filter.To)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("scheduled_end > $%d", len(args)+1))
		args = append(args, filter.From)
	}
	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf("SELECT %s FROM study_sessions WHERE %s ORDER BY scheduled_start DESC, id ASC", studySessionColumns, where)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = fmt.Sprintf("%s LIMIT %d OFFSET %d", query, filter.PageSize, (page-1)*filter.PageSize)
	}

	var sessions []models.StudySession
	if err := sqlx.SelectContext(ctx, q, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list study sessions: %w", err)
	}
	if filter.PageSize <= 0 {
		return sessions, len(sessions), nil
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM study_sessions WHERE %s", where)
	if err := sqlx.GetContext(ctx, q, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count study sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID loads a session owned by the user.
func (r *StudySessionRepository) FindByID(ctx context.Context, userID, id string) (*models.StudySession, error) {
	query := fmt.Sprintf("SELECT %s FROM study_sessions WHERE id = $1 AND user_id = $2", studySessionColumns)
	var session models.StudySession
	if err := r.db.GetContext(ctx, &session, query, id, userID); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session using exec when provided.
func (r *StudySessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.StudySession) error {
	if session == nil {
		return fmt.Errorf("study session payload is nil")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	const query = `INSERT INTO study_sessions (id, user_id, exam_id, title, scheduled_start, scheduled_end, actual_start, actual_end, completed, notes, google_calendar_id, created_at, updated_at)
		VALUES (:id, :user_id, :exam_id, :title, :scheduled_start, :scheduled_end, :actual_start, :actual_end, :completed, :notes, :google_calendar_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("insert study session: %w", err)
	}
	return nil
}

// Update stores progress fields of a session.
func (r *StudySessionRepository) Update(ctx context.Context, session *models.StudySession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE study_sessions SET completed = :completed, notes = :notes, actual_start = :actual_start,
		actual_end = :actual_end, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("update study session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("study session rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single session.
func (r *StudySessionRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM study_sessions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete study session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("study session rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByExam removes every session of an exam and returns how many were deleted.
func (r *StudySessionRepository) DeleteByExam(ctx context.Context, exec sqlx.ExtContext, userID, examID string) (int, error) {
	const query = `DELETE FROM study_sessions WHERE exam_id = $1 AND user_id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, examID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete exam study sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("study session rows affected: %w", err)
	}
	return int(affected), nil
}
