package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// PreferenceRepository persists per-user planner preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetByUser returns the stored preferences or sql.ErrNoRows.
func (r *PreferenceRepository) GetByUser(ctx context.Context, userID string) (*models.UserPreference, error) {
	const query = `SELECT id, user_id, preferred_slots, intervals, session_duration_hours, created_at, updated_at FROM user_preferences WHERE user_id = $1`
	var pref models.UserPreference
	if err := r.db.GetContext(ctx, &pref, query, userID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert creates or replaces a user's preferences.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.UserPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now
	if len(pref.PreferredSlots) == 0 {
		pref.PreferredSlots = []byte("[]")
	}

	const query = `INSERT INTO user_preferences (id, user_id, preferred_slots, intervals, session_duration_hours, created_at, updated_at)
		VALUES (:id, :user_id, :preferred_slots, :intervals, :session_duration_hours, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE
		SET preferred_slots = EXCLUDED.preferred_slots,
		    intervals = EXCLUDED.intervals,
		    session_duration_hours = EXCLUDED.session_duration_hours,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert user preference: %w", err)
	}
	return nil
}
