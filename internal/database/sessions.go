package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// SessionRepository handles recommendation session database operations
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO recommendation_sessions (id, user_id, created_at, last_activity)
		VALUES ($1, $2, $3, $3)
		RETURNING created_at, last_activity
	`

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		time.Now(),
	).Scan(&session.CreatedAt, &session.LastActivity)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetLatestActive retrieves the most recent session for the user whose last
// activity falls inside the reuse window. Expiry is computed from the
// timestamp on read; there is no stored status column.
func (r *SessionRepository) GetLatestActive(ctx context.Context, userID string, window time.Duration) (*models.Session, error) {
	session := &models.Session{}

	query := `
		SELECT id, user_id, created_at, last_activity
		FROM recommendation_sessions
		WHERE user_id = $1 AND last_activity >= $2
		ORDER BY last_activity DESC
		LIMIT 1
	`

	cutoff := time.Now().Add(-window)

	err := r.db.QueryRowContext(ctx, query, userID, cutoff).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.LastActivity,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active session: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// Touch bumps the session's last-activity timestamp
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	query := `
		UPDATE recommendation_sessions
		SET last_activity = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}
