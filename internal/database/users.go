package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user record on first contact
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, invited, allergies, dislikes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Invited,
		user.Allergies,
		user.Dislikes,
		time.Now(),
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by the messaging platform's user ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	var allergies, dislikes sql.NullString

	query := `
		SELECT id, invited, allergies, dislikes, created_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Invited,
		&allergies,
		&dislikes,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Allergies = allergies.String
	user.Dislikes = dislikes.String

	return user, nil
}

// GetInvited retrieves all invited users, for the daily push
func (r *UserRepository) GetInvited(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, invited, allergies, dislikes, created_at
		FROM users
		WHERE invited = TRUE
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invited users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var allergies, dislikes sql.NullString

		if err := rows.Scan(&user.ID, &user.Invited, &allergies, &dislikes, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user.Allergies = allergies.String
		user.Dislikes = dislikes.String
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// SetInvited marks a user as invited after a valid invitation code
func (r *UserRepository) SetInvited(ctx context.Context, id string) error {
	query := `UPDATE users SET invited = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to invite user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdatePreferences updates a user's allergy and dislike lists
func (r *UserRepository) UpdatePreferences(ctx context.Context, id, allergies, dislikes string) error {
	query := `UPDATE users SET allergies = $2, dislikes = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, allergies, dislikes)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
