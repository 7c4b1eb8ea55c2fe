package database

import (
	"context"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// UserRepositoryInterface defines the interface for user repository operations
// This interface enables better testability by allowing mock implementations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetInvited(ctx context.Context) ([]*models.User, error)
	SetInvited(ctx context.Context, id string) error
	UpdatePreferences(ctx context.Context, id, allergies, dislikes string) error
}

// MealRepositoryInterface defines the interface for meal repository operations
type MealRepositoryInterface interface {
	Create(ctx context.Context, meal *models.Meal) error
	GetRecentByUser(ctx context.Context, userID string, days int) ([]*models.Meal, error)
}

// SessionRepositoryInterface defines the interface for session repository operations
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.Session) error
	GetLatestActive(ctx context.Context, userID string, window time.Duration) (*models.Session, error)
	Touch(ctx context.Context, sessionID string) error
}

// DishRepositoryInterface defines the interface for recommended-dish repository operations
type DishRepositoryInterface interface {
	Create(ctx context.Context, dish *models.RecommendedDish) error
	GetLatestBySession(ctx context.Context, sessionID string, limit int) ([]*models.RecommendedDish, error)
	GetByOrder(ctx context.Context, sessionID string, order int) (*models.RecommendedDish, error)
	MarkSelected(ctx context.Context, id int64) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface    = (*UserRepository)(nil)
	_ MealRepositoryInterface    = (*MealRepository)(nil)
	_ SessionRepositoryInterface = (*SessionRepository)(nil)
	_ DishRepositoryInterface    = (*DishRepository)(nil)
)
