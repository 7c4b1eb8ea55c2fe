package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// DishRepository handles recommended-dish database operations
type DishRepository struct {
	db *DB
}

// NewDishRepository creates a new recommended-dish repository
func NewDishRepository(db *DB) *DishRepository {
	return &DishRepository{db: db}
}

// Create inserts one recommended-dish row
func (r *DishRepository) Create(ctx context.Context, dish *models.RecommendedDish) error {
	query := `
		INSERT INTO recommended_dishes
			(session_id, dish_name, genre, main_ingredient, cooking_method,
			 recommendation_order, user_feedback, recommended_at, selected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	if dish.RecommendedAt.IsZero() {
		dish.RecommendedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		dish.SessionID,
		dish.DishName,
		dish.Genre,
		dish.MainIngredient,
		dish.CookingMethod,
		dish.Order,
		dish.UserFeedback,
		dish.RecommendedAt,
		dish.Selected,
	).Scan(&dish.ID)

	if err != nil {
		return fmt.Errorf("failed to create recommended dish: %w", err)
	}

	return nil
}

// GetLatestBySession retrieves the most recent recommended dishes for a
// session, newest first, bounded by limit. The avoidance builder reads only
// the latest batch through this.
func (r *DishRepository) GetLatestBySession(ctx context.Context, sessionID string, limit int) ([]*models.RecommendedDish, error) {
	query := `
		SELECT id, session_id, dish_name, genre, main_ingredient, cooking_method,
		       recommendation_order, user_feedback, recommended_at, selected
		FROM recommended_dishes
		WHERE session_id = $1
		ORDER BY recommended_at DESC, recommendation_order DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommended dishes: %w", err)
	}
	defer rows.Close()

	var dishes []*models.RecommendedDish
	for rows.Next() {
		dish := &models.RecommendedDish{}
		var feedback sql.NullString

		err := rows.Scan(
			&dish.ID,
			&dish.SessionID,
			&dish.DishName,
			&dish.Genre,
			&dish.MainIngredient,
			&dish.CookingMethod,
			&dish.Order,
			&feedback,
			&dish.RecommendedAt,
			&dish.Selected,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommended dish: %w", err)
		}

		dish.UserFeedback = feedback.String
		dishes = append(dishes, dish)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommended dishes: %w", err)
	}

	return dishes, nil
}

// GetByOrder resolves a numeric choice ("1"-"3") to the dish at that order
// index within the session's latest batch.
func (r *DishRepository) GetByOrder(ctx context.Context, sessionID string, order int) (*models.RecommendedDish, error) {
	dish := &models.RecommendedDish{}
	var feedback sql.NullString

	query := `
		SELECT id, session_id, dish_name, genre, main_ingredient, cooking_method,
		       recommendation_order, user_feedback, recommended_at, selected
		FROM recommended_dishes
		WHERE session_id = $1 AND recommendation_order = $2
		ORDER BY recommended_at DESC
		LIMIT 1
	`

	err := r.db.QueryRowContext(ctx, query, sessionID, order).Scan(
		&dish.ID,
		&dish.SessionID,
		&dish.DishName,
		&dish.Genre,
		&dish.MainIngredient,
		&dish.CookingMethod,
		&dish.Order,
		&feedback,
		&dish.RecommendedAt,
		&dish.Selected,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recommended dish not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommended dish: %w", err)
	}

	dish.UserFeedback = feedback.String
	return dish, nil
}

// MarkSelected flags a dish as the user's choice
func (r *DishRepository) MarkSelected(ctx context.Context, id int64) error {
	query := `UPDATE recommended_dishes SET selected = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark dish selected: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("recommended dish not found")
	}

	return nil
}
