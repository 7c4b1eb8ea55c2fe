package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// MealRepository handles meal database operations. Meal rows are immutable
// once written, so there is no update or delete path.
type MealRepository struct {
	db *DB
}

// NewMealRepository creates a new meal repository
func NewMealRepository(db *DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a meal row
func (r *MealRepository) Create(ctx context.Context, meal *models.Meal) error {
	query := `
		INSERT INTO meals (user_id, ate_date, dish, tags, rating, mood, decided)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	tagsJSON, err := json.Marshal(meal.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		meal.UserID,
		meal.AteDate,
		meal.Dish,
		tagsJSON,
		meal.Rating,
		meal.Mood,
		meal.Decided,
	).Scan(&meal.ID)

	if err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}

	return nil
}

// GetRecentByUser retrieves meals eaten within the given number of days,
// newest first
func (r *MealRepository) GetRecentByUser(ctx context.Context, userID string, days int) ([]*models.Meal, error) {
	query := `
		SELECT id, user_id, ate_date, dish, tags, rating, mood, decided
		FROM meals
		WHERE user_id = $1 AND ate_date >= $2
		ORDER BY ate_date DESC
	`

	since := time.Now().AddDate(0, 0, -days)

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal := &models.Meal{}
		var tagsJSON []byte
		var mood sql.NullString

		err := rows.Scan(
			&meal.ID,
			&meal.UserID,
			&meal.AteDate,
			&meal.Dish,
			&tagsJSON,
			&meal.Rating,
			&mood,
			&meal.Decided,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}

		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &meal.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
			}
		}
		meal.Mood = mood.String

		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	return meals, nil
}
