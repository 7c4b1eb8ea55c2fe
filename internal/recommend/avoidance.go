package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
)

const (
	// ReasonNoPrior is the avoidance reason when a session has no recorded batch yet
	ReasonNoPrior = "初回提案のため回避対象なし"
	// ReasonError is the avoidance reason when the history read failed
	ReasonError = "エラーにより回避対象設定失敗"
)

// AvoidanceBuilder derives an avoidance strategy from the latest recommended
// batch of a session. It never returns an error; storage failures degrade to
// an empty strategy so recommendation generation can proceed.
type AvoidanceBuilder struct {
	dishes database.DishRepositoryInterface
	logger *zap.Logger
}

// NewAvoidanceBuilder creates a new avoidance builder.
func NewAvoidanceBuilder(dishes database.DishRepositoryInterface, logger *zap.Logger) *AvoidanceBuilder {
	return &AvoidanceBuilder{dishes: dishes, logger: logger}
}

// Build reads the latest batch of the session (at most the batch size) and
// collects its distinct non-empty ingredients, genres, and cooking methods
// as exclusion sets for the next prompt.
func (b *AvoidanceBuilder) Build(ctx context.Context, sessionID string) *models.AvoidanceStrategy {
	dishes, err := b.dishes.GetLatestBySession(ctx, sessionID, models.BatchSize)
	if err != nil {
		b.logger.Warn("avoidance history read failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return &models.AvoidanceStrategy{
			AvoidIngredients:    []string{},
			AvoidGenres:         []string{},
			AvoidCookingMethods: []string{},
			Reason:              ReasonError,
		}
	}

	if len(dishes) == 0 {
		return &models.AvoidanceStrategy{
			AvoidIngredients:    []string{},
			AvoidGenres:         []string{},
			AvoidCookingMethods: []string{},
			Reason:              ReasonNoPrior,
		}
	}

	ingredients := make([]string, 0, len(dishes))
	genres := make([]string, 0, len(dishes))
	methods := make([]string, 0, len(dishes))
	names := make([]string, 0, len(dishes))
	for _, d := range dishes {
		ingredients = appendUnique(ingredients, d.MainIngredient)
		genres = appendUnique(genres, d.Genre)
		methods = appendUnique(methods, d.CookingMethod)
		names = append(names, d.DishName)
	}

	strategy := &models.AvoidanceStrategy{
		AvoidIngredients:    ingredients,
		AvoidGenres:         genres,
		AvoidCookingMethods: methods,
		Reason:              fmt.Sprintf("前回提案した%d品の特徴を回避: %s", len(dishes), strings.Join(names, ", ")),
	}

	b.logger.Debug("avoidance strategy built",
		zap.String("session_id", sessionID),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("genres", len(genres)),
		zap.Int("cooking_methods", len(methods)),
		zap.Strings("previous_dishes", names))

	return strategy
}

// appendUnique appends value if it is non-empty and not already present,
// preserving first-seen order.
func appendUnique(values []string, value string) []string {
	if value == "" {
		return values
	}
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
