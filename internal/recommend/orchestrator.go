package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/prompts"
	"github.com/ymori/dinnerbot/internal/services/ai"
)

// Completion parameters for the recommendation call. High temperature is part
// of the contract: the functional requirement is maximal dissimilarity from
// prior recommendations.
const (
	recommendationMaxTokens   = 1000
	recommendationTemperature = 0.9
)

// Sentinels used when optional context is missing. A placeholder must never
// render as an empty string.
const (
	sentinelNone      = "なし"
	sentinelNoInfo    = "情報なし"
	sentinelNoHistory = "履歴なし（新規ユーザーまたはデータなし）"
	sentinelFirstRun  = "初回提案のため前回履歴なし"
)

const maxPreferredDishesInPrompt = 3

// Orchestrator runs one recommendation cycle: strategy selection, prompt
// construction, completion call, extraction, and fallback. It always returns
// a full batch; no dependency failure escapes past it.
type Orchestrator struct {
	provider  ai.CompletionProvider
	extractor *Extractor
	tables    *Tables
	logger    *zap.Logger
}

// NewOrchestrator creates a recommendation orchestrator.
func NewOrchestrator(provider ai.CompletionProvider, extractor *Extractor, tables *Tables, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		extractor: extractor,
		tables:    tables,
		logger:    logger,
	}
}

// Generate produces exactly one batch of recommended dishes for the given
// context. Any failure along the generative path yields the fixed fallback
// set for the request type instead of an error.
func (o *Orchestrator) Generate(ctx context.Context, rc *models.RecommendationContext) []models.RecommendedDish {
	requestType := models.RequestGeneral
	if rc.Request != nil {
		requestType = rc.Request.Type
	}

	strategy := o.tables.Strategy(requestType)
	o.logger.Debug("recommendation strategy selected",
		zap.String("request_type", string(requestType)),
		zap.String("strategy", strategy.Name))

	prompt := prompts.Render(prompts.Recommendation, o.promptVariables(rc, strategy))
	if unresolved := prompts.Unresolved(prompt); len(unresolved) > 0 {
		o.logger.Error("recommendation prompt has unresolved placeholders",
			zap.Strings("placeholders", unresolved))
		return o.fallback(requestType)
	}

	text, err := o.provider.Complete(ctx, ai.CompletionRequest{
		Operation:   "recommendation",
		System:      prompts.RecommendationSystem,
		Prompt:      prompt,
		MaxTokens:   recommendationMaxTokens,
		Temperature: recommendationTemperature,
	})
	if err != nil {
		o.logger.Warn("recommendation completion failed, using fallback set",
			zap.String("request_type", string(requestType)),
			zap.Error(err))
		return o.fallback(requestType)
	}

	names := o.extractor.Extract(ctx, text)

	batch := make([]models.RecommendedDish, 0, models.BatchSize)
	for _, name := range names {
		batch = append(batch, models.RecommendedDish{
			DishName:       name,
			Genre:          models.UnknownValue,
			MainIngredient: models.UnknownValue,
			CookingMethod:  models.UnknownValue,
			UserFeedback:   text,
			RecommendedAt:  time.Now(),
		})
	}
	return batch
}

// promptVariables flattens the context into the template variable set.
func (o *Orchestrator) promptVariables(rc *models.RecommendationContext, strategy StrategyDescriptor) prompts.Variables {
	originalMessage := "夕食のおすすめを教えて"
	if rc.Request != nil && rc.Request.OriginalMessage != "" {
		originalMessage = rc.Request.OriginalMessage
	}

	allergies, dislikes := sentinelNone, sentinelNone
	if rc.User != nil {
		if rc.User.Allergies != "" {
			allergies = rc.User.Allergies
		}
		if rc.User.Dislikes != "" {
			dislikes = rc.User.Dislikes
		}
	}

	recentMeals := sentinelNoHistory
	if len(rc.RecentMeals) > 0 {
		lines := make([]string, 0, len(rc.RecentMeals))
		for _, m := range rc.RecentMeals {
			lines = append(lines, fmt.Sprintf("- %s (評価: %d/5, 気分: %s, 日付: %s)",
				m.Dish, m.Rating, m.Mood, m.AteDate.Format("2006-01-02")))
		}
		recentMeals = strings.Join(lines, "\n")
	}

	preferred := sentinelNoInfo
	if len(rc.PreferredDishes) > 0 {
		dishes := rc.PreferredDishes
		if len(dishes) > maxPreferredDishesInPrompt {
			dishes = dishes[:maxPreferredDishesInPrompt]
		}
		preferred = strings.Join(dishes, ", ")
	}

	previous := sentinelFirstRun
	if len(rc.PreviousRecommendations) > 0 {
		entries := make([]string, 0, len(rc.PreviousRecommendations))
		for _, d := range rc.PreviousRecommendations {
			entries = append(entries, fmt.Sprintf("%s (%s・%s・%s)",
				d.DishName, d.Genre, d.MainIngredient, d.CookingMethod))
		}
		previous = strings.Join(entries, ", ")
	}

	avoidance := rc.Avoidance
	if avoidance == nil {
		avoidance = &models.AvoidanceStrategy{Reason: ReasonNoPrior}
	}

	temperature := "20"
	weather := sentinelNoInfo
	if rc.Weather != nil {
		temperature = fmt.Sprintf("%.0f", rc.Weather.Temp)
		weather = fmt.Sprintf("%s（体感気温%.0f°C、湿度%d%%、%s、%s）",
			rc.Weather.Description, rc.Weather.FeelsLike, rc.Weather.Humidity,
			rc.Weather.Season, rc.Weather.CookingContext)
	}

	return prompts.Variables{
		"originalMessage":         originalMessage,
		"strategy":                strategy.Name,
		"strategyDescription":     strategy.Description,
		"priorityFactors":         strings.Join(strategy.PriorityFactors, ", "),
		"previousRecommendations": previous,
		"avoidIngredients":        joinOrNone(avoidance.AvoidIngredients),
		"avoidGenres":             joinOrNone(avoidance.AvoidGenres),
		"avoidCookingMethods":     joinOrNone(avoidance.AvoidCookingMethods),
		"allergies":               allergies,
		"dislikes":                dislikes,
		"preferredDishes":         preferred,
		"recentMeals":             recentMeals,
		"temperature":             temperature,
		"weather":                 weather,
	}
}

// fallback returns the fixed dish set for the request type as a fresh batch.
func (o *Orchestrator) fallback(requestType models.RequestType) []models.RecommendedDish {
	set := o.tables.FallbackSet(requestType)
	batch := make([]models.RecommendedDish, 0, len(set))
	for _, d := range set {
		batch = append(batch, models.RecommendedDish{
			DishName:       d.DishName,
			Genre:          d.Genre,
			MainIngredient: d.MainIngredient,
			CookingMethod:  d.CookingMethod,
			UserFeedback:   d.Feedback,
			RecommendedAt:  time.Now(),
		})
	}
	return batch
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return sentinelNone
	}
	return strings.Join(values, ", ")
}
