package recommend

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/prompts"
	"github.com/ymori/dinnerbot/internal/services/ai"
)

// Defaults used by the simple fallback parser when the model is unavailable.
const (
	fallbackRating = 3
	fallbackMood   = "満足"
	fallbackTag    = "その他"
	fallbackDish   = "料理"
)

var (
	starPattern      = regexp.MustCompile(`⭐`)
	blackStarPattern = regexp.MustCompile(`★`)
	digitPattern     = regexp.MustCompile(`[1-5]`)
	stripPattern     = regexp.MustCompile(`[⭐★0-9]`)
)

// MealParser turns a free-text meal report into a structured meal input.
// The model does the heavy lifting; a star-count heuristic covers model
// failures so a meal report is never lost.
type MealParser struct {
	provider ai.CompletionProvider
	validate *validator.Validate
	logger   *zap.Logger
}

// NewMealParser creates a meal-report parser.
func NewMealParser(provider ai.CompletionProvider, logger *zap.Logger) *MealParser {
	return &MealParser{
		provider: provider,
		validate: validator.New(),
		logger:   logger,
	}
}

// Parse extracts dishes, rating, mood, and tags from a meal report.
// It never fails; any extraction problem degrades to the heuristic parser.
func (p *MealParser) Parse(ctx context.Context, text string) *models.MealInput {
	if p.provider != nil {
		if input := p.parseWithModel(ctx, text); input != nil {
			return input
		}
		p.logger.Debug("meal extraction via model failed, using heuristic parser")
	}
	return p.parseHeuristic(text)
}

func (p *MealParser) parseWithModel(ctx context.Context, text string) *models.MealInput {
	prompt := prompts.Render(prompts.MealExtraction, prompts.Variables{"text": text})
	resp, err := p.provider.Complete(ctx, ai.CompletionRequest{
		Operation:    "meal_extraction",
		System:       prompts.MealExtractionSystem,
		Prompt:       prompt,
		MaxTokens:    200,
		Temperature:  0.1,
		JSONResponse: true,
	})
	if err != nil {
		p.logger.Warn("meal extraction completion failed", zap.Error(err))
		return nil
	}

	raw := resp
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var input models.MealInput
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		p.logger.Warn("meal extraction returned malformed JSON", zap.Error(err))
		return nil
	}
	input.Rating = clampRating(input.Rating)
	if err := p.validate.Struct(&input); err != nil {
		p.logger.Warn("meal extraction result failed validation", zap.Error(err))
		return nil
	}
	return &input
}

// parseHeuristic rates by counting stars (⭐ first, then ★, then the first
// digit 1-5) and takes the remaining text as the dish name.
func (p *MealParser) parseHeuristic(text string) *models.MealInput {
	rating := fallbackRating
	if n := len(starPattern.FindAllString(text, -1)); n > 0 {
		rating = n
	} else if n := len(blackStarPattern.FindAllString(text, -1)); n > 0 {
		rating = n
	} else if m := digitPattern.FindString(text); m != "" {
		rating = int(m[0] - '0')
	}
	rating = clampRating(rating)

	dish := strings.TrimSpace(stripPattern.ReplaceAllString(text, ""))
	if dish == "" {
		dish = fallbackDish
	}

	return &models.MealInput{
		Dishes: []string{dish},
		Rating: rating,
		Mood:   fallbackMood,
		Tags:   []string{fallbackTag},
	}
}

// Heuristic reports whether a parsed input came from the fallback parser
// rather than the model. Used to label the confirmation message.
func Heuristic(input *models.MealInput) bool {
	return input.Mood == fallbackMood && len(input.Tags) == 1 && input.Tags[0] == fallbackTag
}

func clampRating(rating int) int {
	if rating < 1 {
		return 1
	}
	if rating > 5 {
		return 5
	}
	return rating
}
