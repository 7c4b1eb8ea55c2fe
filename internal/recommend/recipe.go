package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/prompts"
	"github.com/ymori/dinnerbot/internal/services/ai"
)

const (
	recipeTemperature       = 0.3
	shoppingListTemperature = 0.1
)

// RecipeService generates recipes and shopping lists for a chosen dish.
type RecipeService struct {
	provider ai.CompletionProvider
	logger   *zap.Logger
}

// NewRecipeService creates a recipe service.
func NewRecipeService(provider ai.CompletionProvider, logger *zap.Logger) *RecipeService {
	return &RecipeService{provider: provider, logger: logger}
}

// GenerateRecipe returns a formatted recipe message for the dish, with a
// shopping list appended. Generation failures yield an apologetic message
// rather than an error; the user always gets a reply.
func (s *RecipeService) GenerateRecipe(ctx context.Context, dishName string) string {
	recipe, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Operation:   "recipe",
		System:      prompts.RecipeSystem,
		Prompt:      prompts.Render(prompts.Recipe, prompts.Variables{"dish": dishName}),
		Temperature: recipeTemperature,
	})
	if err != nil {
		s.logger.Warn("recipe generation failed",
			zap.String("dish", dishName),
			zap.Error(err))
		return fmt.Sprintf("申し訳ございません。%sのレシピ生成に失敗しました。", dishName)
	}

	shoppingList := s.shoppingList(ctx, recipe)
	return fmt.Sprintf("📝 %sのレシピ\n\n%s\n\n🛒 買い物リスト\n%s", dishName, recipe, shoppingList)
}

func (s *RecipeService) shoppingList(ctx context.Context, recipe string) string {
	list, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Operation:   "shopping_list",
		System:      prompts.ShoppingListSystem,
		Prompt:      prompts.Render(prompts.ShoppingList, prompts.Variables{"recipe": recipe}),
		Temperature: shoppingListTemperature,
	})
	if err != nil {
		s.logger.Warn("shopping list generation failed", zap.Error(err))
		return "買い物リストの生成に失敗しました。"
	}
	return list
}

// ExtractDish pulls a single dish name out of a free-form message.
// Returns empty string when nothing could be extracted.
func (s *RecipeService) ExtractDish(ctx context.Context, text string) string {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Operation:   "dish_extraction",
		System:      prompts.DishExtractionSystem,
		Prompt:      prompts.Render(prompts.DishExtraction, prompts.Variables{"text": text}),
		MaxTokens:   50,
		Temperature: 0.1,
	})
	if err != nil {
		s.logger.Warn("dish extraction failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(resp)
}
