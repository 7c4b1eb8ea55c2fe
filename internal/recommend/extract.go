package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/prompts"
	"github.com/ymori/dinnerbot/internal/services/ai"
)

// Dish name length bounds, exclusive on both ends, counted in runes.
const (
	minDishNameRunes = 1
	maxDishNameRunes = 30
)

var (
	numberedBoldPattern = regexp.MustCompile(`\d+\.\s*\*\*([^*]+)\*\*`)
	numberedDashPattern = regexp.MustCompile(`\d+\.\s*([^-\n]+?)(?:\s*[-ー]|$)`)
	boldSpanPattern     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	numberedLinePattern = regexp.MustCompile(`(?m)^\s*\d+\.\s*(.+)$`)

	leadingNumberPattern = regexp.MustCompile(`^\d+\.\s*`)
	trailingDashPattern  = regexp.MustCompile(`\s*[-ー].*$`)
	bracketPattern       = regexp.MustCompile(`[【\[(（][^】\])）]*[】\])）]`)
)

// extractionStrategy is one tagged attempt at pulling dish names out of
// free-form model output. Strategies are tried in order; the first one
// producing a full batch of qualifying names wins.
type extractionStrategy struct {
	name    string
	extract func(text string) []string
}

// Extractor converts free-form recommendation text into exactly three dish
// names. The completion provider is an optional last-resort delegate used
// when no pattern strategy yields a full batch; it may be nil.
type Extractor struct {
	provider ai.CompletionProvider
	logger   *zap.Logger
}

// NewExtractor creates a dish-name extractor.
func NewExtractor(provider ai.CompletionProvider, logger *zap.Logger) *Extractor {
	return &Extractor{provider: provider, logger: logger}
}

// Extract always returns exactly three non-empty names, falling back to
// generic placeholders when nothing usable can be recovered. It never fails.
func (e *Extractor) Extract(ctx context.Context, text string) []string {
	strategies := []extractionStrategy{
		{name: "structured-markdown", extract: matchPattern(numberedBoldPattern)},
		{name: "numbered-dash-line", extract: matchPattern(numberedDashPattern)},
		{name: "bold-span", extract: matchPattern(boldSpanPattern)},
		{name: "loose-numbered-line", extract: extractLooseNumberedLines},
	}

	for _, s := range strategies {
		names := s.extract(text)
		if len(names) >= models.BatchSize {
			e.logger.Debug("dish names extracted",
				zap.String("strategy", s.name),
				zap.Strings("dishes", names[:models.BatchSize]))
			return names[:models.BatchSize]
		}
	}

	if e.provider != nil {
		if names := e.delegate(ctx, text); len(names) >= models.BatchSize {
			e.logger.Debug("dish names extracted",
				zap.String("strategy", "delegate-to-service"),
				zap.Strings("dishes", names[:models.BatchSize]))
			return names[:models.BatchSize]
		}
	}

	e.logger.Warn("dish name extraction fell back to placeholders",
		zap.Int("text_length", len(text)))
	placeholders := make([]string, models.BatchSize)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("推薦料理%d", i+1)
	}
	return placeholders
}

// matchPattern builds a strategy over one capture-group regexp with the
// shared cleanup and length filter. Only the first batch-size matches are
// considered; a strategy whose top matches don't all clean up into usable
// names fails rather than digging deeper into the text.
func matchPattern(pattern *regexp.Regexp) func(string) []string {
	return func(text string) []string {
		matches := pattern.FindAllStringSubmatch(text, models.BatchSize)
		names := make([]string, 0, models.BatchSize)
		for _, m := range matches {
			name := cleanDishName(m[1])
			if qualifies(name) {
				names = append(names, name)
			}
		}
		return names
	}
}

// extractLooseNumberedLines takes the whole remainder of any numbered line
// and applies a more aggressive cleanup, stripping bracket annotations.
func extractLooseNumberedLines(text string) []string {
	matches := numberedLinePattern.FindAllStringSubmatch(text, models.BatchSize)
	names := make([]string, 0, models.BatchSize)
	for _, m := range matches {
		name := cleanDishName(m[1])
		name = strings.TrimSpace(bracketPattern.ReplaceAllString(name, ""))
		if qualifies(name) {
			names = append(names, name)
		}
	}
	return names
}

// delegate asks the completion service to recover the dish list as a JSON
// array. The reply is accepted only when it parses to at least a full batch
// of qualifying strings.
func (e *Extractor) delegate(ctx context.Context, text string) []string {
	prompt := prompts.Render(prompts.DishListExtraction, prompts.Variables{"text": text})
	resp, err := e.provider.Complete(ctx, ai.CompletionRequest{
		Operation:   "dish_list_extraction",
		Prompt:      prompt,
		MaxTokens:   200,
		Temperature: 0.1,
	})
	if err != nil {
		e.logger.Warn("dish list extraction delegate failed", zap.Error(err))
		return nil
	}

	start := strings.Index(resp, "[")
	end := strings.LastIndex(resp, "]")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var parsed []string
	if err := json.Unmarshal([]byte(resp[start:end+1]), &parsed); err != nil {
		e.logger.Warn("dish list extraction delegate returned malformed JSON", zap.Error(err))
		return nil
	}

	names := make([]string, 0, models.BatchSize)
	for _, raw := range parsed {
		name := cleanDishName(raw)
		if qualifies(name) {
			names = append(names, name)
		}
	}
	return names
}

// cleanDishName strips list numbering, bold markers, and trailing
// dash-delimited explanations.
func cleanDishName(raw string) string {
	name := strings.ReplaceAll(raw, "**", "")
	name = leadingNumberPattern.ReplaceAllString(name, "")
	name = trailingDashPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func qualifies(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > minDishNameRunes && n < maxDishNameRunes
}
