package recommend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ymori/dinnerbot/internal/models"
)

// StrategyDescriptor describes how the prompt should steer the model
// for one request type.
type StrategyDescriptor struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	PriorityFactors []string `yaml:"priority_factors"`
}

// KeywordRule maps a request type to the keywords that trigger it.
// Rules are evaluated in slice order and the first match wins.
type KeywordRule struct {
	Type     models.RequestType `yaml:"type"`
	Keywords []string           `yaml:"keywords"`
}

// FallbackDish is one entry of a fixed fallback recommendation set.
type FallbackDish struct {
	DishName       string `yaml:"dish_name"`
	Genre          string `yaml:"genre"`
	MainIngredient string `yaml:"main_ingredient"`
	CookingMethod  string `yaml:"cooking_method"`
	Feedback       string `yaml:"feedback"`
}

// Tables holds the immutable lookup data the recommendation engine runs on.
// Loaded once at startup and passed by reference, never mutated.
type Tables struct {
	Strategies map[models.RequestType]StrategyDescriptor `yaml:"strategies"`
	Keywords   []KeywordRule                             `yaml:"keywords"`
	Fallbacks  map[models.RequestType][]FallbackDish     `yaml:"fallbacks"`
}

// DefaultTables returns the built-in strategy, keyword, and fallback tables.
func DefaultTables() *Tables {
	return &Tables{
		Strategies: map[models.RequestType]StrategyDescriptor{
			models.RequestDiverse: {
				Name:            "maximum_variety",
				Description:     "前回と完全に異なるジャンル・調理法・食材での多様性確保",
				PriorityFactors: []string{"ジャンル差別化", "調理法変更", "主材料変更", "味付け変更"},
			},
			models.RequestLight: {
				Name:            "light_focused",
				Description:     "あっさり系料理に特化した選択（蒸し物・茹で物・サラダ等）",
				PriorityFactors: []string{"脂質控えめ", "蒸し・茹で調理", "野菜中心", "消化良好"},
			},
			models.RequestHearty: {
				Name:            "hearty_focused",
				Description:     "ボリューム重視の満足感ある料理選択",
				PriorityFactors: []string{"高カロリー", "肉類中心", "炭水化物併用", "満腹感重視"},
			},
			models.RequestDifferent: {
				Name:            "contrast_maximization",
				Description:     "前回提案との対比を最大化する完全対照的選択",
				PriorityFactors: []string{"前回逆特性", "季節感変更", "調理時間差別化", "食感変更"},
			},
			models.RequestGeneral: {
				Name:            "balanced_variety",
				Description:     "バランス重視の標準的多様性確保",
				PriorityFactors: []string{"栄養バランス", "季節適応", "調理難易度", "材料入手性"},
			},
		},
		Keywords: []KeywordRule{
			{
				Type:     models.RequestLight,
				Keywords: []string{"あっさり", "さっぱり", "軽い", "軽め", "ヘルシー", "light"},
			},
			{
				Type:     models.RequestHearty,
				Keywords: []string{"がっつり", "ガッツリ", "こってり", "ボリューム", "満腹", "hearty"},
			},
			{
				Type:     models.RequestDifferent,
				Keywords: []string{"違う", "別の", "他の", "変えて", "different"},
			},
			{
				Type:     models.RequestDiverse,
				Keywords: []string{"色々", "いろいろ", "バラエティ", "多様", "diverse"},
			},
		},
		Fallbacks: map[models.RequestType][]FallbackDish{
			models.RequestDiverse: {
				{DishName: "親子丼", Genre: "和食", MainIngredient: "鶏肉", CookingMethod: "煮る", Feedback: "定番の和食料理"},
				{DishName: "ペペロンチーノ", Genre: "洋食", MainIngredient: "パスタ", CookingMethod: "炒める", Feedback: "シンプルなイタリアン"},
				{DishName: "麻婆豆腐", Genre: "中華", MainIngredient: "豆腐", CookingMethod: "炒める", Feedback: "ピリ辛中華料理"},
			},
			models.RequestLight: {
				{DishName: "サラダ", Genre: "洋食", MainIngredient: "野菜", CookingMethod: "生", Feedback: "さっぱり野菜料理"},
				{DishName: "茶碗蒸し", Genre: "和食", MainIngredient: "卵", CookingMethod: "蒸す", Feedback: "やさしい和食"},
				{DishName: "おかゆ", Genre: "和食", MainIngredient: "米", CookingMethod: "煮る", Feedback: "胃にやさしい"},
			},
			models.RequestHearty: {
				{DishName: "カツ丼", Genre: "和食", MainIngredient: "豚肉", CookingMethod: "揚げる", Feedback: "ボリューム満点"},
				{DishName: "ハンバーグ", Genre: "洋食", MainIngredient: "牛肉", CookingMethod: "焼く", Feedback: "がっつり洋食"},
				{DishName: "ラーメン", Genre: "中華", MainIngredient: "麺", CookingMethod: "茹でる", Feedback: "満腹感のある一品"},
			},
			models.RequestDifferent: {
				{DishName: "オムライス", Genre: "洋食", MainIngredient: "卵", CookingMethod: "炒める", Feedback: "見た目も楽しい"},
				{DishName: "焼き魚", Genre: "和食", MainIngredient: "魚", CookingMethod: "焼く", Feedback: "ヘルシーな和食"},
				{DishName: "パスタ", Genre: "洋食", MainIngredient: "パスタ", CookingMethod: "茹でる", Feedback: "アレンジ豊富"},
			},
			models.RequestGeneral: {
				{DishName: "カレーライス", Genre: "洋食", MainIngredient: "野菜", CookingMethod: "煮る", Feedback: "定番の人気料理"},
				{DishName: "焼き鳥", Genre: "和食", MainIngredient: "鶏肉", CookingMethod: "焼く", Feedback: "手軽で美味しい"},
				{DishName: "みそ汁", Genre: "和食", MainIngredient: "味噌", CookingMethod: "煮る", Feedback: "ほっとする味"},
			},
		},
	}
}

// LoadTables reads table overrides from a YAML file and merges them over the
// defaults. A section missing from the file keeps its default content.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}

	tables := DefaultTables()
	for rt, s := range override.Strategies {
		if !rt.Valid() {
			return nil, fmt.Errorf("invalid request type in strategies: %q", rt)
		}
		tables.Strategies[rt] = s
	}
	if len(override.Keywords) > 0 {
		for _, rule := range override.Keywords {
			if !rule.Type.Valid() {
				return nil, fmt.Errorf("invalid request type in keywords: %q", rule.Type)
			}
		}
		tables.Keywords = override.Keywords
	}
	for rt, dishes := range override.Fallbacks {
		if !rt.Valid() {
			return nil, fmt.Errorf("invalid request type in fallbacks: %q", rt)
		}
		if len(dishes) != models.BatchSize {
			return nil, fmt.Errorf("fallback set for %q must have %d dishes, got %d", rt, models.BatchSize, len(dishes))
		}
		tables.Fallbacks[rt] = dishes
	}

	return tables, nil
}

// Strategy returns the descriptor for a request type, defaulting to general
// for unknown types.
func (t *Tables) Strategy(rt models.RequestType) StrategyDescriptor {
	if s, ok := t.Strategies[rt]; ok {
		return s
	}
	return t.Strategies[models.RequestGeneral]
}

// FallbackSet returns the fixed fallback dishes for a request type,
// defaulting to the general set for unknown types.
func (t *Tables) FallbackSet(rt models.RequestType) []FallbackDish {
	if dishes, ok := t.Fallbacks[rt]; ok {
		return dishes
	}
	return t.Fallbacks[models.RequestGeneral]
}
