// Package prompts holds the prompt templates sent to the completion service
// and the renderer that substitutes template variables. Templates are
// immutable package data; callers pass every variable explicitly.
package prompts

import (
	"regexp"
)

// Variables maps template placeholder names to their values.
type Variables map[string]string

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{name}} placeholders in template with the given
// variables. Unknown placeholders are left intact so Unresolved can report
// them.
func Render(template string, vars Variables) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// Unresolved returns the placeholder names still present in a rendered
// string. A non-empty result means the caller forgot a variable.
func Unresolved(rendered string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(rendered, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// RecommendationSystem is the system prompt for the session-aware
// recommendation flow.
const RecommendationSystem = `あなたは多様な料理ジャンルに精通したAIアシスタントです。前回の提案を分析し、完全に異なるアプローチの夕食を提案します。

【思考プロセス】
1. 前回提案の分析：主材料・調理法・ジャンルを特定
2. 回避戦略の策定：前回と重複する要素をすべて除外
3. 新提案の生成：完全に異なる軸での料理選択

和食→洋食、肉→魚、炒め物→煮物のような大胆な変更を躊躇しません。材料や味付けが似ている料理は絶対に避けます。`

// Recommendation is the user prompt for a recommendation cycle. Every
// placeholder must be substituted; optional context renders as an explicit
// なし/情報なし sentinel, never as an empty string.
const Recommendation = `{{originalMessage}}というご要望にお応えして、夕食を3つ提案します。

【推薦戦略】
- 戦略: {{strategy}}
- 方針: {{strategyDescription}}
- 優先項目: {{priorityFactors}}

【前回の提案分析】
前回提案した料理: {{previousRecommendations}}

【回避すべき要素】
- 主材料: {{avoidIngredients}}
- ジャンル: {{avoidGenres}}
- 調理法: {{avoidCookingMethods}}

【ユーザー情報】
- アレルギー: {{allergies}}
- 苦手な食材: {{dislikes}}
- お気に入りの料理: {{preferredDishes}}

【最近の食事履歴】
{{recentMeals}}

【今日の環境】
- 気温: {{temperature}}°C
- 天気: {{weather}}

【提案ルール】
1. 前回提案と完全に異なる軸で選択する
2. 3品は互いに主材料・ジャンル・調理法が重複しないようにする
3. アレルギーと苦手な食材は絶対に使わない
4. 季節・天気に適した料理を優先する

フォーマット:
1. **[料理名]** - [選んだ理由]
2. **[料理名]** - [選んだ理由]
3. **[料理名]** - [選んだ理由]

気になる料理の番号を送ってくれれば、詳しいレシピをお教えします！`

// DishListExtraction asks the model to recover exactly three dish names from
// free-form recommendation text. Used as the last pattern-matching fallback.
const DishListExtraction = `以下の文章から料理名をちょうど3つ抽出してください。JSON配列のみで回答してください。

例: ["親子丼", "ペペロンチーノ", "麻婆豆腐"]

文章:
{{text}}`

// MealExtractionSystem instructs the model to parse a meal report.
const MealExtractionSystem = `Extract dishes, rating (★1-5), mood keyword. Return pure JSON.`

// MealExtraction parses a free-text meal report into structured fields.
const MealExtraction = `Extract meal information from this text: "{{text}}"

Return a JSON object with:
- dishes: array of dish names
- rating: number 1-5 (from stars)
- mood: mood keyword
- tags: array of cuisine tags

Example: {"dishes": ["豚バラ大根", "味噌汁"], "rating": 3, "mood": "満足", "tags": ["和食"]}`

// DishExtractionSystem extracts a single dish name from a user message.
const DishExtractionSystem = `Extract the dish name from user message. Return only the dish name.`

// DishExtraction is the user prompt for single-dish extraction.
const DishExtraction = `Extract dish name from: "{{text}}"`

// RecipeSystem instructs the model to produce a 4-person recipe.
const RecipeSystem = `Return ingredients list (name, qty) & numbered steps for requested dish, for 4 people.`

// Recipe is the user prompt for recipe generation.
const Recipe = `{{dish}}の4人分のレシピを教えて。材料と手順を分けて書いてください。`

// ShoppingListSystem instructs the model to derive a shopping list.
const ShoppingListSystem = `Extract shopping list from recipe. Return as bullet points with quantities.`

// ShoppingList is the user prompt for shopping-list derivation.
const ShoppingList = `このレシピから買い物リストを作成してください：
{{recipe}}`
