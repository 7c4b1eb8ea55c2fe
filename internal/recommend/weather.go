package recommend

import (
	"strings"
	"time"
)

// CookingContext composes a one-sentence cooking hint from current weather.
// It combines a temperature-bucket phrase, a condition phrase keyed on the
// weather description, and a humidity phrase. Pure and deterministic.
func CookingContext(temp float64, description string, humidity int, season string) string {
	parts := make([]string, 0, 4)

	switch {
	case temp < 5:
		parts = append(parts, "非常に寒いので鍋物や煮込みなど体が温まる料理がおすすめ")
	case temp < 12:
		parts = append(parts, "寒いので温かい料理が良い")
	case temp < 20:
		parts = append(parts, "過ごしやすい気温でどんな料理も向く")
	case temp < 28:
		parts = append(parts, "暖かいので軽めの料理も楽しめる")
	default:
		parts = append(parts, "暑いので冷たい料理やさっぱりした料理がおすすめ")
	}

	switch {
	case strings.Contains(description, "雨"):
		parts = append(parts, "雨なので家でじっくり作れる料理が向く")
	case strings.Contains(description, "雪"):
		parts = append(parts, "雪なので熱々の料理が合う")
	case strings.Contains(description, "曇"):
		parts = append(parts, "曇り空には彩りのある料理が映える")
	default:
		parts = append(parts, "晴れているので食欲をそそる料理が合う")
	}

	switch {
	case humidity >= 70:
		parts = append(parts, "湿度が高いのでさっぱりした味付けが良い")
	case humidity <= 30:
		parts = append(parts, "乾燥しているので汁物を添えると良い")
	}

	if season != "" {
		parts = append(parts, season+"の食材を取り入れると良い")
	}

	return strings.Join(parts, "、")
}

// Season returns the Japanese season name for a point in time.
func Season(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "春"
	case time.June, time.July, time.August:
		return "夏"
	case time.September, time.October, time.November:
		return "秋"
	default:
		return "冬"
	}
}
