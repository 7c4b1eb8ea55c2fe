package recommend

import (
	"strings"
	"testing"
	"time"
)

func TestCookingContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		temp        float64
		description string
		humidity    int
		season      string
		wantPart    string
	}{
		{name: "very cold bucket", temp: 2, description: "晴れ", humidity: 50, season: "冬", wantPart: "非常に寒い"},
		{name: "cold bucket", temp: 8, description: "晴れ", humidity: 50, season: "冬", wantPart: "寒いので温かい"},
		{name: "mild bucket", temp: 15, description: "晴れ", humidity: 50, season: "春", wantPart: "過ごしやすい"},
		{name: "warm bucket", temp: 24, description: "晴れ", humidity: 50, season: "春", wantPart: "暖かい"},
		{name: "hot bucket", temp: 32, description: "晴れ", humidity: 50, season: "夏", wantPart: "暑いので冷たい"},
		{name: "lower bucket boundary is cold", temp: 5, description: "晴れ", humidity: 50, season: "冬", wantPart: "寒いので温かい"},
		{name: "upper bucket boundary is hot", temp: 28, description: "晴れ", humidity: 50, season: "夏", wantPart: "暑いので冷たい"},
		{name: "rain condition", temp: 15, description: "小雨", humidity: 50, season: "秋", wantPart: "雨なので"},
		{name: "snow condition", temp: 0, description: "雪", humidity: 50, season: "冬", wantPart: "雪なので"},
		{name: "cloudy condition", temp: 15, description: "曇りがち", humidity: 50, season: "秋", wantPart: "曇り空"},
		{name: "clear condition", temp: 15, description: "快晴", humidity: 50, season: "秋", wantPart: "晴れている"},
		{name: "high humidity", temp: 25, description: "晴れ", humidity: 80, season: "夏", wantPart: "湿度が高い"},
		{name: "low humidity", temp: 10, description: "晴れ", humidity: 20, season: "冬", wantPart: "乾燥している"},
		{name: "season phrase", temp: 15, description: "晴れ", humidity: 50, season: "秋", wantPart: "秋の食材"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CookingContext(tt.temp, tt.description, tt.humidity, tt.season)
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("CookingContext(%v, %q, %d, %q) = %q, missing %q",
					tt.temp, tt.description, tt.humidity, tt.season, got, tt.wantPart)
			}
		})
	}
}

func TestCookingContextDeterministic(t *testing.T) {
	t.Parallel()

	a := CookingContext(18, "曇り", 65, "春")
	b := CookingContext(18, "曇り", 65, "春")
	if a != b {
		t.Errorf("not deterministic: %q vs %q", a, b)
	}
	if a == "" {
		t.Error("context must not be empty")
	}
}

func TestSeason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "冬"},
		{time.February, "冬"},
		{time.March, "春"},
		{time.May, "春"},
		{time.June, "夏"},
		{time.August, "夏"},
		{time.September, "秋"},
		{time.November, "秋"},
		{time.December, "冬"},
	}

	for _, tt := range tests {
		at := time.Date(2026, tt.month, 15, 0, 0, 0, 0, time.UTC)
		if got := Season(at); got != tt.want {
			t.Errorf("Season(%v) = %q, want %q", tt.month, got, tt.want)
		}
	}
}
