package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fixedTime() time.Time {
	return time.Date(2026, time.August, 15, 18, 0, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", nil, zap.NewNop())
	client.baseURL = server.URL
	client.now = fixedTime
	return client
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	t.Run("parses provider payload", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("units") != "metric" || q.Get("lang") != "ja" {
				t.Errorf("unexpected query: %v", q)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"weather": [{"description": "小雨"}],
				"main": {"temp": 31.2, "feels_like": 34.0, "humidity": 78},
				"wind": {"speed": 3.4}
			}`))
		})

		got := client.Current(context.Background(), 35.6762, 139.6503)

		if got.Temp != 31.2 {
			t.Errorf("Temp = %v, want 31.2", got.Temp)
		}
		if got.Description != "小雨" {
			t.Errorf("Description = %q", got.Description)
		}
		if got.Season != "夏" {
			t.Errorf("Season = %q, want 夏", got.Season)
		}
		if got.CookingContext == "" {
			t.Error("CookingContext not derived")
		}
	})

	t.Run("provider error yields mild default", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		got := client.Current(context.Background(), 35.6762, 139.6503)

		if got.Temp != fallbackTemp {
			t.Errorf("Temp = %v, want %v", got.Temp, float64(fallbackTemp))
		}
		if got.Description != fallbackDescription {
			t.Errorf("Description = %q, want %q", got.Description, fallbackDescription)
		}
		if got.CookingContext == "" {
			t.Error("fallback observation must still have a cooking context")
		}
	})

	t.Run("malformed payload yields mild default", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})

		got := client.Current(context.Background(), 35.6762, 139.6503)
		if got.Description != fallbackDescription {
			t.Errorf("Description = %q, want %q", got.Description, fallbackDescription)
		}
	})
}
