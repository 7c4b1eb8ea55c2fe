package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/models"
)

func TestResolveOrCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sessions *mockSessionRepo
		validate func(t *testing.T, sessions *mockSessionRepo, gotID string)
	}{
		{
			name: "reuses session active 23 hours ago",
			sessions: &mockSessionRepo{latest: &models.Session{
				ID:           "session_U1_100",
				UserID:       "U1",
				LastActivity: time.Now().Add(-23 * time.Hour),
			}},
			validate: func(t *testing.T, sessions *mockSessionRepo, gotID string) {
				if gotID != "session_U1_100" {
					t.Errorf("expected reuse of existing session, got %q", gotID)
				}
				if len(sessions.created) != 0 {
					t.Errorf("no session should be created, got %d", len(sessions.created))
				}
			},
		},
		{
			name: "creates new session after 25 hours",
			sessions: &mockSessionRepo{latest: &models.Session{
				ID:           "session_U1_100",
				UserID:       "U1",
				LastActivity: time.Now().Add(-25 * time.Hour),
			}},
			validate: func(t *testing.T, sessions *mockSessionRepo, gotID string) {
				if gotID == "session_U1_100" {
					t.Error("expired session must not be reused")
				}
				if len(sessions.created) != 1 {
					t.Fatalf("expected 1 created session, got %d", len(sessions.created))
				}
				if sessions.created[0].ID != gotID {
					t.Errorf("returned id %q does not match created session %q", gotID, sessions.created[0].ID)
				}
			},
		},
		{
			name:     "no session at all creates one",
			sessions: &mockSessionRepo{},
			validate: func(t *testing.T, sessions *mockSessionRepo, gotID string) {
				if !strings.HasPrefix(gotID, "session_U1_") {
					t.Errorf("unexpected session id format: %q", gotID)
				}
				if len(sessions.created) != 1 {
					t.Errorf("expected 1 created session, got %d", len(sessions.created))
				}
			},
		},
		{
			name:     "lookup failure falls back to creation",
			sessions: &mockSessionRepo{latestErr: errors.New("connection reset")},
			validate: func(t *testing.T, sessions *mockSessionRepo, gotID string) {
				if gotID == "" {
					t.Error("expected a usable session id despite lookup failure")
				}
				if len(sessions.created) != 1 {
					t.Errorf("expected 1 created session, got %d", len(sessions.created))
				}
			},
		},
		{
			name:     "insert failure still returns generated id",
			sessions: &mockSessionRepo{createErr: errors.New("disk full")},
			validate: func(t *testing.T, sessions *mockSessionRepo, gotID string) {
				if !strings.HasPrefix(gotID, "session_U1_") {
					t.Errorf("expected generated id despite insert failure, got %q", gotID)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			manager := NewSessionManager(tt.sessions, &mockDishRepo{}, zap.NewNop())
			gotID := manager.ResolveOrCreate(context.Background(), "U1")
			tt.validate(t, tt.sessions, gotID)
		})
	}
}

func TestRecord(t *testing.T) {
	t.Parallel()

	batch := []models.RecommendedDish{
		{DishName: "親子丼", Genre: "和食", MainIngredient: "鶏肉", CookingMethod: "煮る"},
		{DishName: "ペペロンチーノ", Genre: "洋食", MainIngredient: "パスタ", CookingMethod: "炒める"},
		{DishName: "麻婆豆腐", Genre: "中華", MainIngredient: "豆腐", CookingMethod: "炒める"},
	}

	t.Run("persists batch with sequential order", func(t *testing.T) {
		t.Parallel()

		sessions := &mockSessionRepo{}
		dishes := &mockDishRepo{}
		manager := NewSessionManager(sessions, dishes, zap.NewNop())

		manager.Record(context.Background(), "session_U1_1", batch)

		if len(sessions.touched) != 1 || sessions.touched[0] != "session_U1_1" {
			t.Errorf("session not touched: %v", sessions.touched)
		}
		if len(dishes.created) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(dishes.created))
		}
		for i, d := range dishes.created {
			if d.Order != i+1 {
				t.Errorf("row %d order = %d, want %d", i, d.Order, i+1)
			}
			if d.SessionID != "session_U1_1" {
				t.Errorf("row %d session id = %q", i, d.SessionID)
			}
		}
	})

	t.Run("one failed row does not abort the rest", func(t *testing.T) {
		t.Parallel()

		sessions := &mockSessionRepo{}
		dishes := &mockDishRepo{createErrs: map[int]error{1: errors.New("constraint violation")}}
		manager := NewSessionManager(sessions, dishes, zap.NewNop())

		manager.Record(context.Background(), "session_U1_1", batch)

		if len(dishes.created) != 2 {
			t.Fatalf("expected 2 surviving rows, got %d", len(dishes.created))
		}
		if dishes.created[0].Order != 1 || dishes.created[1].Order != 3 {
			t.Errorf("surviving orders = %d, %d; want 1, 3",
				dishes.created[0].Order, dishes.created[1].Order)
		}
	})

	t.Run("touch failure does not block inserts", func(t *testing.T) {
		t.Parallel()

		sessions := &mockSessionRepo{touchErr: errors.New("lock timeout")}
		dishes := &mockDishRepo{}
		manager := NewSessionManager(sessions, dishes, zap.NewNop())

		manager.Record(context.Background(), "session_U1_1", batch)

		if len(dishes.created) != 3 {
			t.Errorf("expected 3 rows despite touch failure, got %d", len(dishes.created))
		}
	})
}

func TestSessionIDFormat(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1700000000000)
	got := models.SessionID("U1", at)
	if got != "session_U1_1700000000000" {
		t.Errorf("SessionID = %q", got)
	}
}
