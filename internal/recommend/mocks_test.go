package recommend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/services/ai"
)

var errNoActiveSession = fmt.Errorf("no active session: %w", sql.ErrNoRows)

// mockDishRepo is a test double for the recommended-dish repository.
type mockDishRepo struct {
	dishes     []*models.RecommendedDish
	created    []*models.RecommendedDish
	getErr     error
	createErr  error
	createErrs map[int]error // per-call errors, keyed by call index
	calls      int
}

var _ database.DishRepositoryInterface = (*mockDishRepo)(nil)

func (m *mockDishRepo) Create(ctx context.Context, dish *models.RecommendedDish) error {
	idx := m.calls
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	if err, ok := m.createErrs[idx]; ok {
		return err
	}
	copied := *dish
	m.created = append(m.created, &copied)
	return nil
}

func (m *mockDishRepo) GetLatestBySession(ctx context.Context, sessionID string, limit int) ([]*models.RecommendedDish, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit < len(m.dishes) {
		return m.dishes[:limit], nil
	}
	return m.dishes, nil
}

func (m *mockDishRepo) GetByOrder(ctx context.Context, sessionID string, order int) (*models.RecommendedDish, error) {
	for _, d := range m.dishes {
		if d.Order == order {
			return d, nil
		}
	}
	return nil, m.getErr
}

func (m *mockDishRepo) MarkSelected(ctx context.Context, id int64) error {
	return nil
}

// mockSessionRepo is a test double for the session repository.
type mockSessionRepo struct {
	latest    *models.Session
	latestErr error
	createErr error
	created   []*models.Session
	touched   []string
	touchErr  error
}

var _ database.SessionRepositoryInterface = (*mockSessionRepo)(nil)

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, session)
	return nil
}

func (m *mockSessionRepo) GetLatestActive(ctx context.Context, userID string, window time.Duration) (*models.Session, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	if m.latest == nil || time.Since(m.latest.LastActivity) >= window {
		return nil, errNoActiveSession
	}
	return m.latest, nil
}

func (m *mockSessionRepo) Touch(ctx context.Context, sessionID string) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touched = append(m.touched, sessionID)
	return nil
}

// mockProvider is a scripted completion provider.
type mockProvider struct {
	response string
	err      error
	delay    time.Duration
	requests []ai.CompletionRequest
}

var _ ai.CompletionProvider = (*mockProvider)(nil)

func (m *mockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}
