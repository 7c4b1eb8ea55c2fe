package recommend

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
)

// SessionManager handles recommendation session lifecycle. Sessions are a
// time-bounded continuity window per user; expiry is computed on read from
// last_activity, there is no stored status.
type SessionManager struct {
	sessions database.SessionRepositoryInterface
	dishes   database.DishRepositoryInterface
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
}

// NewSessionManager creates a session manager with the default reuse window.
func NewSessionManager(sessions database.SessionRepositoryInterface, dishes database.DishRepositoryInterface, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		dishes:   dishes,
		logger:   logger,
		window:   models.SessionWindow,
		now:      time.Now,
	}
}

// ResolveOrCreate returns the user's most recent session id if its last
// activity falls within the reuse window, otherwise a freshly created one.
// Read failures also fall through to creation rather than failing the turn.
func (m *SessionManager) ResolveOrCreate(ctx context.Context, userID string) string {
	session, err := m.sessions.GetLatestActive(ctx, userID, m.window)
	if err == nil {
		m.logger.Debug("reusing session",
			zap.String("user_id", userID),
			zap.String("session_id", session.ID),
			zap.Time("last_activity", session.LastActivity))
		return session.ID
	}

	if errors.Is(err, sql.ErrNoRows) {
		m.logger.Debug("no active session, creating new one", zap.String("user_id", userID))
	} else {
		m.logger.Warn("session lookup failed, creating new one",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	return m.Create(ctx, userID)
}

// Create inserts a new session and returns its id. The generated id is
// returned even when the insert fails; it remains usable for in-memory
// continuation and the failure is logged.
func (m *SessionManager) Create(ctx context.Context, userID string) string {
	now := m.now()
	session := &models.Session{
		ID:     models.SessionID(userID, now),
		UserID: userID,
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		m.logger.Error("session insert failed",
			zap.String("user_id", userID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	return session.ID
}

// Record bumps the session's last-activity timestamp and persists the batch
// with sequential order indices starting at 1. Each row insert is attempted
// independently; a failed row is logged and does not abort the rest. The
// user already has their reply by this point, so durability is best effort.
func (m *SessionManager) Record(ctx context.Context, sessionID string, dishes []models.RecommendedDish) {
	if err := m.sessions.Touch(ctx, sessionID); err != nil {
		m.logger.Warn("session touch failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	for i := range dishes {
		dish := dishes[i]
		dish.SessionID = sessionID
		dish.Order = i + 1
		if err := m.dishes.Create(ctx, &dish); err != nil {
			m.logger.Warn("recommended dish insert failed",
				zap.String("session_id", sessionID),
				zap.String("dish_name", dish.DishName),
				zap.Int("order", dish.Order),
				zap.Error(err))
		}
	}
}
