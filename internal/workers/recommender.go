package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/queue"
	"github.com/ymori/dinnerbot/internal/recommend"
	"github.com/ymori/dinnerbot/internal/services/ai"
	"github.com/ymori/dinnerbot/internal/services/line"
)

// recentMealDays is how far back logged meals are pulled into the prompt.
const recentMealDays = 14

// preferredRatingMin is the minimum rating for a meal to count as a favorite.
const preferredRatingMin = 4

// Pusher delivers proactive messages to a chat user.
type Pusher interface {
	Push(ctx context.Context, userID, text string, quickReplies ...line.QuickReply) error
}

// WeatherSource provides current weather for a fixed location.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) *models.Weather
}

// Recommender processes recommendation jobs: it assembles the full
// recommendation context for a user, generates a batch of dishes, records it
// against the session, and pushes the result to the user.
type Recommender struct {
	classifier *recommend.Classifier
	sessions   *recommend.SessionManager
	avoidance  *recommend.AvoidanceBuilder
	orch       *recommend.Orchestrator
	users      database.UserRepositoryInterface
	meals      database.MealRepositoryInterface
	dishes     database.DishRepositoryInterface
	weather    WeatherSource
	pusher     Pusher
	jobQueue   queue.JobQueue // For re-enqueueing jobs with delays
	lat, lon   float64
	logger     *zap.Logger
}

// NewRecommender creates a recommendation worker.
func NewRecommender(
	classifier *recommend.Classifier,
	sessions *recommend.SessionManager,
	avoidance *recommend.AvoidanceBuilder,
	orch *recommend.Orchestrator,
	users database.UserRepositoryInterface,
	meals database.MealRepositoryInterface,
	dishes database.DishRepositoryInterface,
	weather WeatherSource,
	pusher Pusher,
	jobQueue queue.JobQueue,
	lat, lon float64,
	logger *zap.Logger,
) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		classifier: classifier,
		sessions:   sessions,
		avoidance:  avoidance,
		orch:       orch,
		users:      users,
		meals:      meals,
		dishes:     dishes,
		weather:    weather,
		pusher:     pusher,
		jobQueue:   jobQueue,
		lat:        lat,
		lon:        lon,
		logger:     logger,
	}
}

// ProcessRecommendationJob runs one full recommendation cycle for the job's
// user. Context assembly is best-effort: a missing user row, meal history, or
// weather reading degrades the prompt but never aborts the cycle. Only the
// final push can fail the job.
func (r *Recommender) ProcessRecommendationJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == "" {
		return fmt.Errorf("user_id is required for recommendation job")
	}

	// Carry the user id so provider debug logs can attribute the calls
	ctx = ai.WithUserID(ctx, job.UserID)

	request := r.classifier.Classify(job.Message)
	sessionID := r.sessions.ResolveOrCreate(ctx, job.UserID)
	avoidance := r.avoidance.Build(ctx, sessionID)

	previous, err := r.dishes.GetLatestBySession(ctx, sessionID, models.BatchSize)
	if err != nil {
		r.logger.Warn("failed to load previous recommendations",
			zap.String("session_id", sessionID), zap.Error(err))
		previous = nil
	}

	user, err := r.users.GetByID(ctx, job.UserID)
	if err != nil {
		r.logger.Debug("user profile unavailable",
			zap.String("user_id", job.UserID), zap.Error(err))
		user = nil
	}

	recentMeals, preferred := r.mealHistory(ctx, job.UserID)
	weather := r.weather.Current(ctx, r.lat, r.lon)

	batch := r.orch.Generate(ctx, &models.RecommendationContext{
		User:                    user,
		RecentMeals:             recentMeals,
		PreferredDishes:         preferred,
		PreviousRecommendations: previous,
		Request:                 request,
		Avoidance:               avoidance,
		Weather:                 weather,
	})

	r.sessions.Record(ctx, sessionID, batch)

	if err := r.pusher.Push(ctx, job.UserID, formatBatch(batch), batchQuickReplies()...); err != nil {
		return fmt.Errorf("failed to push recommendations: %w", err)
	}

	r.logger.Info("recommendation batch delivered",
		zap.String("user_id", job.UserID),
		zap.String("session_id", sessionID),
		zap.String("request_type", string(request.Type)))
	return nil
}

// ProcessDailyPushJob fans out one recommendation job per invited user. The
// actual generation happens in the per-user jobs so one slow user cannot
// stall the rest.
func (r *Recommender) ProcessDailyPushJob(ctx context.Context, job *queue.Job) error {
	users, err := r.users.GetInvited(ctx)
	if err != nil {
		return fmt.Errorf("failed to list invited users: %w", err)
	}

	enqueued := 0
	for _, u := range users {
		userJob := queue.NewRecommendationJob(u.ID, "今日の夕食のおすすめを教えて")
		if err := r.jobQueue.Enqueue(ctx, userJob); err != nil {
			r.logger.Warn("failed to enqueue daily recommendation",
				zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		enqueued++
	}

	r.logger.Info("daily push fan-out complete",
		zap.Int("users", len(users)), zap.Int("enqueued", enqueued))
	return nil
}

// mealHistory loads the user's recent meals and derives the favorite dish
// list from highly rated entries. Failures yield empty history.
func (r *Recommender) mealHistory(ctx context.Context, userID string) ([]*models.Meal, []string) {
	meals, err := r.meals.GetRecentByUser(ctx, userID, recentMealDays)
	if err != nil {
		r.logger.Warn("failed to load meal history",
			zap.String("user_id", userID), zap.Error(err))
		return nil, nil
	}

	var preferred []string
	seen := make(map[string]bool)
	for _, m := range meals {
		if m.Rating >= preferredRatingMin && !seen[m.Dish] {
			seen[m.Dish] = true
			preferred = append(preferred, m.Dish)
		}
	}
	return meals, preferred
}

// formatBatch renders a dish batch as the outgoing chat message.
func formatBatch(batch []models.RecommendedDish) string {
	var b strings.Builder
	b.WriteString("🍽️ 今日の夕食におすすめの3品です！\n\n")
	for i, dish := range batch {
		fmt.Fprintf(&b, "%d. %s\n", i+1, dish.DishName)
	}
	b.WriteString("\n気になる料理の番号を選んでください！")
	return b.String()
}

func batchQuickReplies() []line.QuickReply {
	return []line.QuickReply{
		{Label: "1️⃣", Text: "1"},
		{Label: "2️⃣", Text: "2"},
		{Label: "3️⃣", Text: "3"},
		{Label: "🔄 再提案", Text: "違うおすすめを教えて"},
	}
}

// ProcessJob processes a job based on its type
func (r *Recommender) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		r.logger.Debug("job not ready yet, skipping",
			zap.String("job_id", job.ID.String()), zap.Timep("not_before", job.NotBefore))
		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Warn("failed to ack job for later processing", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeRecommendation:
		if err := r.ProcessRecommendationJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err, "recommendation")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeDailyPush:
		if err := r.ProcessDailyPushJob(ctx, job); err != nil {
			// Fan-out failures are not worth retrying; the next scheduled
			// push will cover the same users.
			if nackErr := msg.Nack(false); nackErr != nil {
				r.logger.Warn("failed to nack daily push job", zap.Error(nackErr))
			}
			return fmt.Errorf("daily push failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack daily push job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			r.logger.Warn("failed to nack unknown job type", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with retry logic tuned to
// the error class: quota and rate-limit errors re-enqueue with a delay,
// everything else retries immediately until retries are exhausted.
func (r *Recommender) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobType string) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		r.logger.Warn("provider throttled, delaying retry",
			zap.String("job_type", jobType),
			zap.String("job_id", job.ID.String()),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err))

		if job.CanRetry() && r.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				UserID:     job.UserID,
				Message:    job.Message,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				Metadata:   job.Metadata,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			// Ack the current message before re-enqueueing the delayed copy
			if ackErr := msg.Ack(); ackErr != nil {
				r.logger.Warn("failed to ack throttled job", zap.Error(ackErr))
			}

			if enqueueErr := r.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				r.logger.Error("failed to re-enqueue throttled job",
					zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
				return fmt.Errorf("throttled, failed to re-enqueue: %w", enqueueErr)
			}

			r.logger.Info("re-enqueued throttled job",
				zap.String("job_id", job.ID.String()),
				zap.Time("not_before", notBefore))
			return nil
		}

		// Retries exhausted or no queue access: send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed to nack throttled job", zap.Error(nackErr))
		}
		return fmt.Errorf("throttled (job %s): %w", job.ID, err)
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		r.logger.Warn("job failed, will retry",
			zap.String("job_type", jobType),
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err))
		if nackErr := msg.Nack(true); nackErr != nil {
			r.logger.Warn("failed to nack job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	r.logger.Error("job failed after max retries, sending to DLQ",
		zap.String("job_type", jobType),
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err))
	if nackErr := msg.Nack(false); nackErr != nil {
		r.logger.Warn("failed to nack job to DLQ", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
