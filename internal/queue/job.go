package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeRecommendation generates and pushes one recommendation batch
	JobTypeRecommendation JobType = "recommendation"
	// JobTypeDailyPush fans out recommendation jobs to all invited users
	JobTypeDailyPush JobType = "daily_push"
)

// Job represents a job in the queue
type Job struct {
	ID     uuid.UUID `json:"id"`
	Type   JobType   `json:"type"`
	UserID string    `json:"user_id,omitempty"` // platform user id, empty for fan-out jobs
	// Message is the user's original request text, carried so the worker
	// can classify intent without re-reading the webhook payload.
	Message    string         `json:"message,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`   // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewRecommendationJob creates a job that generates recommendations for one
// user, driven by their request message.
func NewRecommendationJob(userID, message string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeRecommendation,
		UserID:     userID,
		Message:    message,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewDailyPushJob creates the fan-out job for the scheduled daily push.
func NewDailyPushJob() *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeDailyPush,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 1,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
