package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ymori/dinnerbot/internal/config"
	"github.com/ymori/dinnerbot/internal/queue"
)

// NewDailyPushCmd creates the daily-push command. It is intended to be run
// from a scheduler (cron or similar); the worker fans the job out into one
// recommendation job per invited user.
func NewDailyPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily-push",
		Short: "Enqueue the daily recommendation push",
		Long:  "Enqueue a fan-out job that pushes a dinner recommendation to every invited user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close RabbitMQ connection: %v\n", err)
				}
			}()

			job := queue.NewDailyPushJob()
			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				return fmt.Errorf("failed to enqueue daily push job: %w", err)
			}

			fmt.Printf("✓ Enqueued daily push job %s\n", job.ID)
			return nil
		},
	}

	return cmd
}
