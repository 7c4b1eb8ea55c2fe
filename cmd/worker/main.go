package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ymori/dinnerbot/internal/config"
	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/logger"
	"github.com/ymori/dinnerbot/internal/queue"
	"github.com/ymori/dinnerbot/internal/recommend"
	"github.com/ymori/dinnerbot/internal/services/ai"
	"github.com/ymori/dinnerbot/internal/services/line"
	"github.com/ymori/dinnerbot/internal/services/weather"
	"github.com/ymori/dinnerbot/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	mealRepo := database.NewMealRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	dishRepo := database.NewDishRepository(db)

	// Initialize Redis for the weather cache
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Invalid Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Create AI provider with logger
	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Fatal("Failed to create AI provider", zap.Error(err))
	}

	zapLogger.Info("Initialized AI provider",
		zap.String("provider", cfg.AIProvider),
		zap.String("model", cfg.AIModel),
	)

	// Messaging client for recommendation pushes
	tokens, err := lineTokenSource(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to configure channel token source", zap.Error(err))
	}
	lineClient := line.NewClient(tokens, zapLogger)

	// Dish tables drive keyword classification and fallback batches
	tables, err := loadTables(cfg.DishTablesPath)
	if err != nil {
		zapLogger.Fatal("Failed to load dish tables", zap.Error(err))
	}

	weatherClient := weather.NewClient(cfg.OpenWeatherKey, redisClient, zapLogger)

	// Create the recommendation worker
	recommender := workers.NewRecommender(
		recommend.NewClassifier(tables),
		recommend.NewSessionManager(sessionRepo, dishRepo, zapLogger),
		recommend.NewAvoidanceBuilder(dishRepo, zapLogger),
		recommend.NewOrchestrator(aiProvider, recommend.NewExtractor(aiProvider, zapLogger), tables, zapLogger),
		userRepo,
		mealRepo,
		dishRepo,
		weatherClient,
		lineClient,
		jobQueue,
		parseCoordinate(cfg.WeatherLat, 35.6762),
		parseCoordinate(cfg.WeatherLon, 139.6503),
		zapLogger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("Message channel closed")
					return
				}

				// Process job
				if err := recommender.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("Failed to process job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("Queue error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("Worker stopped")
}

// createAIProvider selects the completion provider. The openai provider is
// constructed directly so it gets logger support; anything else goes through
// the registry.
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.CompletionProvider, error) {
	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "openai"
	}

	if providerType == "openai" {
		return ai.NewOpenAIProviderWithLogger(
			cfg.OpenAIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			logger,
			debugMode,
		), nil
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry)

	providerConfig := map[string]string{
		"api_key":  cfg.OpenAIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	}
	return registry.GetProvider(providerType, providerConfig)
}

func lineTokenSource(cfg *config.Config) (oauth2.TokenSource, error) {
	if cfg.LineChannelToken != "" {
		return line.StaticTokenSource(cfg.LineChannelToken), nil
	}
	return line.NewAssertionTokenSource(cfg.LineChannelID, cfg.LineChannelKeyID, cfg.LineChannelKey)
}

func loadTables(path string) (*recommend.Tables, error) {
	if path == "" {
		return recommend.DefaultTables(), nil
	}
	return recommend.LoadTables(path)
}

func parseCoordinate(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}
