package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"resilience-llm/internal/config"
	"resilience-llm/internal/db"
	apihttp "resilience-llm/internal/http"
	"resilience-llm/internal/llm"
	"resilience-llm/internal/repository"
	"resilience-llm/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	interactionRepo := repository.NewPgInteractionRepository(pool)

	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, llmTimeout, zap.NewStdLog(logger))
	embedder := llm.NewHTTPEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, llmTimeout)

	retry := llm.RetryPolicy{
		MaxAttempts: cfg.LLMRetryAttempts,
		BaseDelay:   time.Duration(cfg.LLMRetryDelaySeconds) * time.Second,
		Retryable:   llm.IsRetryable,
	}

	// El limitador local es el default; con Redis disponible pasa a ser
	// distribuido y sobrevive reinicios del proceso.
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	var limiter service.RateLimiter = service.NewSlidingWindowLimiter(window, cfg.RateLimitMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, window, cfg.RateLimitMax)
		}
		cancel()
	}

	engine := service.NewRecommendationEngine(nil)
	analyzer := service.NewAnalyzerService(llmClient, retry, engine, logger)
	memory := service.NewMemoryService(interactionRepo, embedder, logger)
	workflow := service.NewResilienceWorkflow(analyzer, memory, logger)

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.AdminKeyHash, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	resilienceHandler := apihttp.NewResilienceHandler(logger, workflow, limiter)
	memoryHandler := apihttp.NewMemoryHandler(logger, memory, jwtSvc)
	router := apihttp.NewRouter(logger, resilienceHandler, memoryHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
