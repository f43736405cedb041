package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"resilience-llm/internal/config"
	"resilience-llm/internal/db"
	"resilience-llm/internal/domain"
	"resilience-llm/internal/llm"
	"resilience-llm/internal/repository"
	"resilience-llm/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
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

	analyzer := service.NewAnalyzerService(llmClient, retry, nil, logger)
	memory := service.NewMemoryService(interactionRepo, embedder, logger)
	workflow := service.NewResilienceWorkflow(analyzer, memory, logger)

	fmt.Print("Usuario (enter para anonimo): ")
	userID, _ := reader.ReadString('\n')
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "cli_user"
	}

	fmt.Println("---- Resilience Coach (escribe 'salir' para terminar) ----")
	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("leer input: %v", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			fmt.Println("Cuidate. Hasta pronto.")
			return
		}

		result := workflow.Process(ctx, text, domain.RequestMetadata{
			UserID:   userID,
			Language: "en",
		})

		fmt.Printf("\nCoach > %s\n", result.Message)
		fmt.Printf("  [%s | estres: %s | emociones: %s]\n",
			result.Analysis.Sentiment,
			result.Analysis.StressLevel,
			strings.Join(result.Analysis.Emotions, ", "),
		)
		fmt.Printf("  Estrategia sugerida: %s\n", result.Recommendation.Type)
		for i, step := range result.Recommendation.Steps {
			fmt.Printf("    %d. %s\n", i+1, step)
		}
		fmt.Println()
	}
}
