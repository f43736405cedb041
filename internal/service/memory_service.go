package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"resilience-llm/internal/domain"
	"resilience-llm/internal/llm"
	"resilience-llm/internal/repository"
)

// MemoryService es el memory store de largo plazo: log append-only de
// interacciones con recuperacion por similitud y resumen de patrones.
// Todos los fallos se degradan: perder historial es menos grave que
// fallar un request de apoyo.
type MemoryService struct {
	repo     repository.InteractionRepository
	embedder llm.Embedder
	logger   *zap.Logger
	now      func() time.Time
}

func NewMemoryService(repo repository.InteractionRepository, embedder llm.Embedder, logger *zap.Logger) *MemoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryService{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StoreInteraction agrega un registro inmutable con id basado en timestamp y
// construye el blob desnormalizado para busqueda semantica. Devuelve el id
// generado; ante error devuelve cadena vacia sin propagar.
func (s *MemoryService) StoreInteraction(
	ctx context.Context,
	userID string,
	message string,
	analysis domain.AnalysisResult,
	recommendation domain.Recommendation,
	crisisScore float64,
) string {
	now := s.now()
	id := fmt.Sprintf("%s_%s", userID, now.Format(time.RFC3339Nano))

	document := buildDocument(message, analysis, recommendation, crisisScore, now)

	interaction := domain.Interaction{
		ID:          id,
		UserID:      userID,
		Timestamp:   now,
		UserMessage: message,
		Analysis:    analysis,
		Strategy:    recommendation.Type,
		CrisisScore: crisisScore,
		Document:    document,
		CreatedAt:   now,
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, document)
		if err != nil {
			s.logger.Warn("embedding failed, storing without vector", zap.Error(err), zap.String("user_id", userID))
		} else {
			interaction.Embedding = &vec
		}
	}

	if err := s.repo.Create(ctx, interaction); err != nil {
		s.logger.Warn("store interaction failed", zap.Error(err), zap.String("user_id", userID))
		return ""
	}
	return id
}

// RetrieveContext devuelve hasta k interacciones pasadas relevantes al
// mensaje actual, rankeadas por similitud semantica. Cualquier fallo
// devuelve lista vacia, nunca error.
func (s *MemoryService) RetrieveContext(ctx context.Context, userID, query string, k int) []domain.Interaction {
	if k <= 0 {
		k = 3
	}
	if strings.TrimSpace(userID) == "" {
		return nil
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err == nil {
			results, err := s.repo.SearchByUser(ctx, userID, vec, k)
			if err == nil {
				return results
			}
			s.logger.Warn("similarity search failed, falling back to recency", zap.Error(err), zap.String("user_id", userID))
		} else {
			s.logger.Warn("query embedding failed, falling back to recency", zap.Error(err), zap.String("user_id", userID))
		}
	}

	// Degradado: sin vector usamos los registros mas recientes.
	results, err := s.repo.ListRecent(ctx, userID, k)
	if err != nil {
		s.logger.Warn("recent retrieval failed", zap.Error(err), zap.String("user_id", userID))
		return nil
	}
	return results
}

// GetEmotionalPatterns recalcula el patron emocional sobre los ultimos limit
// registros. No se cachea: se deriva en cada request.
func (s *MemoryService) GetEmotionalPatterns(ctx context.Context, userID string, limit int) domain.EmotionalPattern {
	if limit <= 0 {
		limit = 10
	}

	interactions, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		s.logger.Warn("pattern scan failed", zap.Error(err), zap.String("user_id", userID))
		return domain.EmptyPattern()
	}
	if len(interactions) == 0 {
		return domain.EmotionalPattern{RecurringEmotions: []string{}, AvgStress: domain.StressMedium}
	}

	return SummarizePatterns(interactions)
}

// SummarizePatterns agrega un conjunto de interacciones en un patron:
// top-3 emociones por frecuencia (empates por orden de insercion), promedio
// ordinal de estres re-bucketizado y conteo de eventos de crisis (>0.7).
func SummarizePatterns(interactions []domain.Interaction) domain.EmotionalPattern {
	counts := make(map[string]int)
	var order []string
	stressSum := 0
	crisisCount := 0

	for _, it := range interactions {
		for _, emotion := range it.Analysis.Emotions {
			if _, seen := counts[emotion]; !seen {
				order = append(order, emotion)
			}
			counts[emotion]++
		}

		ordinal, ok := domain.StressOrdinal[it.Analysis.StressLevel]
		if !ok {
			ordinal = 2
		}
		stressSum += ordinal

		if it.CrisisScore > 0.7 {
			crisisCount++
		}
	}

	// Orden estable: frecuencia descendente, empates por insercion.
	top := make([]string, len(order))
	copy(top, order)
	for i := 1; i < len(top); i++ {
		for j := i; j > 0 && counts[top[j]] > counts[top[j-1]]; j-- {
			top[j], top[j-1] = top[j-1], top[j]
		}
	}
	if len(top) > 3 {
		top = top[:3]
	}

	avg := float64(stressSum) / float64(len(interactions))
	avgStress := domain.StressHigh
	switch {
	case avg < 1.5:
		avgStress = domain.StressLow
	case avg < 2.5:
		avgStress = domain.StressMedium
	}

	return domain.EmotionalPattern{
		RecurringEmotions: top,
		AvgStress:         avgStress,
		CrisisFrequency:   crisisCount,
		TotalInteractions: len(interactions),
	}
}

// RecentStrategies devuelve los tipos de estrategia de las ultimas n
// interacciones, mas recientes primero, para la capa de personalizacion.
func (s *MemoryService) RecentStrategies(ctx context.Context, userID string, n int) []domain.StrategyKey {
	if n <= 0 {
		n = 3
	}
	interactions, err := s.repo.ListRecent(ctx, userID, n)
	if err != nil {
		return nil
	}
	keys := make([]domain.StrategyKey, 0, len(interactions))
	for _, it := range interactions {
		if it.Strategy != "" {
			keys = append(keys, it.Strategy)
		}
	}
	return keys
}

// ClearUserHistory borra todo el historial de un usuario. Devuelve false
// cuando no habia nada que borrar, lo que hace la operacion idempotente.
func (s *MemoryService) ClearUserHistory(ctx context.Context, userID string) bool {
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("clear history failed", zap.Error(err), zap.String("user_id", userID))
		return false
	}
	return deleted > 0
}

func buildDocument(message string, analysis domain.AnalysisResult, rec domain.Recommendation, crisisScore float64, ts time.Time) string {
	return strings.Join([]string{
		"User Message: " + message,
		"Emotional State: " + string(analysis.Sentiment),
		"Stress Level: " + string(analysis.StressLevel),
		"Emotions: " + strings.Join(analysis.Emotions, ", "),
		fmt.Sprintf("Crisis Severity: %.2f", crisisScore),
		"Recommended Strategy: " + string(rec.Type),
		"Timestamp: " + ts.Format(time.RFC3339),
	}, "\n")
}
