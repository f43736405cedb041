package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"resilience-llm/internal/domain"
	"resilience-llm/internal/llm"
)

type fakeInteractionRepo struct {
	items     []domain.Interaction
	createErr error
	searchErr error
	listErr   error
	deleteErr error
}

func (f *fakeInteractionRepo) Create(_ context.Context, interaction domain.Interaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	// La columna vector real rechaza vectores de cero dimensiones.
	if interaction.Embedding != nil && len(interaction.Embedding.Slice()) == 0 {
		return errors.New("vector must have at least 1 dimension")
	}
	f.items = append(f.items, interaction)
	return nil
}

func (f *fakeInteractionRepo) SearchByUser(_ context.Context, userID string, _ pgvector.Vector, k int) ([]domain.Interaction, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.byUser(userID, k), nil
}

func (f *fakeInteractionRepo) ListRecent(_ context.Context, userID string, limit int) ([]domain.Interaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// Mas recientes primero, como el repo real.
	matches := f.byUser(userID, len(f.items))
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *fakeInteractionRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []domain.Interaction
	var deleted int64
	for _, it := range f.items {
		if it.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, it)
	}
	f.items = kept
	return deleted, nil
}

func (f *fakeInteractionRepo) byUser(userID string, limit int) []domain.Interaction {
	var matches []domain.Interaction
	for _, it := range f.items {
		if it.UserID == userID {
			matches = append(matches, it)
		}
		if len(matches) == limit {
			break
		}
	}
	return matches
}

func newTestMemory(repo *fakeInteractionRepo) *MemoryService {
	svc := NewMemoryService(repo, &llm.MockEmbedder{}, nil)
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc
}

func TestStoreInteraction_BuildsRecordAndDocument(t *testing.T) {
	repo := &fakeInteractionRepo{}
	svc := newTestMemory(repo)

	analysis := domain.AnalysisResult{
		Sentiment:   domain.SentimentNegative,
		StressLevel: domain.StressHigh,
		Emotions:    []string{"anxiety"},
		Confidence:  0.8,
	}
	rec := domain.Recommendation{Type: domain.StrategyBreathing}

	id := svc.StoreInteraction(context.Background(), "u1", "exams tomorrow", analysis, rec, 0.25)
	if !strings.HasPrefix(id, "u1_") {
		t.Fatalf("expected timestamp-based id with user prefix, got %q", id)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected stored interaction, got %d", len(repo.items))
	}

	stored := repo.items[0]
	if stored.Strategy != domain.StrategyBreathing || stored.CrisisScore != 0.25 {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	for _, want := range []string{"User Message: exams tomorrow", "Stress Level: high", "Crisis Severity: 0.25", "Recommended Strategy: breathing_exercise"} {
		if !strings.Contains(stored.Document, want) {
			t.Fatalf("document missing %q:\n%s", want, stored.Document)
		}
	}
	if stored.Embedding == nil || len(stored.Embedding.Slice()) == 0 {
		t.Fatal("expected embedding attached")
	}
}

func TestStoreInteraction_EmbedFailureStillStores(t *testing.T) {
	repo := &fakeInteractionRepo{}
	svc := NewMemoryService(repo, &llm.MockEmbedder{Err: errors.New("down")}, nil)

	id := svc.StoreInteraction(context.Background(), "u1", "hola", domain.DefaultAnalysis(), domain.Recommendation{Type: domain.StrategyBreathing}, 0)
	if id == "" {
		t.Fatal("embedding failure must not block persistence")
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected stored interaction, got %d", len(repo.items))
	}
	if repo.items[0].Embedding != nil {
		t.Fatal("expected nil embedding so the row persists as NULL")
	}
}

func TestStoreInteraction_RepoErrorReturnsEmptyID(t *testing.T) {
	repo := &fakeInteractionRepo{createErr: errors.New("db down")}
	svc := newTestMemory(repo)

	id := svc.StoreInteraction(context.Background(), "u1", "hola", domain.DefaultAnalysis(), domain.Recommendation{Type: domain.StrategyBreathing}, 0)
	if id != "" {
		t.Fatalf("expected empty id on failure, got %q", id)
	}
}

func TestRetrieveContext_FallsBackToRecency(t *testing.T) {
	repo := &fakeInteractionRepo{
		items:     []domain.Interaction{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u1"}},
		searchErr: errors.New("vector index down"),
	}
	svc := newTestMemory(repo)

	got := svc.RetrieveContext(context.Background(), "u1", "query", 3)
	if len(got) != 2 {
		t.Fatalf("expected recency fallback with 2 items, got %d", len(got))
	}
	if got[0].ID != "b" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestRetrieveContext_TotalFailureReturnsEmpty(t *testing.T) {
	repo := &fakeInteractionRepo{
		searchErr: errors.New("down"),
		listErr:   errors.New("down"),
	}
	svc := newTestMemory(repo)

	if got := svc.RetrieveContext(context.Background(), "u1", "query", 3); got != nil {
		t.Fatalf("expected nil on total failure, got %v", got)
	}
}

func TestSummarizePatterns_FrequencyAndTies(t *testing.T) {
	mk := func(emotions []string, stress domain.StressLevel, crisis float64) domain.Interaction {
		return domain.Interaction{
			Analysis:    domain.AnalysisResult{Emotions: emotions, StressLevel: stress},
			CrisisScore: crisis,
		}
	}
	interactions := []domain.Interaction{
		mk([]string{"anxiety", "sadness"}, domain.StressHigh, 0.8),
		mk([]string{"sadness"}, domain.StressMedium, 0.2),
		mk([]string{"anxiety", "loneliness"}, domain.StressLow, 0.0),
	}

	pattern := SummarizePatterns(interactions)

	// anxiety y sadness empatan en 2; el empate respeta orden de insercion.
	want := []string{"anxiety", "sadness", "loneliness"}
	if len(pattern.RecurringEmotions) != 3 {
		t.Fatalf("expected 3 recurring emotions, got %v", pattern.RecurringEmotions)
	}
	for i, w := range want {
		if pattern.RecurringEmotions[i] != w {
			t.Fatalf("expected %v, got %v", want, pattern.RecurringEmotions)
		}
	}

	// Ordinales 3+2+1 = 6, promedio 2.0 -> medium.
	if pattern.AvgStress != domain.StressMedium {
		t.Fatalf("expected medium avg stress, got %s", pattern.AvgStress)
	}
	if pattern.CrisisFrequency != 1 {
		t.Fatalf("expected 1 crisis event, got %d", pattern.CrisisFrequency)
	}
	if pattern.TotalInteractions != 3 {
		t.Fatalf("expected 3 interactions, got %d", pattern.TotalInteractions)
	}
}

func TestSummarizePatterns_AvgBuckets(t *testing.T) {
	mk := func(stress domain.StressLevel) domain.Interaction {
		return domain.Interaction{Analysis: domain.AnalysisResult{StressLevel: stress, Emotions: []string{"x"}}}
	}

	low := SummarizePatterns([]domain.Interaction{mk(domain.StressLow), mk(domain.StressLow)})
	if low.AvgStress != domain.StressLow {
		t.Fatalf("expected low, got %s", low.AvgStress)
	}
	high := SummarizePatterns([]domain.Interaction{mk(domain.StressCrisis), mk(domain.StressHigh)})
	if high.AvgStress != domain.StressHigh {
		t.Fatalf("expected high, got %s", high.AvgStress)
	}
}

func TestGetEmotionalPatterns_EmptyHistory(t *testing.T) {
	svc := newTestMemory(&fakeInteractionRepo{})
	pattern := svc.GetEmotionalPatterns(context.Background(), "u1", 10)
	if len(pattern.RecurringEmotions) != 0 || pattern.TotalInteractions != 0 {
		t.Fatalf("expected empty pattern, got %+v", pattern)
	}
	if pattern.AvgStress != domain.StressMedium {
		t.Fatalf("expected medium default, got %s", pattern.AvgStress)
	}
}

func TestRecentStrategies_SkipsEmpty(t *testing.T) {
	repo := &fakeInteractionRepo{items: []domain.Interaction{
		{UserID: "u1", Strategy: domain.StrategyBreathing},
		{UserID: "u1"},
		{UserID: "u1", Strategy: domain.StrategyJournaling},
	}}
	svc := newTestMemory(repo)

	got := svc.RecentStrategies(context.Background(), "u1", 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 strategies, got %v", got)
	}
	if got[0] != domain.StrategyJournaling {
		t.Fatalf("expected newest first, got %v", got)
	}
}

func TestClearUserHistory_Idempotent(t *testing.T) {
	repo := &fakeInteractionRepo{items: []domain.Interaction{
		{UserID: "u1"}, {UserID: "u1"}, {UserID: "u2"},
	}}
	svc := newTestMemory(repo)

	if !svc.ClearUserHistory(context.Background(), "u1") {
		t.Fatal("first clear should report deletions")
	}
	if svc.ClearUserHistory(context.Background(), "u1") {
		t.Fatal("second clear should report nothing deleted")
	}
	if len(repo.items) != 1 || repo.items[0].UserID != "u2" {
		t.Fatalf("other users' history must survive: %+v", repo.items)
	}
}
