package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"resilience-llm/internal/domain"
)

// crisisThreshold decide la bifurcacion del workflow. Solo la etapa
// detect_crisis produce el puntaje; ninguna otra lo altera.
const crisisThreshold = 0.7

// stage identifica cada estado de la maquina del workflow.
type stage int

const (
	stageRetrieveMemory stage = iota
	stageAnalyze
	stageDetectCrisis
	stageCrisisResponse
	stageReason
	stageRecommend
	stageSupport
	stageStoreMemory
	stageFormat
	stageEnd
)

func (s stage) String() string {
	switch s {
	case stageRetrieveMemory:
		return "retrieve_memory"
	case stageAnalyze:
		return "analyze"
	case stageDetectCrisis:
		return "detect_crisis"
	case stageCrisisResponse:
		return "crisis_response"
	case stageReason:
		return "reason"
	case stageRecommend:
		return "recommend"
	case stageSupport:
		return "support"
	case stageStoreMemory:
		return "store_memory"
	case stageFormat:
		return "format"
	default:
		return "end"
	}
}

// ResilienceWorkflow orquesta el pipeline por request como una maquina de
// estados explicita. Una sola bifurcacion condicional (crisis vs. normal);
// todas las demas aristas son fijas. Cada etapa captura sus propios fallos
// y deja defaults seguros, de modo que el grafo siempre llega a END.
type ResilienceWorkflow struct {
	analyzer *AnalyzerService
	memory   *MemoryService
	logger   *zap.Logger
}

func NewResilienceWorkflow(analyzer *AnalyzerService, memory *MemoryService, logger *zap.Logger) *ResilienceWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilienceWorkflow{
		analyzer: analyzer,
		memory:   memory,
		logger:   logger,
	}
}

// next es la funcion de transicion. La unica decision es la bifurcacion
// posterior a detect_crisis, funcion pura de CrisisScore.
func (w *ResilienceWorkflow) next(current stage, state *domain.RequestState) stage {
	switch current {
	case stageRetrieveMemory:
		return stageAnalyze
	case stageAnalyze:
		return stageDetectCrisis
	case stageDetectCrisis:
		if state.CrisisScore > crisisThreshold {
			return stageCrisisResponse
		}
		return stageReason
	case stageCrisisResponse:
		return stageStoreMemory
	case stageReason:
		return stageRecommend
	case stageRecommend:
		return stageSupport
	case stageSupport:
		return stageStoreMemory
	case stageStoreMemory:
		return stageFormat
	default:
		return stageEnd
	}
}

// Process ejecuta el pipeline completo para un mensaje. Nunca entrega un
// panic al llamador: un fallo de construccion se convierte en la respuesta
// terminal de error con mensaje generico.
func (w *ResilienceWorkflow) Process(ctx context.Context, inputText string, metadata domain.RequestMetadata) (response domain.Response) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("workflow panic", zap.Any("panic", r))
			response = w.errorResponse()
		}
	}()

	state := &domain.RequestState{
		InputText: inputText,
		Metadata:  metadata,
		UserID:    metadata.UserID,
		Pattern:   domain.EmptyPattern(),
		Analysis:  domain.DefaultAnalysis(),
		Status:    domain.StatusProcessing,
	}
	if strings.TrimSpace(state.UserID) == "" {
		state.UserID = "anonymous"
	}

	w.logger.Info("workflow started",
		zap.String("user_id", state.UserID),
		zap.Int("input_len", len(inputText)),
	)

	for current := stageRetrieveMemory; current != stageEnd; current = w.next(current, state) {
		w.runStage(ctx, current, state)
	}

	return w.assemble(state)
}

// runStage ejecuta una etapa. Las etapas no devuelven error: cada una fija
// su fallback documentado internamente (los servicios ya degradan solos).
func (w *ResilienceWorkflow) runStage(ctx context.Context, current stage, state *domain.RequestState) {
	switch current {
	case stageRetrieveMemory:
		state.MemoryContext = w.memory.RetrieveContext(ctx, state.UserID, state.InputText, 3)
		state.Pattern = w.memory.GetEmotionalPatterns(ctx, state.UserID, 10)

	case stageAnalyze:
		state.Analysis = w.analyzer.AnalyzeEmotion(ctx, state.InputText, state.MemoryContext, &state.Pattern)

	case stageDetectCrisis:
		state.CrisisScore = w.analyzer.AssessCrisisLevel(ctx, state.InputText, state.Analysis, &state.Pattern)

	case stageCrisisResponse:
		// Ruta de crisis: estrategia reservada + recursos literales siempre.
		rec := strategyCatalog[domain.StrategyCrisisSupport]
		rec.Reasoning = "Crisis indicators detected; immediate support resources provided"
		state.Recommendation = rec
		state.Message = w.analyzer.GenerateCrisisResponse(ctx, state.InputText)
		state.Reasoning = rec.Reasoning

	case stageReason:
		state.Reasoning = w.analyzer.GenerateReasoning(ctx, state.InputText, state.Analysis, &state.Pattern)

	case stageRecommend:
		recent := w.memory.RecentStrategies(ctx, state.UserID, 3)
		state.Recommendation = w.analyzer.GenerateRecommendation(ctx, state.Analysis, state.Pattern, recent)

	case stageSupport:
		state.Message = w.analyzer.GenerateSupportiveMessage(ctx, state.InputText, state.Analysis)

	case stageStoreMemory:
		// No fatal: perder el registro no bloquea la respuesta.
		state.StoredID = w.memory.StoreInteraction(ctx, state.UserID, state.InputText, state.Analysis, state.Recommendation, state.CrisisScore)
		if state.StoredID == "" {
			w.logger.Warn("interaction not persisted", zap.String("user_id", state.UserID))
		}

	case stageFormat:
		// La respuesta externa omite el nombre interno de la estrategia.
		state.Recommendation.Name = ""
		if strings.TrimSpace(state.Message) == "" {
			state.Message = defaultSupportMessage
		}
		state.Status = domain.StatusSuccess
	}

	w.logger.Debug("stage completed", zap.String("stage", current.String()))
}

func (w *ResilienceWorkflow) assemble(state *domain.RequestState) domain.Response {
	crisisScore := state.CrisisScore
	confidence := state.Analysis.Confidence
	return domain.Response{
		Agent:          domain.AgentName,
		Status:         state.Status,
		Analysis:       state.Analysis,
		Recommendation: state.Recommendation,
		Message:        state.Message,
		CrisisScore:    &crisisScore,
		Confidence:     &confidence,
		Reasoning:      state.Reasoning,
	}
}

// errorResponse es la respuesta terminal cuando la construccion del estado
// fallo antes de arrancar el grafo. No filtra detalles internos.
func (w *ResilienceWorkflow) errorResponse() domain.Response {
	return domain.Response{
		Agent:  domain.AgentName,
		Status: domain.StatusError,
		Analysis: domain.AnalysisResult{
			Sentiment:   domain.SentimentNeutral,
			StressLevel: domain.StressMedium,
			Emotions:    []string{"uncertain"},
		},
		Recommendation: domain.Recommendation{
			Type:  domain.StrategyBreathing,
			Steps: []string{"Take slow, deep breaths"},
		},
		Message: "An unexpected error occurred. Please try again later.",
	}
}
