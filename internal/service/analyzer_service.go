package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"resilience-llm/internal/domain"
	"resilience-llm/internal/llm"
)

// CrisisResources es el bloque literal de contactos de emergencia. Se anexa
// incondicionalmente a TODA respuesta de la ruta de crisis, incluso cuando el
// modelo fallo: este texto no participa del fallback ladder.
const CrisisResources = "\n\nIf you're in crisis or need immediate support, please reach out now:\n" +
	"- 988 Suicide & Crisis Lifeline: call or text 988\n" +
	"- Crisis Text Line: text HOME to 741741\n" +
	"- International crisis centres: https://www.iasp.info/resources/Crisis_Centres/\n" +
	"You don't have to face this alone."

// defaultSupportMessage es el mensaje de apoyo generico de respaldo.
const defaultSupportMessage = "I'm here to support you. Take things one step at a time."

// defaultReasoning se usa cuando la explicacion del modelo no esta disponible.
const defaultReasoning = "Assessment based on the emotional signals present in your message."

// AnalyzerService envuelve las cinco operaciones contra el servicio
// generativo. Cada operacion comparte la misma politica de reintentos y tiene
// su propio fallback determinista.
//
// Politica de fallback elegida: heuristicas locales. Agotados los reintentos,
// el clasificador por reglas produce datos utilizables en lugar de sentinelas
// error_api_failed; la decision aplica uniforme a las cinco operaciones.
type AnalyzerService struct {
	llmClient  llm.LLMClient
	retry      llm.RetryPolicy
	classifier RuleClassifier
	parser     LLMResponseParser
	engine     *RecommendationEngine
	logger     *zap.Logger
}

func NewAnalyzerService(
	llmClient llm.LLMClient,
	retry llm.RetryPolicy,
	engine *RecommendationEngine,
	logger *zap.Logger,
) *AnalyzerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = NewRecommendationEngine(nil)
	}
	return &AnalyzerService{
		llmClient: llmClient,
		retry:     retry,
		engine:    engine,
		logger:    logger,
	}
}

// AnalyzeEmotion infiere sentimiento, estres y emociones del texto,
// opcionalmente condicionado por contexto historico y patrones.
func (s *AnalyzerService) AnalyzeEmotion(
	ctx context.Context,
	text string,
	memoryContext []domain.Interaction,
	pattern *domain.EmotionalPattern,
) domain.AnalysisResult {
	prompt := s.buildAnalysisPrompt(text, memoryContext, pattern)

	var result domain.AnalysisResult
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := s.parser.ParseAnalysis(raw)
		if err != nil {
			// Los errores de parseo se tratan como transitorios.
			return fmt.Errorf("%w: %v", llm.ErrEmptyResponse, err)
		}
		result = parsed
		return nil
	})
	if err != nil {
		s.logger.Warn("emotion analysis degraded to rule classifier", zap.Error(err))
		return s.classifier.Classify(text)
	}
	return result
}

// AssessCrisisLevel devuelve un puntaje [0,1] de severidad de crisis.
// El escaneo local de frases explicitas pone un piso de 0.9 al puntaje,
// este disponible o no el modelo: preferimos una ruta de crisis de mas
// que una de menos.
func (s *AnalyzerService) AssessCrisisLevel(
	ctx context.Context,
	text string,
	analysis domain.AnalysisResult,
	pattern *domain.EmotionalPattern,
) float64 {
	explicit := s.classifier.HasExplicitCrisis(text)

	prompt := s.buildCrisisPrompt(text, analysis, pattern)

	var score float64
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := s.parser.ParseCrisisScore(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", llm.ErrEmptyResponse, err)
		}
		score = parsed
		return nil
	})
	if err != nil {
		s.logger.Warn("crisis assessment failed, using conservative score", zap.Error(err))
		if explicit {
			return 0.9
		}
		return 0.5
	}

	if explicit && score < 0.9 {
		score = 0.9
	}
	return score
}

// GenerateReasoning produce una explicacion corta del analisis. Best effort:
// nunca bloquea el pipeline, ante fallo devuelve un placeholder generico.
func (s *AnalyzerService) GenerateReasoning(
	ctx context.Context,
	text string,
	analysis domain.AnalysisResult,
	pattern *domain.EmotionalPattern,
) string {
	prompt := s.buildReasoningPrompt(text, analysis, pattern)

	var reasoning string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(CleanLLMJSONResponse(raw))
		if raw == "" {
			return llm.ErrEmptyResponse
		}
		reasoning = raw
		return nil
	})
	if err != nil {
		s.logger.Warn("reasoning generation failed", zap.Error(err))
		return defaultReasoning
	}
	return reasoning
}

// GenerateRecommendation pide al modelo elegir una clave del catalogo cerrado
// y la valida. Escalera de fallback: modelo -> selector por reglas ->
// breathing_exercise anotada con la causa.
func (s *AnalyzerService) GenerateRecommendation(
	ctx context.Context,
	analysis domain.AnalysisResult,
	pattern domain.EmotionalPattern,
	recent []domain.StrategyKey,
) domain.Recommendation {
	prompt := s.buildRecommendationPrompt(analysis, pattern)

	var (
		key       domain.StrategyKey
		reasoning string
	)
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsedKey, parsedReasoning, err := s.parser.ParseRecommendationKey(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", llm.ErrEmptyResponse, err)
		}
		key, reasoning = parsedKey, parsedReasoning
		return nil
	})

	if err != nil || key == domain.StrategyCrisisSupport {
		// crisis_support esta reservada para la ruta de crisis del workflow.
		s.logger.Warn("recommendation degraded to rule selector", zap.Error(err))
		selected := s.engine.Select(analysis.Sentiment, analysis.StressLevel, analysis.Emotions)
		selected = s.engine.Personalize(selected, analysis.StressLevel, pattern, recent)
		rec := s.engine.Strategy(selected)
		rec.Reasoning = "Selected by rule-based matching of your current emotional state"
		return rec
	}

	personalized := s.engine.Personalize(key, analysis.StressLevel, pattern, recent)
	rec := s.engine.Strategy(personalized)
	rec.Reasoning = reasoning
	return rec
}

// GenerateSupportiveMessage redacta la respuesta empatica para la ruta normal.
func (s *AnalyzerService) GenerateSupportiveMessage(
	ctx context.Context,
	text string,
	analysis domain.AnalysisResult,
) string {
	prompt := s.buildSupportPrompt(text, analysis)

	var message string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return llm.ErrEmptyResponse
		}
		message = raw
		return nil
	})
	if err != nil {
		s.logger.Warn("supportive message generation failed", zap.Error(err))
		return defaultSupportMessage
	}
	return message
}

// GenerateCrisisResponse redacta la respuesta de crisis. Pase lo que pase,
// el bloque literal de recursos se anexa siempre.
func (s *AnalyzerService) GenerateCrisisResponse(ctx context.Context, text string) string {
	prompt := s.buildCrisisResponsePrompt(text)

	var message string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.llmClient.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return llm.ErrEmptyResponse
		}
		message = raw
		return nil
	})
	if err != nil {
		s.logger.Warn("crisis message generation failed, using static message", zap.Error(err))
		message = "What you're feeling right now is serious, and I'm glad you reached out. " +
			"You deserve immediate, human support."
	}
	return message + CrisisResources
}

func (s *AnalyzerService) buildAnalysisPrompt(text string, memoryContext []domain.Interaction, pattern *domain.EmotionalPattern) string {
	var b strings.Builder
	b.WriteString(`You are an empathetic mental wellness AI assistant. Analyze the following user input for emotional state and stress level.

User Input: "` + text + `"
`)
	if ctxBlock := formatMemoryContext(memoryContext); ctxBlock != "" {
		b.WriteString("\nRelevant history for this user:\n" + ctxBlock + "\n")
	}
	if pattern != nil && pattern.TotalInteractions > 0 {
		b.WriteString("\n" + formatPattern(*pattern) + "\n")
	}
	b.WriteString(`
Provide your analysis in EXACTLY this format (one line each, no extra text):
SENTIMENT: [positive/neutral/negative/deeply_negative]
STRESS_LEVEL: [low/medium/high/crisis]
EMOTIONS: [list 2-4 specific emotions separated by commas, e.g., anxiety, overwhelm, sadness]
CONFIDENCE: [0.0-1.0]

Be precise and concise. Only output the four lines above, nothing else.`)
	return b.String()
}

func (s *AnalyzerService) buildCrisisPrompt(text string, analysis domain.AnalysisResult, pattern *domain.EmotionalPattern) string {
	var b strings.Builder
	b.WriteString(`You are a mental health risk assessor. Estimate the severity of self-harm or suicide risk in this message.

Message: "` + text + `"
Detected sentiment: ` + string(analysis.Sentiment) + `
Detected stress level: ` + string(analysis.StressLevel) + `
Detected emotions: ` + strings.Join(analysis.Emotions, ", ") + "\n")
	if pattern != nil && pattern.CrisisFrequency > 0 {
		b.WriteString(fmt.Sprintf("This user had %d prior crisis-level interactions.\n", pattern.CrisisFrequency))
	}
	b.WriteString(`
Respond with ONLY a single number between 0.0 (no risk) and 1.0 (imminent risk). Nothing else.`)
	return b.String()
}

func (s *AnalyzerService) buildReasoningPrompt(text string, analysis domain.AnalysisResult, pattern *domain.EmotionalPattern) string {
	var b strings.Builder
	b.WriteString(`Explain in 1-2 plain sentences, addressed to the user, why their message suggests ` +
		string(analysis.Sentiment) + ` sentiment with ` + string(analysis.StressLevel) + ` stress.

Message: "` + text + `"
Emotions: ` + strings.Join(analysis.Emotions, ", ") + "\n")
	if pattern != nil && len(pattern.RecurringEmotions) > 0 {
		b.WriteString("Recurring emotions in their history: " + strings.Join(pattern.RecurringEmotions, ", ") + "\n")
	}
	b.WriteString("\nDo not give medical advice. Output only the explanation.")
	return b.String()
}

func (s *AnalyzerService) buildRecommendationPrompt(analysis domain.AnalysisResult, pattern domain.EmotionalPattern) string {
	keys := make([]string, 0, len(domain.StrategyKeys))
	for _, k := range domain.StrategyKeys {
		keys = append(keys, string(k))
	}

	var b strings.Builder
	b.WriteString(`You are a wellness coach choosing ONE coping strategy for a user.

User state:
- Sentiment: ` + string(analysis.Sentiment) + `
- Stress level: ` + string(analysis.StressLevel) + `
- Emotions: ` + strings.Join(analysis.Emotions, ", ") + "\n")
	if pattern.TotalInteractions > 0 {
		b.WriteString("- " + formatPattern(pattern) + "\n")
	}
	b.WriteString(`
Choose exactly one strategy type from this closed list:
` + strings.Join(keys, ", ") + `

Respond with ONLY a JSON object: {"type": "<strategy>", "reasoning": "<one short sentence>"}`)
	return b.String()
}

func (s *AnalyzerService) buildSupportPrompt(text string, analysis domain.AnalysisResult) string {
	return `You are a compassionate mental wellness coach. The user shared: "` + text + `"

Analysis shows:
- Sentiment: ` + string(analysis.Sentiment) + `
- Stress Level: ` + string(analysis.StressLevel) + `
- Emotions: ` + strings.Join(analysis.Emotions, ", ") + `

Write ONE SHORT supportive message (2-3 sentences max) that:
1. Validates their feelings
2. Offers gentle encouragement
3. Is warm and empathetic

Keep it conversational and natural. Do not give medical advice.`
}

func (s *AnalyzerService) buildCrisisResponsePrompt(text string) string {
	return `A user may be in a mental health crisis. They shared: "` + text + `"

Write a SHORT (3-4 sentences) compassionate response that:
1. Takes their pain seriously without judgment
2. Tells them they are not alone and help exists
3. Gently encourages contacting a crisis line or a trusted person right now

Do not minimize, do not lecture, do not give medical advice.`
}

func formatMemoryContext(interactions []domain.Interaction) string {
	if len(interactions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(interactions))
	for _, it := range interactions {
		lines = append(lines, fmt.Sprintf("- [%s] %s (sentiment=%s, stress=%s)",
			it.Timestamp.Format("2006-01-02"), it.UserMessage, it.Analysis.Sentiment, it.Analysis.StressLevel))
	}
	return strings.Join(lines, "\n")
}

func formatPattern(p domain.EmotionalPattern) string {
	return fmt.Sprintf("History pattern: recurring emotions [%s], average stress %s, %d crisis events over %d interactions",
		strings.Join(p.RecurringEmotions, ", "), p.AvgStress, p.CrisisFrequency, p.TotalInteractions)
}
