package domain

// Sentiment clasifica la valencia emocional de un mensaje.
type Sentiment string

const (
	SentimentPositive       Sentiment = "positive"
	SentimentNeutral        Sentiment = "neutral"
	SentimentNegative       Sentiment = "negative"
	SentimentDeeplyNegative Sentiment = "deeply_negative"
	// Sentinelas de error: existen para validar respuestas historicas,
	// el analizador nunca los fabrica (politica de fallback local).
	SentimentErrorQuota Sentiment = "error_quota_exceeded"
	SentimentErrorAPI   Sentiment = "error_api_failed"
)

// StressLevel es la escala categorica de estres percibido.
type StressLevel string

const (
	StressLow            StressLevel = "low"
	StressMedium         StressLevel = "medium"
	StressHigh           StressLevel = "high"
	StressCrisis         StressLevel = "crisis"
	StressAPIUnavailable StressLevel = "api_unavailable"
)

// ValidSentiments enumera los valores aceptados en respuestas.
var ValidSentiments = map[Sentiment]struct{}{
	SentimentPositive:       {},
	SentimentNeutral:        {},
	SentimentNegative:       {},
	SentimentDeeplyNegative: {},
	SentimentErrorQuota:     {},
	SentimentErrorAPI:       {},
}

// ValidStressLevels enumera los niveles de estres aceptados.
var ValidStressLevels = map[StressLevel]struct{}{
	StressLow:            {},
	StressMedium:         {},
	StressHigh:           {},
	StressCrisis:         {},
	StressAPIUnavailable: {},
}

// StressOrdinal mapea niveles de estres a una escala numerica para promediar.
var StressOrdinal = map[StressLevel]int{
	StressLow:    1,
	StressMedium: 2,
	StressHigh:   3,
	StressCrisis: 4,
}

// AnalysisResult es el resultado inmutable del analisis emocional de un mensaje.
// Lo produce una sola vez la etapa de analisis y lo consumen todas las etapas
// posteriores sin modificarlo.
type AnalysisResult struct {
	Sentiment   Sentiment   `json:"sentiment"`
	StressLevel StressLevel `json:"stress_level"`
	Emotions    []string    `json:"emotions"`
	Confidence  float64     `json:"confidence"`
	Reasoning   string      `json:"reasoning,omitempty"`
}

// DefaultAnalysis devuelve el analisis neutro documentado como fallback.
func DefaultAnalysis() AnalysisResult {
	return AnalysisResult{
		Sentiment:   SentimentNeutral,
		StressLevel: StressMedium,
		Emotions:    []string{"uncertain"},
		Confidence:  0.3,
	}
}

// EmotionalPattern resume el historial emocional de un usuario.
// Se recalcula en cada request a partir del memory store, nunca se cachea.
type EmotionalPattern struct {
	RecurringEmotions []string    `json:"recurring_emotions"`
	AvgStress         StressLevel `json:"avg_stress"`
	CrisisFrequency   int         `json:"crisis_frequency"`
	TotalInteractions int         `json:"total_interactions"`
}

// EmptyPattern es el patron por defecto cuando no hay historial.
func EmptyPattern() EmotionalPattern {
	return EmotionalPattern{
		RecurringEmotions: []string{},
		AvgStress:         StressMedium,
	}
}
