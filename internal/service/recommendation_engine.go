package service

import (
	"math/rand"
	"strings"

	"resilience-llm/internal/domain"
)

// RecommendationEngine selecciona estrategias de afrontamiento a partir del
// estado emocional. Los desempates aleatorios usan un *rand.Rand inyectado
// para que los tests sean reproducibles.
type RecommendationEngine struct {
	rng *rand.Rand
}

func NewRecommendationEngine(rng *rand.Rand) *RecommendationEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RecommendationEngine{rng: rng}
}

// strategyCatalog conserva los pasos originales de cada tecnica.
var strategyCatalog = map[domain.StrategyKey]domain.Recommendation{
	domain.StrategyBreathing: {
		Type: domain.StrategyBreathing,
		Name: "Breathing Exercise",
		Steps: []string{
			"Find a comfortable seated position",
			"Close your eyes or soften your gaze",
			"Inhale slowly through your nose for 4 counts",
			"Hold your breath gently for 2 counts",
			"Exhale slowly through your mouth for 6 counts",
			"Repeat this cycle 5-10 times",
			"Notice how your body feels calmer",
		},
	},
	domain.StrategyGrounding: {
		Type: domain.StrategyGrounding,
		Name: "Grounding Technique (5-4-3-2-1)",
		Steps: []string{
			"Acknowledge 5 things you can see around you",
			"Acknowledge 4 things you can touch",
			"Acknowledge 3 things you can hear",
			"Acknowledge 2 things you can smell",
			"Acknowledge 1 thing you can taste",
			"Take a deep breath and return to the present moment",
		},
	},
	domain.StrategyRelaxation: {
		Type: domain.StrategyRelaxation,
		Name: "Progressive Muscle Relaxation",
		Steps: []string{
			"Start with your toes - tense them for 5 seconds, then release",
			"Move to your calves - tense and release",
			"Continue with thighs, abdomen, and chest",
			"Tense and release your hands and arms",
			"Finally, tense and release your neck and face",
			"Notice the difference between tension and relaxation",
			"Breathe deeply and enjoy the calm",
		},
	},
	domain.StrategyMeditation: {
		Type: domain.StrategyMeditation,
		Name: "Mindful Meditation",
		Steps: []string{
			"Sit or lie down in a comfortable position",
			"Close your eyes and focus on your breath",
			"Notice the sensation of air entering and leaving",
			"When thoughts arise, acknowledge them without judgment",
			"Gently return your focus to your breath",
			"Continue for 5-10 minutes",
			"Open your eyes slowly when ready",
		},
	},
	domain.StrategyAffirmations: {
		Type: domain.StrategyAffirmations,
		Name: "Positive Affirmations",
		Steps: []string{
			"Stand or sit in front of a mirror",
			"Take three deep breaths",
			"Say aloud: \"I am capable and strong\"",
			"Say aloud: \"I can handle difficult emotions\"",
			"Say aloud: \"This feeling is temporary\"",
			"Say aloud: \"I am worthy of peace and happiness\"",
			"Repeat these as often as needed",
		},
	},
	domain.StrategyPhysical: {
		Type: domain.StrategyPhysical,
		Name: "Gentle Physical Activity",
		Steps: []string{
			"Stand up and stretch your arms overhead",
			"Roll your shoulders backward 5 times",
			"Take a short 5-minute walk, even if just around your room",
			"Do 10 gentle jumping jacks or march in place",
			"Stretch your neck gently side to side",
			"Shake out your hands and arms",
			"Notice the energy shift in your body",
		},
	},
	domain.StrategyJournaling: {
		Type: domain.StrategyJournaling,
		Name: "Reflective Journaling",
		Steps: []string{
			"Get a notebook or open a digital document",
			"Write down what you're feeling right now",
			"Don't judge your thoughts - just let them flow",
			"Write about what might be causing these feelings",
			"Write one thing you're grateful for today",
			"Write one small action you can take to feel better",
			"Close by writing a kind message to yourself",
		},
	},
	domain.StrategySocial: {
		Type: domain.StrategySocial,
		Name: "Social Connection",
		Steps: []string{
			"Think of someone who makes you feel safe",
			"Reach out with a text, call, or video chat",
			"Share how you're feeling (if comfortable)",
			"Ask them about their day",
			"Remember: asking for support is a sign of strength",
			"Even brief connections can help",
			"Thank them for being there",
		},
	},
	domain.StrategyCrisisSupport: {
		Type: domain.StrategyCrisisSupport,
		Name: "Crisis Support",
		Steps: []string{
			"You are not alone - help is available right now",
			"Call or text 988 to reach the Suicide & Crisis Lifeline",
			"Text HOME to 741741 to reach the Crisis Text Line",
			"If you are in immediate danger, call your local emergency number",
			"Stay with someone you trust, or reach out to them now",
			"These feelings can change - the next hour matters, take it slowly",
		},
	},
}

// Grupos por proposito, disjuntos, para sustitucion anti-repeticion.
var strategyPurposeGroups = map[string][]domain.StrategyKey{
	"calming":    {domain.StrategyBreathing, domain.StrategyGrounding, domain.StrategyRelaxation, domain.StrategyMeditation},
	"emotional":  {domain.StrategyJournaling, domain.StrategyAffirmations, domain.StrategySocial},
	"energizing": {domain.StrategyPhysical},
}

// Strategy devuelve la ficha completa de una clave del catalogo.
func (e *RecommendationEngine) Strategy(key domain.StrategyKey) domain.Recommendation {
	if rec, ok := strategyCatalog[key]; ok {
		steps := make([]string, len(rec.Steps))
		copy(steps, rec.Steps)
		rec.Steps = steps
		return rec
	}
	return e.Strategy(domain.StrategyBreathing)
}

// Select aplica la lista de prioridad de grupos de emociones del dominio.
// Es una funcion pura salvo por los desempates aleatorios documentados.
func (e *RecommendationEngine) Select(sentiment domain.Sentiment, stress domain.StressLevel, emotions []string) domain.StrategyKey {
	joined := strings.ToLower(strings.Join(emotions, " "))

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(joined, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("crisis", "hopeless"):
		return domain.StrategyGrounding
	case contains("lonel", "isolat", "abandon"):
		return domain.StrategySocial
	case contains("burnout", "burned out", "exhaust", "drained"):
		return domain.StrategyRelaxation
	case contains("overwhelm"):
		return domain.StrategyGrounding
	case contains("anxi", "panic", "nervous", "stress"):
		return domain.StrategyBreathing
	case contains("depress", "sad", "miserable", "down", "grief"):
		return e.pick(domain.StrategyAffirmations, domain.StrategyPhysical)
	case contains("anger", "angry", "frustrat", "irritat", "annoyed"):
		return domain.StrategyPhysical
	case contains("worri", "worry", "rumina", "overthink", "confus"):
		return domain.StrategyJournaling
	case sentiment == domain.SentimentPositive || contains("hopeful", "grateful", "content", "happy"):
		return e.pick(domain.StrategyJournaling, domain.StrategyAffirmations)
	}

	// Fallback por nivel de estres.
	switch stress {
	case domain.StressHigh, domain.StressCrisis:
		return domain.StrategyBreathing
	case domain.StressMedium:
		return e.pick(domain.StrategyMeditation, domain.StrategyRelaxation)
	default:
		return domain.StrategyBreathing
	}
}

// Personalize ajusta la seleccion con el patron historico y las ultimas
// estrategias usadas (hasta 3):
//   - soledad recurrente fuerza social_connection,
//   - no se repite la misma estrategia consecutiva salvo estres alto/crisis,
//     sustituyendo por otra del mismo grupo de proposito.
func (e *RecommendationEngine) Personalize(
	selected domain.StrategyKey,
	stress domain.StressLevel,
	pattern domain.EmotionalPattern,
	recent []domain.StrategyKey,
) domain.StrategyKey {
	for _, emo := range pattern.RecurringEmotions {
		if strings.Contains(strings.ToLower(emo), "lonel") {
			selected = domain.StrategySocial
			break
		}
	}

	highStress := stress == domain.StressHigh || stress == domain.StressCrisis
	if len(recent) > 0 && recent[0] == selected && !highStress {
		if alt, ok := e.sameGroupAlternative(selected); ok {
			selected = alt
		}
	}
	return selected
}

func (e *RecommendationEngine) sameGroupAlternative(key domain.StrategyKey) (domain.StrategyKey, bool) {
	for _, group := range strategyPurposeGroups {
		inGroup := false
		for _, k := range group {
			if k == key {
				inGroup = true
				break
			}
		}
		if !inGroup {
			continue
		}
		var alternatives []domain.StrategyKey
		for _, k := range group {
			if k != key {
				alternatives = append(alternatives, k)
			}
		}
		if len(alternatives) == 0 {
			return key, false
		}
		return alternatives[e.rng.Intn(len(alternatives))], true
	}
	return key, false
}

func (e *RecommendationEngine) pick(keys ...domain.StrategyKey) domain.StrategyKey {
	return keys[e.rng.Intn(len(keys))]
}
