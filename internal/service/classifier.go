package service

import (
	"strings"

	"resilience-llm/internal/domain"
)

// RuleClassifier es el analizador determinista de respaldo: puntua el texto
// por palabras clave cuando el servicio generativo no esta disponible.
// Sin aleatoriedad: el mismo texto produce siempre el mismo resultado.
type RuleClassifier struct{}

// DefaultRuleClassifier permite uso directo sin instanciar.
var DefaultRuleClassifier = RuleClassifier{}

// Frases de crisis explicitas: cortocircuitan todo el resto del puntaje.
var explicitCrisisPhrases = []string{
	"kill myself",
	"killing myself",
	"want to die",
	"wanna die",
	"end my life",
	"take my own life",
	"suicide",
	"suicidal",
	"hurt myself",
	"harming myself",
	"end it all",
	"better off dead",
}

// Frases implicitas: solo se evaluan si ninguna explicita hizo match.
var implicitCrisisPhrases = []string{
	"no reason to live",
	"can't go on",
	"cant go on",
	"give up on everything",
	"nothing matters anymore",
	"want to disappear",
	"wish i wasn't here",
}

// scoringCategory agrupa palabras clave con un peso con signo y una etiqueta.
type scoringCategory struct {
	label    string
	weight   int
	keywords []string
}

// El orden importa: define el orden de insercion de las etiquetas.
var scoringCategories = []scoringCategory{
	{label: "loneliness", weight: -2, keywords: []string{"lonely", "alone", "isolated", "no one cares", "nobody cares", "no friends", "abandoned"}},
	{label: "hopelessness", weight: -2, keywords: []string{"hopeless", "pointless", "no point", "worthless", "empty inside", "numb"}},
	{label: "burnout", weight: -1, keywords: []string{"burned out", "burnt out", "burnout", "exhausted", "drained", "worn out", "can't keep up", "cant keep up"}},
	{label: "overwhelm", weight: -1, keywords: []string{"overwhelmed", "overwhelming", "too much for me", "can't handle", "cant handle", "drowning in"}},
	{label: "anxiety", weight: -1, keywords: []string{"anxious", "anxiety", "panic", "panicking", "nervous", "stressed", "stressing", "scared", "afraid", "worried"}},
	{label: "sadness", weight: -2, keywords: []string{"depressed", "depression", "miserable", "crying", "heartbroken", "sad", "grieving"}},
	{label: "hopeful", weight: 2, keywords: []string{"happy", "grateful", "excited", "proud", "hopeful", "motivated", "feeling better", "good news", "great day"}},
}

// Frases de enmascaramiento: restan solo cuando conviven con senales negativas.
var maskingPhrases = []string{
	"i'm fine",
	"im fine",
	"it's fine",
	"its fine",
	"doesn't matter",
	"doesnt matter",
	"whatever",
}

var negativeLabels = map[string]struct{}{
	"crisis":       {},
	"loneliness":   {},
	"hopelessness": {},
	"burnout":      {},
	"overwhelm":    {},
	"anxiety":      {},
	"sadness":      {},
	"masking":      {},
}

var positiveLabels = map[string]struct{}{
	"hopeful": {},
}

// Prioridad fija para derivar el nivel de estres desde las etiquetas.
var stressPriority = []struct {
	label string
	level domain.StressLevel
}{
	{"crisis", domain.StressHigh},
	{"overwhelm", domain.StressHigh},
	{"anxiety", domain.StressHigh},
	{"hopelessness", domain.StressMedium},
	{"sadness", domain.StressMedium},
	{"burnout", domain.StressMedium},
	{"loneliness", domain.StressMedium},
	{"masking", domain.StressMedium},
	{"hopeful", domain.StressLow},
}

// HasExplicitCrisis detecta frases de crisis explicitas en el texto.
func (RuleClassifier) HasExplicitCrisis(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range explicitCrisisPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Classify analiza el texto y devuelve un AnalysisResult determinista.
func (c RuleClassifier) Classify(text string) domain.AnalysisResult {
	lower := strings.ToLower(text)

	// Crisis explicita: fuerza stress high y no puntua nada mas.
	if c.HasExplicitCrisis(text) {
		return domain.AnalysisResult{
			Sentiment:   domain.SentimentDeeplyNegative,
			StressLevel: domain.StressHigh,
			Emotions:    []string{"crisis"},
			Confidence:  0.95,
			Reasoning:   "Rule-based analysis: explicit crisis language detected",
		}
	}

	score := 0
	var emotions []string
	matched := 0

	for _, phrase := range implicitCrisisPhrases {
		if strings.Contains(lower, phrase) {
			score -= 3
			emotions = append(emotions, "crisis")
			matched++
			break
		}
	}

	for _, cat := range scoringCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				score += cat.weight
				emotions = append(emotions, cat.label)
				matched++
				break
			}
		}
	}

	if score < 0 {
		for _, phrase := range maskingPhrases {
			if strings.Contains(lower, phrase) {
				score--
				emotions = append(emotions, "masking")
				matched++
				break
			}
		}
	}

	emotions = dedupeEmotions(emotions, 4)

	sentiment := scoreToSentiment(score, emotions)
	if len(emotions) == 0 {
		emotions = []string{defaultEmotionFor(sentiment)}
	}

	confidence := 0.5 + 0.1*float64(matched)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return domain.AnalysisResult{
		Sentiment:   sentiment,
		StressLevel: stressFromEmotions(emotions, sentiment),
		Emotions:    emotions,
		Confidence:  confidence,
		Reasoning:   "Rule-based analysis over keyword categories",
	}
}

// scoreToSentiment umbraliza el puntaje con desempate por etiquetas conocidas.
func scoreToSentiment(score int, emotions []string) domain.Sentiment {
	switch {
	case score >= 2:
		return domain.SentimentPositive
	case score <= -2:
		return domain.SentimentNegative
	}
	for _, e := range emotions {
		if _, ok := negativeLabels[e]; ok {
			return domain.SentimentNegative
		}
	}
	for _, e := range emotions {
		if _, ok := positiveLabels[e]; ok {
			return domain.SentimentPositive
		}
	}
	return domain.SentimentNeutral
}

// stressFromEmotions deriva el estres desde la lista de prioridad, no del
// sentimiento directamente.
func stressFromEmotions(emotions []string, sentiment domain.Sentiment) domain.StressLevel {
	present := make(map[string]struct{}, len(emotions))
	for _, e := range emotions {
		present[e] = struct{}{}
	}
	for _, p := range stressPriority {
		if _, ok := present[p.label]; ok {
			return p.level
		}
	}
	if sentiment == domain.SentimentNegative || sentiment == domain.SentimentDeeplyNegative {
		return domain.StressMedium
	}
	return domain.StressLow
}

func defaultEmotionFor(sentiment domain.Sentiment) string {
	switch sentiment {
	case domain.SentimentPositive:
		return "content"
	case domain.SentimentNegative, domain.SentimentDeeplyNegative:
		return "distress"
	default:
		return "uncertain"
	}
}

// dedupeEmotions elimina duplicados conservando el orden y recorta a max.
func dedupeEmotions(emotions []string, max int) []string {
	seen := make(map[string]struct{}, len(emotions))
	out := emotions[:0]
	for _, e := range emotions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
		if len(out) == max {
			break
		}
	}
	return out
}
