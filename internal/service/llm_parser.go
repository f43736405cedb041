package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"resilience-llm/internal/domain"
)

// LLMResponseParser centraliza la limpieza y el parseo de respuestas del LLM.
// Regla general: valores fuera de enum se fuerzan a defaults documentados,
// nunca se rechaza la respuesta completa por un campo sucio.
type LLMResponseParser struct{}

// DefaultLLMResponseParser permite uso directo sin instanciar.
var DefaultLLMResponseParser = LLMResponseParser{}

// CleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func CleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")

	reStart := regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	reEnd := regexp.MustCompile("(?is)\\s*```\\s*$")
	s = reStart.ReplaceAllString(s, "")
	s = reEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

// ParseAnalysis acepta dos formatos: bloque de lineas `KEY: value`
// (SENTIMENT / STRESS_LEVEL / EMOTIONS / CONFIDENCE / REASONING) o el primer
// objeto JSON embebido con esos campos en minuscula.
func (p LLMResponseParser) ParseAnalysis(raw string) (domain.AnalysisResult, error) {
	cleaned := CleanLLMJSONResponse(raw)
	if cleaned == "" {
		return domain.AnalysisResult{}, fmt.Errorf("empty analysis response")
	}

	if obj := extractFirstJSONObject(cleaned); obj != "" {
		var tmp struct {
			Sentiment   string   `json:"sentiment"`
			StressLevel string   `json:"stress_level"`
			Emotions    []string `json:"emotions"`
			Confidence  *float64 `json:"confidence,omitempty"`
			Reasoning   string   `json:"reasoning,omitempty"`
		}
		if err := json.Unmarshal([]byte(obj), &tmp); err == nil && tmp.Sentiment != "" {
			result := domain.AnalysisResult{
				Sentiment:   domain.Sentiment(strings.ToLower(strings.TrimSpace(tmp.Sentiment))),
				StressLevel: domain.StressLevel(strings.ToLower(strings.TrimSpace(tmp.StressLevel))),
				Emotions:    tmp.Emotions,
				Reasoning:   strings.TrimSpace(tmp.Reasoning),
			}
			if tmp.Confidence != nil {
				result.Confidence = *tmp.Confidence
			} else {
				result.Confidence = 0.7
			}
			return coerceAnalysis(result), nil
		}
	}

	result, found := parseAnalysisLines(cleaned)
	if !found {
		return domain.AnalysisResult{}, fmt.Errorf("could not parse analysis block")
	}
	return coerceAnalysis(result), nil
}

func parseAnalysisLines(cleaned string) (domain.AnalysisResult, bool) {
	result := domain.AnalysisResult{Confidence: 0.7}
	found := false

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "SENTIMENT":
			result.Sentiment = domain.Sentiment(strings.ToLower(value))
			found = true
		case "STRESS_LEVEL":
			result.StressLevel = domain.StressLevel(strings.ToLower(value))
			found = true
		case "EMOTIONS":
			for _, e := range strings.Split(value, ",") {
				if e = strings.TrimSpace(e); e != "" {
					result.Emotions = append(result.Emotions, strings.ToLower(e))
				}
			}
			found = true
		case "CONFIDENCE":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				result.Confidence = f
			}
		case "REASONING":
			result.Reasoning = value
		}
	}
	return result, found
}

// coerceAnalysis aplica los defaults documentados: sentimiento desconocido ->
// neutral, estres desconocido -> medium, confianza acotada a [0,1], emociones
// deduplicadas con tope de 4.
func coerceAnalysis(result domain.AnalysisResult) domain.AnalysisResult {
	if _, ok := domain.ValidSentiments[result.Sentiment]; !ok {
		result.Sentiment = domain.SentimentNeutral
	}
	if _, ok := domain.ValidStressLevels[result.StressLevel]; !ok {
		result.StressLevel = domain.StressMedium
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	result.Emotions = dedupeEmotions(result.Emotions, 4)
	if len(result.Emotions) == 0 {
		result.Emotions = []string{"mixed"}
	}
	return result
}

// ParseCrisisScore extrae un float en [0,1] desde texto libre o JSON
// {"crisis_score": 0.8}. Valores fuera de rango se acotan.
func (p LLMResponseParser) ParseCrisisScore(raw string) (float64, error) {
	cleaned := CleanLLMJSONResponse(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty crisis response")
	}

	if obj := extractFirstJSONObject(cleaned); obj != "" {
		var tmp struct {
			CrisisScore *float64 `json:"crisis_score"`
			Score       *float64 `json:"score"`
		}
		if err := json.Unmarshal([]byte(obj), &tmp); err == nil {
			if tmp.CrisisScore != nil {
				return clampUnit(*tmp.CrisisScore), nil
			}
			if tmp.Score != nil {
				return clampUnit(*tmp.Score), nil
			}
		}
	}

	re := regexp.MustCompile(`[-+]?\d*\.?\d+`)
	match := re.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no numeric score in response")
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse crisis score: %w", err)
	}
	return clampUnit(f), nil
}

// ParseRecommendationKey extrae la clave de estrategia elegida por el modelo,
// en texto plano o JSON {"type": "...", "reasoning": "..."}.
func (p LLMResponseParser) ParseRecommendationKey(raw string) (domain.StrategyKey, string, error) {
	cleaned := CleanLLMJSONResponse(raw)
	if cleaned == "" {
		return "", "", fmt.Errorf("empty recommendation response")
	}

	if obj := extractFirstJSONObject(cleaned); obj != "" {
		var tmp struct {
			Type      string `json:"type"`
			Reasoning string `json:"reasoning,omitempty"`
		}
		if err := json.Unmarshal([]byte(obj), &tmp); err == nil && tmp.Type != "" {
			key := domain.StrategyKey(strings.ToLower(strings.TrimSpace(tmp.Type)))
			if !domain.IsKnownStrategy(key) {
				return "", "", fmt.Errorf("unknown strategy key %q", tmp.Type)
			}
			return key, strings.TrimSpace(tmp.Reasoning), nil
		}
	}

	// Texto plano: buscamos una clave conocida en la primera linea util.
	lower := strings.ToLower(cleaned)
	for _, k := range domain.StrategyKeys {
		if strings.Contains(lower, string(k)) {
			return k, "", nil
		}
	}
	return "", "", fmt.Errorf("no known strategy key in response")
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
