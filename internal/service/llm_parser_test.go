package service

import (
	"strings"
	"testing"

	"resilience-llm/internal/domain"
)

func TestCleanLLMJSONResponse_StripsFences(t *testing.T) {
	raw := "```json\n{\"sentiment\": \"negative\"}\n```"
	got := CleanLLMJSONResponse(raw)
	if got != `{"sentiment": "negative"}` {
		t.Fatalf("unexpected cleaned response: %q", got)
	}
}

func TestParseAnalysis_JSONObject(t *testing.T) {
	parser := LLMResponseParser{}
	raw := "```json\n{\"sentiment\":\"negative\",\"stress_level\":\"high\",\"emotions\":[\"anxiety\",\"fear\"],\"confidence\":0.85}\n```"

	result, err := parser.ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("parse analysis: %v", err)
	}
	if result.Sentiment != domain.SentimentNegative || result.StressLevel != domain.StressHigh {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Emotions) != 2 || result.Emotions[0] != "anxiety" {
		t.Fatalf("unexpected emotions: %v", result.Emotions)
	}
	if result.Confidence != 0.85 {
		t.Fatalf("unexpected confidence: %f", result.Confidence)
	}
}

func TestParseAnalysis_KeyValueLines(t *testing.T) {
	parser := LLMResponseParser{}
	raw := "SENTIMENT: Negative\nSTRESS_LEVEL: HIGH\nEMOTIONS: Anxiety, Fear, anxiety\nCONFIDENCE: 0.8"

	result, err := parser.ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("parse analysis: %v", err)
	}
	if result.Sentiment != domain.SentimentNegative {
		t.Fatalf("expected negative, got %s", result.Sentiment)
	}
	if result.StressLevel != domain.StressHigh {
		t.Fatalf("expected high, got %s", result.StressLevel)
	}
	// Duplicados deduplicados conservando orden.
	if len(result.Emotions) != 2 || result.Emotions[0] != "anxiety" || result.Emotions[1] != "fear" {
		t.Fatalf("unexpected emotions: %v", result.Emotions)
	}
}

func TestParseAnalysis_CoercesUnknownEnums(t *testing.T) {
	parser := LLMResponseParser{}
	raw := "SENTIMENT: euphoric\nSTRESS_LEVEL: extreme\nEMOTIONS: \nCONFIDENCE: 3.5"

	result, err := parser.ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("parse analysis: %v", err)
	}
	if result.Sentiment != domain.SentimentNeutral {
		t.Fatalf("expected neutral coercion, got %s", result.Sentiment)
	}
	if result.StressLevel != domain.StressMedium {
		t.Fatalf("expected medium coercion, got %s", result.StressLevel)
	}
	if result.Confidence != 1 {
		t.Fatalf("expected clamped confidence 1, got %f", result.Confidence)
	}
	if len(result.Emotions) != 1 || result.Emotions[0] != "mixed" {
		t.Fatalf("expected [mixed] default, got %v", result.Emotions)
	}
}

func TestParseAnalysis_EmptyFails(t *testing.T) {
	parser := LLMResponseParser{}
	if _, err := parser.ParseAnalysis("   "); err == nil {
		t.Fatal("expected error on empty response")
	}
	if _, err := parser.ParseAnalysis("no structured content here"); err == nil {
		t.Fatal("expected error when no fields are present")
	}
}

func TestParseCrisisScore_Formats(t *testing.T) {
	parser := LLMResponseParser{}

	if got, err := parser.ParseCrisisScore(`{"crisis_score": 0.8}`); err != nil || got != 0.8 {
		t.Fatalf("json format: got %f, err %v", got, err)
	}
	if got, err := parser.ParseCrisisScore("The score is 0.35 based on the message"); err != nil || got != 0.35 {
		t.Fatalf("free text: got %f, err %v", got, err)
	}
	if got, err := parser.ParseCrisisScore("1.7"); err != nil || got != 1 {
		t.Fatalf("expected clamp to 1, got %f, err %v", got, err)
	}
	if _, err := parser.ParseCrisisScore("no numbers at all"); err == nil {
		t.Fatal("expected error without numeric content")
	}
}

func TestParseRecommendationKey_JSON(t *testing.T) {
	parser := LLMResponseParser{}
	key, reasoning, err := parser.ParseRecommendationKey(`{"type":"journaling","reasoning":"worry loops respond well to writing"}`)
	if err != nil {
		t.Fatalf("parse recommendation: %v", err)
	}
	if key != domain.StrategyJournaling {
		t.Fatalf("expected journaling, got %s", key)
	}
	if !strings.Contains(reasoning, "writing") {
		t.Fatalf("unexpected reasoning: %q", reasoning)
	}
}

func TestParseRecommendationKey_PlainText(t *testing.T) {
	parser := LLMResponseParser{}
	key, _, err := parser.ParseRecommendationKey("I suggest the grounding_technique for this situation.")
	if err != nil {
		t.Fatalf("parse recommendation: %v", err)
	}
	if key != domain.StrategyGrounding {
		t.Fatalf("expected grounding_technique, got %s", key)
	}
}

func TestParseRecommendationKey_UnknownFails(t *testing.T) {
	parser := LLMResponseParser{}
	if _, _, err := parser.ParseRecommendationKey(`{"type":"hypnosis"}`); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, _, err := parser.ParseRecommendationKey("try something relaxing"); err == nil {
		t.Fatal("expected error when no known key appears")
	}
}
