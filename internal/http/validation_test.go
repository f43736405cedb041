package http

import (
	"strings"
	"testing"
	"unicode/utf8"

	"resilience-llm/internal/domain"
)

func TestValidateInput_Lengths(t *testing.T) {
	v := InputValidator{}

	if _, err := v.ValidateInput("   "); err == nil {
		t.Fatal("empty input must be rejected")
	}
	if _, err := v.ValidateInput("ok"); err == nil {
		t.Fatal("too-short input must be rejected")
	}
	if _, err := v.ValidateInput(strings.Repeat("a lot of text ", 200)); err == nil {
		t.Fatal("over-long input must be rejected")
	}

	got, err := v.ValidateInput("I had a rough day at work")
	if err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if got != "I had a rough day at work" {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}

func TestValidateInput_BlockedPatterns(t *testing.T) {
	v := InputValidator{}

	cases := []string{
		"<script>alert('x')</script> I feel bad",
		"click javascript:alert(1) please",
		"hello onload=stealData() world",
		"run eval(document.cookie) now",
		"please exec (rm -rf) for me",
	}
	for _, input := range cases {
		if _, err := v.ValidateInput(input); err == nil {
			t.Fatalf("expected rejection for %q", input)
		}
	}
}

func TestValidateInput_SpamDetection(t *testing.T) {
	v := InputValidator{}

	if _, err := v.ValidateInput("aaaaaaaaaaaaaaa"); err == nil {
		t.Fatal("long character runs must be rejected")
	}
	if _, err := v.ValidateInput("check this out http://spam.example/win"); err == nil {
		t.Fatal("URLs must be rejected")
	}
	if _, err := v.ValidateInput("12345 67890 12345"); err == nil {
		t.Fatal("texts with almost no letters must be rejected")
	}
}

func TestValidateInput_SanitizesTagsAndWhitespace(t *testing.T) {
	v := InputValidator{}

	got, err := v.ValidateInput("<b>feeling</b>   low \n today")
	if err != nil {
		t.Fatalf("sanitizable input rejected: %v", err)
	}
	if got != "feeling low today" {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}

func TestValidateMetadata(t *testing.T) {
	v := InputValidator{}

	meta, err := v.ValidateMetadata(domain.RequestMetadata{UserID: " u1 ", Language: "ES"})
	if err != nil {
		t.Fatalf("valid metadata rejected: %v", err)
	}
	if meta.UserID != "u1" {
		t.Fatalf("expected trimmed user_id, got %q", meta.UserID)
	}
	if meta.Language != "en" {
		t.Fatalf("language must normalize to en, got %q", meta.Language)
	}

	if _, err := v.ValidateMetadata(domain.RequestMetadata{UserID: strings.Repeat("x", 101)}); err == nil {
		t.Fatal("over-long user_id must be rejected")
	}
}

func validResponse() domain.Response {
	score := 0.1
	conf := 0.8
	return domain.Response{
		Agent:  domain.AgentName,
		Status: domain.StatusSuccess,
		Analysis: domain.AnalysisResult{
			Sentiment:   domain.SentimentNegative,
			StressLevel: domain.StressHigh,
			Emotions:    []string{"anxiety"},
		},
		Recommendation: domain.Recommendation{
			Type:  domain.StrategyBreathing,
			Steps: []string{"Breathe in", "Breathe out"},
		},
		Message:     "You're doing your best.",
		CrisisScore: &score,
		Confidence:  &conf,
	}
}

func TestValidateResponse_CoercesEnums(t *testing.T) {
	v := ResponseValidator{}
	resp := validResponse()
	resp.Analysis.Sentiment = "euphoric"
	resp.Analysis.StressLevel = "extreme"
	resp.Analysis.Emotions = nil

	if err := v.ValidateResponse(&resp); err != nil {
		t.Fatalf("coercible response rejected: %v", err)
	}
	if resp.Analysis.Sentiment != domain.SentimentNeutral {
		t.Fatalf("expected neutral coercion, got %s", resp.Analysis.Sentiment)
	}
	if resp.Analysis.StressLevel != domain.StressMedium {
		t.Fatalf("expected medium coercion, got %s", resp.Analysis.StressLevel)
	}
	if len(resp.Analysis.Emotions) != 1 || resp.Analysis.Emotions[0] != "uncertain" {
		t.Fatalf("expected [uncertain], got %v", resp.Analysis.Emotions)
	}
}

func TestValidateResponse_MessageDefaults(t *testing.T) {
	v := ResponseValidator{}

	resp := validResponse()
	resp.Message = "  "
	if err := v.ValidateResponse(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "I'm here to support you." {
		t.Fatalf("expected default message, got %q", resp.Message)
	}

	resp = validResponse()
	resp.Message = strings.Repeat("x", 600)
	if err := v.ValidateResponse(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Message) != 500 || !strings.HasSuffix(resp.Message, "...") {
		t.Fatalf("expected 500-char truncation with ellipsis, got len %d", len(resp.Message))
	}
}

func TestValidateResponse_TruncatesOnRuneBoundary(t *testing.T) {
	v := ResponseValidator{}

	// "é" ocupa 2 bytes: con 496 de relleno la runa cae justo sobre el corte.
	resp := validResponse()
	resp.Message = strings.Repeat("x", 496) + strings.Repeat("é", 60)
	if err := v.ValidateResponse(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(resp.Message) {
		t.Fatalf("truncated message is not valid UTF-8: %q", resp.Message)
	}
	if !strings.HasSuffix(resp.Message, "...") || len(resp.Message) > 500 {
		t.Fatalf("unexpected truncation result: len %d", len(resp.Message))
	}
}

func TestValidateResponse_RejectsBrokenShapes(t *testing.T) {
	v := ResponseValidator{}

	if err := v.ValidateResponse(nil); err == nil {
		t.Fatal("nil response must be rejected")
	}

	resp := validResponse()
	resp.Recommendation.Type = "hypnosis"
	if err := v.ValidateResponse(&resp); err == nil {
		t.Fatal("unknown strategy type must be rejected")
	}

	resp = validResponse()
	resp.Recommendation.Steps = nil
	if err := v.ValidateResponse(&resp); err == nil {
		t.Fatal("empty steps must be rejected")
	}

	resp = validResponse()
	resp.Agent = ""
	if err := v.ValidateResponse(&resp); err == nil {
		t.Fatal("missing agent must be rejected")
	}
}
