package service

import (
	"reflect"
	"testing"

	"resilience-llm/internal/domain"
)

func TestRuleClassifier_ExplicitCrisisShortCircuits(t *testing.T) {
	c := RuleClassifier{}
	result := c.Classify("I can't take it anymore, I want to kill myself")

	if result.Sentiment != domain.SentimentDeeplyNegative {
		t.Fatalf("expected deeply_negative, got %s", result.Sentiment)
	}
	if result.StressLevel != domain.StressHigh {
		t.Fatalf("expected high stress, got %s", result.StressLevel)
	}
	if len(result.Emotions) != 1 || result.Emotions[0] != "crisis" {
		t.Fatalf("expected [crisis], got %v", result.Emotions)
	}
	if result.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %f", result.Confidence)
	}
}

func TestRuleClassifier_StressedAnxiousExams(t *testing.T) {
	c := RuleClassifier{}
	result := c.Classify("I'm feeling really stressed and anxious about my exams")

	if result.Sentiment != domain.SentimentNegative {
		t.Fatalf("expected negative, got %s", result.Sentiment)
	}
	if result.StressLevel != domain.StressHigh {
		t.Fatalf("expected high stress for anxiety, got %s", result.StressLevel)
	}
	found := false
	for _, e := range result.Emotions {
		if e == "anxiety" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected anxiety among emotions, got %v", result.Emotions)
	}
}

func TestRuleClassifier_PositiveText(t *testing.T) {
	c := RuleClassifier{}
	result := c.Classify("I had a great day and I'm feeling grateful")

	if result.Sentiment != domain.SentimentPositive {
		t.Fatalf("expected positive, got %s", result.Sentiment)
	}
	if result.StressLevel != domain.StressLow {
		t.Fatalf("expected low stress, got %s", result.StressLevel)
	}
}

func TestRuleClassifier_MaskingOnlyWithNegativeSignals(t *testing.T) {
	c := RuleClassifier{}

	// Sin senal negativa el enmascaramiento no puntua.
	neutral := c.Classify("it's fine, the meeting got moved")
	for _, e := range neutral.Emotions {
		if e == "masking" {
			t.Fatalf("masking should not fire without negative signals: %v", neutral.Emotions)
		}
	}

	masked := c.Classify("I feel so lonely, nobody cares... but it's fine, whatever")
	found := false
	for _, e := range masked.Emotions {
		if e == "masking" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected masking label, got %v", masked.Emotions)
	}
	if masked.Sentiment != domain.SentimentNegative {
		t.Fatalf("expected negative, got %s", masked.Sentiment)
	}
}

func TestRuleClassifier_NeutralDefault(t *testing.T) {
	c := RuleClassifier{}
	result := c.Classify("The weather is okay where I live")

	if result.Sentiment != domain.SentimentNeutral {
		t.Fatalf("expected neutral, got %s", result.Sentiment)
	}
	if len(result.Emotions) != 1 || result.Emotions[0] != "uncertain" {
		t.Fatalf("expected [uncertain], got %v", result.Emotions)
	}
	if result.Confidence != 0.5 {
		t.Fatalf("expected base confidence 0.5, got %f", result.Confidence)
	}
}

func TestRuleClassifier_Deterministic(t *testing.T) {
	c := RuleClassifier{}
	text := "I'm exhausted and overwhelmed, I can't keep up with everything"

	first := c.Classify(text)
	for i := 0; i < 5; i++ {
		if got := c.Classify(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestRuleClassifier_ImplicitCrisisPhrases(t *testing.T) {
	c := RuleClassifier{}
	result := c.Classify("lately it feels like there's no reason to live")

	if c.HasExplicitCrisis("lately it feels like there's no reason to live") {
		t.Fatal("implicit phrase must not count as explicit crisis")
	}
	found := false
	for _, e := range result.Emotions {
		if e == "crisis" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected crisis label from implicit phrase, got %v", result.Emotions)
	}
	if result.StressLevel != domain.StressHigh {
		t.Fatalf("expected high stress, got %s", result.StressLevel)
	}
}
