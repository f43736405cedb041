package http

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resilience-llm/internal/domain"
)

// Limites de entrada en el boundary.
const (
	minInputLength      = 1
	maxInputLength      = 2000
	minMeaningfulLength = 3
	maxMessageLength    = 500
	maxUserIDLength     = 100
)

// Patrones de spam/gibberish. El caracter repetido se chequea aparte:
// RE2 no soporta backreferences.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[^a-zA-Z0-9\s]{20,}$`),
	regexp.MustCompile(`http[s]?://\S+`),
}

// Patrones bloqueados por seguridad.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// InputValidator sanea y valida el input del usuario en el boundary.
type InputValidator struct{}

// ValidateInput devuelve el texto saneado o un error con mensaje apto para
// el usuario final.
func (InputValidator) ValidateInput(inputText string) (string, error) {
	text := strings.TrimSpace(inputText)

	if len(text) < minInputLength {
		return "", fmt.Errorf("Input cannot be empty")
	}
	if len(text) > maxInputLength {
		return "", fmt.Errorf("Input too long. Maximum %d characters allowed", maxInputLength)
	}
	if len(text) < minMeaningfulLength {
		return "", fmt.Errorf("Input too short. Please share more about how you're feeling")
	}

	for _, pattern := range blockedPatterns {
		if pattern.MatchString(text) {
			return "", fmt.Errorf("Invalid input detected. Please avoid special characters or code")
		}
	}

	if isSpam(text) {
		return "", fmt.Errorf("Input appears invalid. Please share genuine thoughts or feelings")
	}

	return sanitize(text), nil
}

func isSpam(text string) bool {
	if hasLongRepeat(text, 10) {
		return true
	}
	for _, pattern := range spamPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}

	if len(text) > 10 {
		alpha := 0
		for _, r := range text {
			if unicode.IsLetter(r) {
				alpha++
			}
		}
		if float64(alpha)/float64(len(text)) < 0.3 {
			return true
		}
	}
	return false
}

// hasLongRepeat detecta una runa seguida de al menos limit repeticiones.
func hasLongRepeat(text string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= limit {
				return true
			}
		} else {
			prev = r
			run = 0
		}
	}
	return false
}

// truncateMessage corta en limit bytes sin partir una runa multibyte.
func truncateMessage(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

func sanitize(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	if len(text) > maxInputLength {
		text = text[:maxInputLength]
	}
	return strings.TrimSpace(text)
}

// ValidateMetadata sanea los metadatos: user_id acotado y language
// normalizado al unico codigo soportado.
func (InputValidator) ValidateMetadata(meta domain.RequestMetadata) (domain.RequestMetadata, error) {
	sanitized := domain.RequestMetadata{Language: "en"}

	userID := strings.TrimSpace(meta.UserID)
	if len(userID) > maxUserIDLength {
		return domain.RequestMetadata{}, fmt.Errorf("user_id too long")
	}
	sanitized.UserID = userID

	lang := strings.ToLower(strings.TrimSpace(meta.Language))
	if len(lang) > 10 {
		return domain.RequestMetadata{}, fmt.Errorf("Invalid language code")
	}
	// Solo soportamos ingles por ahora; todo lo demas se normaliza.
	sanitized.Language = "en"

	return sanitized, nil
}

// ResponseValidator fuerza la forma del contrato de salida: enums fuera de
// rango se corrigen a defaults, mensaje vacio se reemplaza y el largo se
// trunca con elipsis.
type ResponseValidator struct{}

// ValidateResponse normaliza la respuesta in place y reporta si era usable.
func (ResponseValidator) ValidateResponse(resp *domain.Response) error {
	if resp == nil {
		return fmt.Errorf("nil response")
	}
	if resp.Agent == "" || resp.Status == "" {
		return fmt.Errorf("missing agent or status")
	}

	if _, ok := domain.ValidSentiments[resp.Analysis.Sentiment]; !ok {
		resp.Analysis.Sentiment = domain.SentimentNeutral
	}
	if _, ok := domain.ValidStressLevels[resp.Analysis.StressLevel]; !ok {
		resp.Analysis.StressLevel = domain.StressMedium
	}
	if len(resp.Analysis.Emotions) == 0 {
		resp.Analysis.Emotions = []string{"uncertain"}
	}

	if !domain.IsKnownStrategy(resp.Recommendation.Type) {
		return fmt.Errorf("unknown recommendation type %q", resp.Recommendation.Type)
	}
	if len(resp.Recommendation.Steps) == 0 {
		return fmt.Errorf("empty recommendation steps")
	}

	if strings.TrimSpace(resp.Message) == "" {
		resp.Message = "I'm here to support you."
	}
	if len(resp.Message) > maxMessageLength {
		resp.Message = truncateMessage(resp.Message, maxMessageLength-3) + "..."
	}

	return nil
}
