package domain

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Interaction es un registro inmutable del historial de un usuario.
// Lo posee en exclusiva el memory store; el workflow solo maneja copias.
type Interaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Timestamp   time.Time       `json:"timestamp"`
	UserMessage string          `json:"user_message"`
	Analysis    AnalysisResult  `json:"analysis"`
	Strategy    StrategyKey     `json:"strategy_type"`
	CrisisScore float64         `json:"crisis_score"`
	// Document es el blob de texto desnormalizado sobre el que se busca
	// por similitud semantica; Embedding es su vector asociado. Nil cuando
	// el embedding fallo: se persiste NULL, nunca un vector vacio.
	Document  string           `json:"document,omitempty"`
	Embedding *pgvector.Vector `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
}
