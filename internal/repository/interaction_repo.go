package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"resilience-llm/internal/domain"
)

// InteractionRepository define el contrato de persistencia del memory store.
type InteractionRepository interface {
	Create(ctx context.Context, interaction domain.Interaction) error
	// SearchByUser ordena por similitud semantica contra queryEmbedding.
	SearchByUser(ctx context.Context, userID string, queryEmbedding pgvector.Vector, k int) ([]domain.Interaction, error)
	// ListRecent devuelve los ultimos registros del usuario, mas nuevos primero.
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Interaction, error)
	// DeleteByUser borra todo el historial y devuelve cuantos registros habia.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type PgInteractionRepository struct {
	pool *pgxpool.Pool
}

func NewPgInteractionRepository(pool *pgxpool.Pool) *PgInteractionRepository {
	return &PgInteractionRepository{pool: pool}
}

func (r *PgInteractionRepository) Create(ctx context.Context, interaction domain.Interaction) error {
	const query = `
		INSERT INTO interactions (
			id, user_id, ts, user_message, sentiment, stress_level, emotions,
			confidence, strategy_type, crisis_score, document, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		interaction.ID,
		interaction.UserID,
		interaction.Timestamp,
		interaction.UserMessage,
		string(interaction.Analysis.Sentiment),
		string(interaction.Analysis.StressLevel),
		interaction.Analysis.Emotions,
		interaction.Analysis.Confidence,
		string(interaction.Strategy),
		interaction.CrisisScore,
		interaction.Document,
		interaction.Embedding,
		interaction.CreatedAt,
	)
	return err
}

func (r *PgInteractionRepository) SearchByUser(ctx context.Context, userID string, queryEmbedding pgvector.Vector, k int) ([]domain.Interaction, error) {
	if k <= 0 {
		k = 3
	}
	const query = `
		SELECT id, user_id, ts, user_message, sentiment, stress_level, emotions,
		       confidence, strategy_type, crisis_score, document, embedding, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY embedding <=> $2 NULLS LAST
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, userID, queryEmbedding, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInteractions(rows)
}

func (r *PgInteractionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, user_id, ts, user_message, sentiment, stress_level, emotions,
		       confidence, strategy_type, crisis_score, document, embedding, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInteractions(rows)
}

func (r *PgInteractionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM interactions WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanInteractions(rows pgxRows) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	for rows.Next() {
		var (
			it        domain.Interaction
			sentiment string
			stress    string
			strategy  string
		)
		if err := rows.Scan(
			&it.ID,
			&it.UserID,
			&it.Timestamp,
			&it.UserMessage,
			&sentiment,
			&stress,
			&it.Analysis.Emotions,
			&it.Analysis.Confidence,
			&strategy,
			&it.CrisisScore,
			&it.Document,
			&it.Embedding,
			&it.CreatedAt,
		); err != nil {
			return nil, err
		}
		it.Analysis.Sentiment = domain.Sentiment(sentiment)
		it.Analysis.StressLevel = domain.StressLevel(stress)
		it.Strategy = domain.StrategyKey(strategy)
		interactions = append(interactions, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return interactions, nil
}

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}
