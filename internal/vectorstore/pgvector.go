// Package vectorstore indexes normalized news text for semantic retrieval,
// backed by PostgreSQL with the pgvector extension. Writes are best-effort
// companions to the document store; there is no cross-store transaction.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/Adda-Baaj/bazar-khobor/internal/llm"
)

// Store is the vector-index contract used by the consumer (AddTexts) and the
// chat façade (SimilaritySearch).
type Store interface {
	AddTexts(ctx context.Context, text string) error
	SimilaritySearch(ctx context.Context, query string, topK int) ([]string, error)
}

// PgVector implements Store over a pgvector table.
type PgVector struct {
	db       *sql.DB
	embedder llm.Embedder
}

// NewPgVector opens the database and ensures the embeddings table exists.
func NewPgVector(ctx context.Context, dsn string, embedder llm.Embedder) (*PgVector, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PgVector{db: db, embedder: embedder}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (p *PgVector) Close() error {
	return p.db.Close()
}

func (p *PgVector) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS news_embeddings (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			embedding VECTOR(768) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure embeddings schema: %w", err)
	}
	return nil
}

// AddTexts embeds the text and inserts it into the index.
func (p *PgVector) AddTexts(ctx context.Context, text string) error {
	embedding, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}

	const query = `INSERT INTO news_embeddings (content, embedding) VALUES ($1, $2::vector)`
	if _, err := p.db.ExecContext(ctx, query, text, formatVector(embedding)); err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}
	return nil
}

// SimilaritySearch embeds the query and returns the topK closest texts by
// cosine distance.
func (p *PgVector) SimilaritySearch(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 5
	}

	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	const stmt = `
		SELECT content
		FROM news_embeddings
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`
	rows, err := p.db.QueryContext(ctx, stmt, formatVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan similarity result: %w", err)
		}
		results = append(results, content)
	}
	return results, rows.Err()
}

// formatVector converts an embedding to the pgvector text representation,
// e.g. [0.1,0.2,0.3].
func formatVector(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
