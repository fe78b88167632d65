// Package index stores embedded document chunks in PostgreSQL with pgvector
// and serves nearest-neighbour queries over them.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/scrollab/askdocs/internal/log"
)

// VectorDimension is the embedding width of the chunks table. Embeddings of
// any other length are rejected before they reach the database.
const VectorDimension = 768

// Record is one embedded chunk ready for storage.
type Record struct {
	ID        string
	Namespace string
	Source    string
	Offset    int
	Content   string
	Embedding []float32
}

// Match is a retrieval hit, ordered by ascending cosine distance.
type Match struct {
	ID      string
	Source  string
	Content string
	// Score is the cosine similarity in [-1, 1]; higher is closer.
	Score float64
}

// RecordID derives the stable identifier for a chunk from its source path
// and byte offset. Re-ingesting the same file yields the same IDs, so
// upserts replace rather than duplicate.
func RecordID(source string, offset int) string {
	sum := sha256.Sum256([]byte(source + ":" + strconv.Itoa(offset)))
	return "chunk_" + hex.EncodeToString(sum[:])[:32]
}

// Store persists chunk records and answers similarity queries.
// Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// Open connects a pool to PostgreSQL and pings it.
func Open(ctx context.Context, dsn string, logger log.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return NewStore(pool, logger), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Upsert writes records, replacing any existing row with the same ID.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	for _, r := range records {
		if len(r.Embedding) != VectorDimension {
			return fmt.Errorf("record %s: embedding has %d dimensions, want %d",
				r.ID, len(r.Embedding), VectorDimension)
		}
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO chunks (id, namespace, source, chunk_offset, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				namespace = EXCLUDED.namespace,
				source = EXCLUDED.source,
				chunk_offset = EXCLUDED.chunk_offset,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				updated_at = now()`,
			r.ID, r.Namespace, r.Source, r.Offset, r.Content,
			pgvector.NewVector(r.Embedding),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Warn("closing upsert batch", "error", err)
		}
	}()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting record %s: %w", records[i].ID, err)
		}
	}

	s.logger.Debug("records upserted", "count", len(records))
	return nil
}

// Query returns the k records in namespace nearest to the given embedding,
// ordered by ascending cosine distance. Ties on distance break on record ID
// so results are deterministic.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, namespace string) ([]Match, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("query embedding has %d dimensions, want %d",
			len(embedding), VectorDimension)
	}
	if k < 1 {
		return nil, fmt.Errorf("query limit must be positive, got %d", k)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source, content, 1 - (embedding <=> $1) AS similarity
		FROM chunks
		WHERE namespace = $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`,
		pgvector.NewVector(embedding), namespace, k,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Source, &m.Content, &m.Score); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// Count returns the number of records in a namespace.
func (s *Store) Count(ctx context.Context, namespace string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE namespace = $1`, namespace,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteNamespace removes every record in a namespace. Used to rebuild an
// index from scratch.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chunks WHERE namespace = $1`, namespace)
	if err != nil {
		return 0, fmt.Errorf("deleting namespace %s: %w", namespace, err)
	}
	return tag.RowsAffected(), nil
}
