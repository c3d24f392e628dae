// README: Corpus store backed by PostgreSQL.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrChunkNotFound = errors.New("corpus chunk not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert stores a chunk with its embedding. Embeddings are kept as JSON
// arrays; the corpus is small enough to rank in memory.
func (s *Store) Insert(ctx context.Context, c *Chunk) error {
	embedding, err := json.Marshal(c.Embedding)
	if err != nil {
		return err
	}
	row := s.db.QueryRow(ctx, `
        INSERT INTO corpus_chunks (title, content, embedding, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`,
		c.Title, c.Content, embedding, time.Now(),
	)
	return row.Scan(&c.ID)
}

// All loads the whole corpus with embeddings.
func (s *Store) All(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, title, content, embedding, created_at
        FROM corpus_chunks
        ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &embedding, &c.CreatedAt); err != nil {
			return nil, err
		}
		if len(embedding) > 0 {
			if err := json.Unmarshal(embedding, &c.Embedding); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Get fetches one chunk by id.
func (s *Store) Get(ctx context.Context, id int64) (*Chunk, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, title, content, embedding, created_at
        FROM corpus_chunks
        WHERE id = $1`, id,
	)
	var c Chunk
	var embedding []byte
	err := row.Scan(&c.ID, &c.Title, &c.Content, &embedding, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(embedding) > 0 {
		if err := json.Unmarshal(embedding, &c.Embedding); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Delete removes a chunk from the corpus.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM corpus_chunks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChunkNotFound
	}
	return nil
}
