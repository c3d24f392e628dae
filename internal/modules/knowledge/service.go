// README: Knowledge retriever; embeds queries and ranks corpus chunks by cosine similarity.
package knowledge

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"mesa/internal/ai"
)

var ErrEmptyCorpus = errors.New("knowledge corpus is empty")

// Service answers FAQ queries from the corpus. Chunks and embeddings are
// cached in memory after the first load; the corpus only changes through
// Ingest.
type Service struct {
	store    *Store
	embedder ai.Embedder
	log      *zap.Logger

	mu     sync.RWMutex
	chunks []Chunk
	loaded bool
}

func NewService(store *Store, embedder ai.Embedder, log *zap.Logger) *Service {
	return &Service{store: store, embedder: embedder, log: log}
}

// Load reads the corpus into the cache. Called at startup; safe to call
// again to refresh.
func (s *Service) Load(ctx context.Context) error {
	chunks, err := s.store.All(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.chunks = chunks
	s.loaded = true
	s.mu.Unlock()
	s.log.Info("knowledge corpus loaded", zap.Int("chunks", len(chunks)))
	return nil
}

// Ingest embeds and stores new corpus chunks, then refreshes the cache.
func (s *Service) Ingest(ctx context.Context, titles, contents []string) error {
	if len(titles) != len(contents) {
		return errors.New("titles and contents length mismatch")
	}
	embeddings, err := s.embedder.EmbedTexts(ctx, contents)
	if err != nil {
		return err
	}
	for i := range contents {
		chunk := &Chunk{Title: titles[i], Content: contents[i], Embedding: embeddings[i]}
		if err := s.store.Insert(ctx, chunk); err != nil {
			return err
		}
	}
	return s.Load(ctx)
}

// Retrieve returns the k chunks most similar to the query. The query
// embedding call is read-only and retried once on failure.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		s.log.Debug("query embedding failed, retrying once", zap.Error(err))
		vectors, err = s.embedder.EmbedTexts(ctx, []string{query})
		if err != nil {
			return nil, err
		}
	}
	queryVec := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) == 0 {
		return nil, ErrEmptyCorpus
	}

	passages := make([]Passage, 0, len(s.chunks))
	for _, c := range s.chunks {
		passages = append(passages, Passage{
			Title:   c.Title,
			Content: c.Content,
			Score:   cosineSimilarity(queryVec, c.Embedding),
		})
	}
	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })
	if k > 0 && len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
