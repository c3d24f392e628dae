// README: Retrieval ranking tests.
package knowledge

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// fakeEmbedder returns canned vectors keyed by text; unknown texts embed to
// the zero-ish vector.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func cachedService(embedder *fakeEmbedder, chunks []Chunk) *Service {
	return &Service{
		embedder: embedder,
		log:      zap.NewNop(),
		chunks:   chunks,
		loaded:   true,
	}
}

func TestRetrieveRanksByCosine(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"qual o horário de almoço?": {1, 0, 0},
	}}
	svc := cachedService(embedder, []Chunk{
		{Title: "Pets", Content: "Aceitamos pets na varanda.", Embedding: []float32{0, 1, 0}},
		{Title: "Horários", Content: "Almoço de 12h às 15h.", Embedding: []float32{0.9, 0.1, 0}},
		{Title: "Endereço", Content: "Rua das Flores, 10.", Embedding: []float32{0.5, 0.5, 0}},
	})

	passages, err := svc.Retrieve(context.Background(), "qual o horário de almoço?", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("len = %d, want 2", len(passages))
	}
	if passages[0].Title != "Horários" {
		t.Errorf("top passage = %q", passages[0].Title)
	}
	if passages[0].Score < passages[1].Score {
		t.Errorf("scores out of order: %v", passages)
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	svc := cachedService(&fakeEmbedder{vectors: map[string][]float32{}}, nil)
	if _, err := svc.Retrieve(context.Background(), "oi", 3); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("err = %v, want ErrEmptyCorpus", err)
	}
}

func TestRetrieveRetriesEmbeddingOnce(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("transient")}
	svc := cachedService(embedder, []Chunk{{Title: "x", Content: "y", Embedding: []float32{1}}})

	if _, err := svc.Retrieve(context.Background(), "oi", 3); err == nil {
		t.Fatal("expected error")
	}
	if embedder.calls != 2 {
		t.Errorf("embed calls = %d, want 2", embedder.calls)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{nil, []float32{1}, 0},
		{[]float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tc := range cases {
		got := cosineSimilarity(tc.a, tc.b)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("cosine(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
