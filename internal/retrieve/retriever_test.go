package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
	"github.com/scrollab/askdocs/internal/testutil"
)

type mockEmbedder struct {
	err   error
	calls []string
}

func (m *mockEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, texts...)
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = testutil.DeterministicEmbedding(t)
	}
	return vectors, nil
}

type mockSearcher struct {
	matches []index.Match
	err     error
	gotK    int
	gotNS   string
	gotVec  []float32
}

func (m *mockSearcher) Query(_ context.Context, embedding []float32, k int, namespace string) ([]index.Match, error) {
	m.gotVec = embedding
	m.gotK = k
	m.gotNS = namespace
	return m.matches, m.err
}

func TestRetrieve(t *testing.T) {
	searcher := &mockSearcher{matches: []index.Match{
		{ID: "chunk_1", Source: "/corpus/a.adoc", Content: "alpha", Score: 0.9},
		{ID: "chunk_2", Source: "/corpus/b.adoc", Content: "beta", Score: 0.7},
	}}
	embedder := &mockEmbedder{}

	r, err := New(embedder, searcher, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	matches, err := r.Retrieve(context.Background(), "what is an account?")
	if err != nil {
		t.Fatal(err)
	}

	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if searcher.gotK != 4 || searcher.gotNS != "docs" {
		t.Errorf("query params k=%d ns=%q", searcher.gotK, searcher.gotNS)
	}
	if len(embedder.calls) != 1 || embedder.calls[0] != "what is an account?" {
		t.Errorf("embedder calls = %v", embedder.calls)
	}
}

func TestRetrieve_TrimsQuestion(t *testing.T) {
	embedder := &mockEmbedder{}
	r, err := New(embedder, &mockSearcher{}, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Retrieve(context.Background(), "  question  \n"); err != nil {
		t.Fatal(err)
	}
	if embedder.calls[0] != "question" {
		t.Errorf("question not trimmed before embedding: %q", embedder.calls[0])
	}
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	r, err := New(&mockEmbedder{}, &mockSearcher{}, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Retrieve(context.Background(), "   "); err == nil {
		t.Error("expected error for whitespace-only question")
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	searcher := &mockSearcher{}
	r, err := New(&mockEmbedder{}, searcher, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Retrieve(context.Background(), "same question"); err != nil {
		t.Fatal(err)
	}
	first := append([]float32(nil), searcher.gotVec...)

	if _, err := r.Retrieve(context.Background(), "same question"); err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != searcher.gotVec[i] {
			t.Fatalf("repeat question embedded differently at dimension %d", i)
		}
	}
}

func TestRetrieve_PropagatesErrors(t *testing.T) {
	embedErr := errors.New("embed failed")
	r, err := New(&mockEmbedder{err: embedErr}, &mockSearcher{}, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Retrieve(context.Background(), "q"); !errors.Is(err, embedErr) {
		t.Errorf("embed error not propagated: %v", err)
	}

	queryErr := errors.New("query failed")
	r2, err := New(&mockEmbedder{}, &mockSearcher{err: queryErr}, 4, "docs", log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r2.Retrieve(context.Background(), "q"); !errors.Is(err, queryErr) {
		t.Errorf("query error not propagated: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(&mockEmbedder{}, &mockSearcher{}, 0, "docs", log.NewNop()); err == nil {
		t.Error("expected error for zero top-k")
	}
	if _, err := New(&mockEmbedder{}, &mockSearcher{}, 4, "", log.NewNop()); err == nil {
		t.Error("expected error for empty namespace")
	}
}
