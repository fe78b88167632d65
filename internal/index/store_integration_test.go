package index_test

import (
	"context"
	"testing"

	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
	"github.com/scrollab/askdocs/internal/testutil"
)

func record(source string, offset int, content, namespace string) index.Record {
	return index.Record{
		ID:        index.RecordID(source, offset),
		Namespace: namespace,
		Source:    source,
		Offset:    offset,
		Content:   content,
		Embedding: testutil.DeterministicEmbedding(content),
	}
}

func TestStore_UpsertAndQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	records := []index.Record{
		record("/corpus/accounts.adoc", 0, "Accounts on Starknet are smart contracts.", "docs"),
		record("/corpus/accounts.adoc", 800, "Account abstraction enables custom validation.", "docs"),
		record("/corpus/fees.adoc", 0, "Transaction fees are paid in ETH or STRK.", "docs"),
	}
	if err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	count, err := store.Count(ctx, "docs")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// Querying with an exact stored embedding must return that record first
	// with similarity ~1.
	query := testutil.DeterministicEmbedding("Transaction fees are paid in ETH or STRK.")
	matches, err := store.Query(ctx, query, 2, "docs")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Source != "/corpus/fees.adoc" {
		t.Errorf("top match source = %q, want /corpus/fees.adoc", matches[0].Source)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("top match score = %f, want ~1", matches[0].Score)
	}
	if matches[1].Score > matches[0].Score {
		t.Errorf("matches not in descending similarity order")
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	rec := record("/corpus/intro.adoc", 0, "Starknet is a validity rollup.", "docs")
	for range 3 {
		if err := store.Upsert(ctx, []index.Record{rec}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	count, err := store.Count(ctx, "docs")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after re-ingest, want 1", count)
	}
}

func TestStore_UpsertReplacesContent(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	old := record("/corpus/intro.adoc", 0, "old content", "docs")
	if err := store.Upsert(ctx, []index.Record{old}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	updated := record("/corpus/intro.adoc", 0, "new content", "docs")
	if err := store.Upsert(ctx, []index.Record{updated}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := store.Query(ctx, testutil.DeterministicEmbedding("new content"), 1, "docs")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "new content" {
		t.Errorf("updated content not returned: %+v", matches)
	}
}

func TestStore_QueryRespectsNamespace(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	records := []index.Record{
		record("/corpus/a.adoc", 0, "alpha content", "docs"),
		record("/corpus/b.adoc", 0, "beta content", "staging"),
	}
	if err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := store.Query(ctx, testutil.DeterministicEmbedding("beta content"), 10, "docs")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, m := range matches {
		if m.Source == "/corpus/b.adoc" {
			t.Errorf("query leaked record from another namespace")
		}
	}
}

func TestStore_DeleteNamespace(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	records := []index.Record{
		record("/corpus/a.adoc", 0, "alpha", "docs"),
		record("/corpus/b.adoc", 0, "beta", "docs"),
		record("/corpus/c.adoc", 0, "gamma", "other"),
	}
	if err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := store.DeleteNamespace(ctx, "docs")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	count, err := store.Count(ctx, "other")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("other namespace affected, count = %d", count)
	}
}

func TestStore_RejectsWrongDimension(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	db := testutil.SetupTestDB(t)
	store := index.NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	bad := index.Record{
		ID:        index.RecordID("/corpus/a.adoc", 0),
		Namespace: "docs",
		Source:    "/corpus/a.adoc",
		Content:   "x",
		Embedding: make([]float32, 3),
	}
	if err := store.Upsert(ctx, []index.Record{bad}); err == nil {
		t.Error("expected dimension error on upsert")
	}

	if _, err := store.Query(ctx, make([]float32, 3), 1, "docs"); err == nil {
		t.Error("expected dimension error on query")
	}
}
