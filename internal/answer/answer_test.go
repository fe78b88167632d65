package answer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

type mockRetriever struct {
	matches []index.Match
	err     error
	gotQ    string
}

func (m *mockRetriever) Retrieve(_ context.Context, question string) ([]index.Match, error) {
	m.gotQ = question
	return m.matches, m.err
}

// mockGenerator emits tokens, optionally failing after a prefix.
type mockGenerator struct {
	tokens    []string
	failAfter int // -1 disables; 0 fails before any token
	err       error
	gotPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, onToken func(string) error) error {
	m.gotPrompt = prompt
	for i, tok := range m.tokens {
		if m.failAfter >= 0 && i == m.failAfter {
			return m.err
		}
		if err := onToken(tok); err != nil {
			return err
		}
	}
	if m.failAfter >= 0 && m.failAfter >= len(m.tokens) {
		return m.err
	}
	return nil
}

func collect(t *testing.T, a *Answerer, question string, history []Turn) (events []Event, streamErr error) {
	t.Helper()
	for ev, err := range a.Stream(context.Background(), question, history) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func twoMatches() []index.Match {
	return []index.Match{
		{ID: "chunk_1", Source: "/corpus/accounts.adoc", Content: "accounts are contracts", Score: 0.9},
		{ID: "chunk_2", Source: "/corpus/fees.adoc", Content: "fees are paid in STRK", Score: 0.8},
	}
}

func TestStream_SourceDocsBeforeTokens(t *testing.T) {
	gen := &mockGenerator{tokens: []string{"Accounts ", "are ", "contracts."}, failAfter: -1}
	a := New(&mockRetriever{matches: twoMatches()}, gen, 10, log.NewNop())

	events, err := collect(t, a, "what are accounts?", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Kind != EventSourceDocs {
		t.Fatalf("first event kind = %v, want sourceDocs", events[0].Kind)
	}
	if len(events[0].SourceDocs) != 2 {
		t.Errorf("got %d source docs, want 2", len(events[0].SourceDocs))
	}
	if events[0].SourceDocs[0].Metadata.Source != "/corpus/accounts.adoc" {
		t.Errorf("source doc metadata = %+v", events[0].SourceDocs[0].Metadata)
	}

	var answer strings.Builder
	for _, ev := range events[1:] {
		if ev.Kind != EventToken {
			t.Fatalf("non-token event after sourceDocs: %v", ev.Kind)
		}
		answer.WriteString(ev.Token)
	}
	if answer.String() != "Accounts are contracts." {
		t.Errorf("answer = %q", answer.String())
	}
}

func TestStream_EmptySourceDocsStillEmitted(t *testing.T) {
	gen := &mockGenerator{tokens: []string{"not sure"}, failAfter: -1}
	a := New(&mockRetriever{}, gen, 10, log.NewNop())

	events, err := collect(t, a, "obscure question", nil)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Kind != EventSourceDocs {
		t.Fatal("sourceDocs event missing when retrieval found nothing")
	}
	if len(events[0].SourceDocs) != 0 {
		t.Errorf("got %d source docs, want 0", len(events[0].SourceDocs))
	}
}

func TestStream_RetrievalError(t *testing.T) {
	retErr := errors.New("index down")
	a := New(&mockRetriever{err: retErr}, &mockGenerator{failAfter: -1}, 10, log.NewNop())

	events, err := collect(t, a, "q", nil)
	if !errors.Is(err, retErr) {
		t.Errorf("retrieval error not surfaced: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events before error, want 0", len(events))
	}
}

func TestStream_MidGenerationErrorPreservesTokens(t *testing.T) {
	genErr := errors.New("model aborted")
	gen := &mockGenerator{tokens: []string{"partial ", "answer ", "lost"}, failAfter: 2, err: genErr}
	a := New(&mockRetriever{matches: twoMatches()}, gen, 10, log.NewNop())

	events, err := collect(t, a, "q", nil)
	if !errors.Is(err, genErr) {
		t.Errorf("generation error not surfaced: %v", err)
	}

	var tokens []string
	for _, ev := range events {
		if ev.Kind == EventToken {
			tokens = append(tokens, ev.Token)
		}
	}
	if strings.Join(tokens, "") != "partial answer " {
		t.Errorf("tokens before error = %q", strings.Join(tokens, ""))
	}
}

func TestStream_EmptyQuestion(t *testing.T) {
	a := New(&mockRetriever{}, &mockGenerator{failAfter: -1}, 10, log.NewNop())
	if _, err := collect(t, a, "  \t ", nil); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestStream_EarlyConsumerStop(t *testing.T) {
	gen := &mockGenerator{tokens: []string{"a", "b", "c", "d"}, failAfter: -1}
	a := New(&mockRetriever{matches: twoMatches()}, gen, 10, log.NewNop())

	var count int
	for ev, err := range a.Stream(context.Background(), "q", nil) {
		if err != nil {
			t.Fatalf("consumer break must not surface an error, got %v", err)
		}
		if ev.Kind == EventToken {
			count++
			if count == 2 {
				break
			}
		}
	}
	if count != 2 {
		t.Errorf("consumed %d tokens, want 2", count)
	}
}

func TestBuildPrompt(t *testing.T) {
	gen := &mockGenerator{tokens: []string{"ok"}, failAfter: -1}
	a := New(&mockRetriever{matches: twoMatches()}, gen, 2, log.NewNop())

	history := []Turn{
		{Question: "oldest question", Answer: "oldest answer"},
		{Question: "older question", Answer: "older answer"},
		{Question: "recent question", Answer: "recent answer"},
	}
	if _, err := collect(t, a, "current question", history); err != nil {
		t.Fatal(err)
	}

	prompt := gen.gotPrompt
	if !strings.Contains(prompt, "accounts are contracts") {
		t.Error("retrieved context missing from prompt")
	}
	if !strings.Contains(prompt, "Human: recent question") {
		t.Error("recent history missing from prompt")
	}
	if !strings.Contains(prompt, "Assistant: recent answer") {
		t.Error("recent answer missing from prompt")
	}
	if strings.Contains(prompt, "oldest question") {
		t.Error("history not capped to configured turns")
	}
	if !strings.Contains(prompt, "Question: current question") {
		t.Error("current question missing from prompt")
	}
}

func TestStream_QuestionTrimmedBeforeRetrieval(t *testing.T) {
	retriever := &mockRetriever{matches: twoMatches()}
	gen := &mockGenerator{tokens: []string{"ok"}, failAfter: -1}
	a := New(retriever, gen, 10, log.NewNop())

	if _, err := collect(t, a, "  padded question \n", nil); err != nil {
		t.Fatal(err)
	}
	if retriever.gotQ != "padded question" {
		t.Errorf("question passed to retriever = %q", retriever.gotQ)
	}
}

func TestTurn_JSONPairEncoding(t *testing.T) {
	turn := Turn{Question: "what is STRK?", Answer: "the fee token"}

	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["what is STRK?","the fee token"]` {
		t.Errorf("marshal = %s", data)
	}

	var decoded []Turn
	if err := json.Unmarshal([]byte(`[["q1","a1"],["q2","a2"]]`), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[1].Question != "q2" || decoded[1].Answer != "a2" {
		t.Errorf("decoded = %+v", decoded)
	}

	var bad Turn
	if err := json.Unmarshal([]byte(`["only one"]`), &bad); err == nil {
		t.Error("expected error for 1-element history entry")
	}
	if err := json.Unmarshal([]byte(`{"question":"q"}`), &bad); err == nil {
		t.Error("expected error for object-shaped history entry")
	}
}
