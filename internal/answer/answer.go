// Package answer produces retrieval-augmented, streamed answers. It fetches
// relevant chunks, folds them with the conversation history into a prompt,
// and yields source attributions followed by answer tokens as the model
// produces them.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

// SourceDoc is the attribution for one retrieved chunk, in the shape the
// wire protocol and clients expect.
type SourceDoc struct {
	PageContent string            `json:"pageContent"`
	Metadata    SourceDocMetadata `json:"metadata"`
}

// SourceDocMetadata carries the originating file path of a chunk.
type SourceDocMetadata struct {
	Source string `json:"source"`
}

// Turn is one completed question/answer exchange. On the wire it is a
// two-element array ["question", "answer"].
type Turn struct {
	Question string
	Answer   string
}

// MarshalJSON encodes the turn as a pair.
func (t Turn) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal([2]string{t.Question, t.Answer})
	if err != nil {
		return nil, fmt.Errorf("marshal turn: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a ["question", "answer"] pair.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("history entry must be a string pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("history entry must have 2 elements, got %d", len(pair))
	}
	t.Question, t.Answer = pair[0], pair[1]
	return nil
}

// EventKind discriminates stream events.
type EventKind int

const (
	// EventSourceDocs carries the retrieved attributions. Emitted exactly
	// once, before any token.
	EventSourceDocs EventKind = iota

	// EventToken carries one answer fragment.
	EventToken
)

// Event is one element of an answer stream.
type Event struct {
	Kind       EventKind
	Token      string
	SourceDocs []SourceDoc
}

// Retriever finds chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]index.Match, error)
}

// Generator streams a model response for a prompt. onToken is invoked for
// each fragment as it arrives; returning an error from onToken aborts the
// generation.
type Generator interface {
	Generate(ctx context.Context, prompt string, onToken func(token string) error) error
}

// Answerer runs the question-answering pipeline.
type Answerer struct {
	retriever    Retriever
	generator    Generator
	historyTurns int
	logger       log.Logger
}

// New creates an Answerer. historyTurns caps how many trailing exchanges of
// the conversation are folded into the prompt.
func New(retriever Retriever, generator Generator, historyTurns int, logger log.Logger) *Answerer {
	if logger == nil {
		logger = log.NewNop()
	}
	if historyTurns < 0 {
		historyTurns = 0
	}
	return &Answerer{
		retriever:    retriever,
		generator:    generator,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

// Stream answers a question. The sequence yields the source documents first,
// then tokens in generation order. A non-nil error terminates the sequence;
// tokens yielded before the error remain valid, so consumers can degrade to
// a partial answer.
func (a *Answerer) Stream(ctx context.Context, question string, history []Turn) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		question = strings.TrimSpace(question)
		if question == "" {
			yield(Event{}, fmt.Errorf("question must not be empty"))
			return
		}

		matches, err := a.retriever.Retrieve(ctx, question)
		if err != nil {
			yield(Event{}, fmt.Errorf("retrieving context: %w", err))
			return
		}

		docs := make([]SourceDoc, len(matches))
		for i, m := range matches {
			docs[i] = SourceDoc{
				PageContent: m.Content,
				Metadata:    SourceDocMetadata{Source: m.Source},
			}
		}
		if !yield(Event{Kind: EventSourceDocs, SourceDocs: docs}, nil) {
			return
		}

		prompt := a.buildPrompt(question, history, matches)

		stop := false
		err = a.generator.Generate(ctx, prompt, func(token string) error {
			if !yield(Event{Kind: EventToken, Token: token}, nil) {
				stop = true
				return context.Canceled
			}
			return nil
		})
		if err != nil && !stop {
			yield(Event{}, fmt.Errorf("generating answer: %w", err))
		}
	}
}

const promptHeader = `You are a helpful assistant answering questions about technical documentation.
Answer using only the provided context. If the answer is not in the context,
say you are not sure instead of guessing. Answer in markdown.`

// buildPrompt assembles the generation prompt from the question, the trailing
// conversation history and the retrieved chunks.
func (a *Answerer) buildPrompt(question string, history []Turn, matches []index.Match) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nContext:\n")
	for _, m := range matches {
		b.WriteString("---\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			b.WriteString("Human: ")
			b.WriteString(turn.Question)
			b.WriteString("\nAssistant: ")
			b.WriteString(turn.Answer)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
