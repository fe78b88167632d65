// Package sse implements the Server-Sent Events wire protocol for answer
// streams. Every event payload is a single data line: a JSON object carrying
// either answer tokens or source documents, or the literal [DONE] sentinel.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/scrollab/askdocs/internal/answer"
)

// DoneSentinel is the literal terminal payload. It is not JSON; clients
// match it byte-for-byte before attempting to parse.
const DoneSentinel = "[DONE]"

// tokenEvent is the payload shape for one answer fragment.
type tokenEvent struct {
	Data string `json:"data"`
}

// sourceDocsEvent is the payload shape for the attribution event.
type sourceDocsEvent struct {
	SourceDocs []answer.SourceDoc `json:"sourceDocs"`
}

// Writer streams SSE events over an http.ResponseWriter, flushing after
// every event so tokens reach the client as they are produced.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter prepares w for event streaming and sets the SSE headers.
// Fails when the writer cannot flush, since unflushed streaming defeats the
// protocol.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	return &Writer{w: w, flusher: flusher}, nil
}

// writeData emits one event with a single data line and flushes. payload
// must not contain raw newlines; JSON encoding guarantees that.
func (w *Writer) writeData(ctx context.Context, payload string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("client gone: %w", ctx.Err())
	default:
	}

	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteToken sends one answer fragment as {"data": "<token>"}.
func (w *Writer) WriteToken(ctx context.Context, token string) error {
	payload, err := json.Marshal(tokenEvent{Data: token})
	if err != nil {
		return fmt.Errorf("encoding token event: %w", err)
	}
	return w.writeData(ctx, string(payload))
}

// WriteSourceDocs sends the attribution list as {"sourceDocs": [...]}.
// A nil slice is encoded as an empty array so clients always see a list.
func (w *Writer) WriteSourceDocs(ctx context.Context, docs []answer.SourceDoc) error {
	if docs == nil {
		docs = []answer.SourceDoc{}
	}
	payload, err := json.Marshal(sourceDocsEvent{SourceDocs: docs})
	if err != nil {
		return fmt.Errorf("encoding sourceDocs event: %w", err)
	}
	return w.writeData(ctx, string(payload))
}

// WriteDone sends the terminal sentinel. It ignores context cancellation:
// the sentinel is the stream's only termination marker and must be attempted
// even during shutdown.
func (w *Writer) WriteDone() error {
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", DoneSentinel); err != nil {
		return fmt.Errorf("writing done sentinel: %w", err)
	}
	w.flusher.Flush()
	return nil
}
