// Package handlers contains the HTTP handlers for the question-answering
// API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"strings"

	"github.com/scrollab/askdocs/internal/answer"
	"github.com/scrollab/askdocs/internal/log"
	"github.com/scrollab/askdocs/internal/web/sse"
)

// maxRequestBody bounds the chat request size. Questions are short; a large
// body is either a mistake or abuse.
const maxRequestBody = 1 << 20

// Answerer produces an event stream for a question.
type Answerer interface {
	Stream(ctx context.Context, question string, history []answer.Turn) iter.Seq2[answer.Event, error]
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Question string        `json:"question"`
	History  []answer.Turn `json:"history"`
}

// errorResponse is the JSON body for non-streaming errors.
type errorResponse struct {
	Error string `json:"error"`
}

// Chat streams answers over SSE.
type Chat struct {
	answerer Answerer
	logger   log.Logger
}

// NewChat creates the chat handler.
func NewChat(answerer Answerer, logger log.Logger) *Chat {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chat{answerer: answerer, logger: logger}
}

// ServeHTTP handles POST /api/chat. Request validation failures are plain
// JSON errors; once streaming starts, failures degrade to a truncated answer
// and the [DONE] sentinel is always sent.
func (h *Chat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		h.logger.Error("response writer cannot stream", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	h.logger.Info("question received",
		"question_len", len(req.Question),
		"history_turns", len(req.History))

	streamErr := h.stream(ctx, writer, req)

	// The sentinel terminates the stream in every outcome. If the client is
	// gone the write fails, which is fine.
	if err := writer.WriteDone(); err != nil {
		h.logger.Debug("sending done sentinel", "error", err)
	}

	switch {
	case streamErr == nil:
	case errors.Is(streamErr, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		h.logger.Debug("client disconnected mid-stream")
	default:
		h.logger.Error("answer stream failed", "error", streamErr)
	}
}

// stream forwards answer events to the SSE writer until the stream ends or
// the client disconnects.
func (h *Chat) stream(ctx context.Context, writer *sse.Writer, req chatRequest) error {
	for ev, err := range h.answerer.Stream(ctx, req.Question, req.History) {
		if err != nil {
			return err
		}
		switch ev.Kind {
		case answer.EventSourceDocs:
			if err := writer.WriteSourceDocs(ctx, ev.SourceDocs); err != nil {
				return err
			}
		case answer.EventToken:
			if err := writer.WriteToken(ctx, ev.Token); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseRequest decodes and validates the request body, writing an error
// response itself when validation fails.
func (h *Chat) parseRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Debug("rejecting malformed chat request", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return chatRequest{}, false
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSONError(w, http.StatusBadRequest, "question must not be empty")
		return chatRequest{}, false
	}

	return req, true
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
