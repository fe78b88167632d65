package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/scrollab/askdocs/internal/answer"
)

// maxEventSize bounds one SSE line. Tokens are small; sourceDocs payloads
// carry whole chunks, so allow a few megabytes.
const maxEventSize = 4 << 20

// Client talks to the answer endpoint and turns its SSE stream into reducer
// events.
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a Client for the server's base URL. httpClient may be
// nil; streaming requests must not carry a client timeout, cancellation is
// the context's job.
func NewClient(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: httpClient,
	}
}

// Ask submits a question and returns the parsed event stream. The sequence
// ends after the terminal sentinel or yields a non-nil error. Canceling ctx
// tears the stream down.
func (c *Client) Ask(ctx context.Context, question string, history []answer.Turn) iter.Seq2[StateEvent, error] {
	return func(yield func(StateEvent, error) bool) {
		body, err := json.Marshal(struct {
			Question string        `json:"question"`
			History  []answer.Turn `json:"history"`
		}{Question: question, History: history})
		if err != nil {
			yield(StateEvent{}, fmt.Errorf("encoding request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.serverURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			yield(StateEvent{}, fmt.Errorf("building request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			yield(StateEvent{}, fmt.Errorf("sending request: %w", err))
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			yield(StateEvent{}, readErrorResponse(resp))
			return
		}

		consumeStream(resp.Body, yield)
	}
}

// consumeStream parses SSE data lines into events until the sentinel, an
// error, or EOF. EOF before the sentinel is a transport error: the server
// always terminates streams with [DONE].
func consumeStream(body io.Reader, yield func(StateEvent, error) bool) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		// The sentinel is matched literally before any JSON parsing.
		if payload == DoneSentinel {
			yield(StateEvent{Type: EventDone}, nil)
			return
		}

		ev, err := parseEvent(payload)
		if err != nil {
			yield(StateEvent{}, err)
			return
		}
		if !yield(ev, nil) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		yield(StateEvent{}, fmt.Errorf("reading stream: %w", err))
		return
	}
	yield(StateEvent{}, fmt.Errorf("stream ended without terminal sentinel"))
}

// DoneSentinel mirrors the server's terminal payload.
const DoneSentinel = "[DONE]"

// parseEvent decodes one JSON payload into a token or sourceDocs event.
func parseEvent(payload string) (StateEvent, error) {
	var raw struct {
		Data       *string             `json:"data"`
		SourceDocs *[]answer.SourceDoc `json:"sourceDocs"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return StateEvent{}, fmt.Errorf("malformed event payload: %w", err)
	}

	switch {
	case raw.SourceDocs != nil:
		return StateEvent{Type: EventSourceDocs, SourceDocs: *raw.SourceDocs}, nil
	case raw.Data != nil:
		return StateEvent{Type: EventToken, Token: *raw.Data}, nil
	default:
		return StateEvent{}, fmt.Errorf("event payload carries neither data nor sourceDocs: %s", payload)
	}
}

// readErrorResponse extracts the server's error message from a non-200
// response.
func readErrorResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %s: %s", resp.Status, apiErr.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
