package testutil

import (
	"bufio"
	"strings"
	"testing"
)

// SSEEvent is one parsed Server-Sent Event.
type SSEEvent struct {
	Type string // event: value, "message" when absent
	Data string // data: value, multi-line joined with \n
}

// ParseSSEEvents parses an SSE response body into structured events.
//
// Follows the W3C stream format:
//   - multiple "data:" lines in one event are joined with newline
//   - an empty line terminates the event
//   - events without an explicit "event:" field default to "message"
//   - lines starting with ":" are comments and ignored
func ParseSSEEvents(t *testing.T, body string) []SSEEvent {
	t.Helper()

	var events []SSEEvent
	var current SSEEvent
	var dataLines []string

	flush := func() {
		if current.Type == "" && len(dataLines) == 0 {
			return
		}
		if current.Type == "" {
			current.Type = "message"
		}
		current.Data = strings.Join(dataLines, "\n")
		events = append(events, current)
		current = SSEEvent{}
		dataLines = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, ":"):
			// comment
		default:
			t.Fatalf("unexpected SSE line %d: %q", lineNum, line)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning SSE body: %v", err)
	}
	flush()

	return events
}
