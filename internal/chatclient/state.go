// Package chatclient implements the client half of the answer protocol: a
// pure conversation reducer, an SSE stream consumer and citation rewriting.
package chatclient

import (
	"strings"

	"github.com/scrollab/askdocs/internal/answer"
)

// Phase is the conversation lifecycle state.
type Phase int

const (
	// PhaseIdle means no request is in flight.
	PhaseIdle Phase = iota

	// PhaseAwaitingFirstEvent means a question was submitted and nothing has
	// arrived yet.
	PhaseAwaitingFirstEvent

	// PhaseStreaming means at least one token has arrived.
	PhaseStreaming
)

// Role tags a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the rendered transcript.
type Message struct {
	Role       Role
	Text       string
	SourceDocs []answer.SourceDoc
}

// State is the full conversation state. It is a value: the reducer returns a
// new State and never mutates its input, so any event sequence can be
// replayed deterministically.
type State struct {
	Phase    Phase
	Messages []Message
	History  []answer.Turn

	// Question is the in-flight question, set between submit and finalize.
	Question string
	// Pending accumulates streamed tokens for the in-flight answer.
	Pending string
	// PendingSourceDocs holds attributions received for the in-flight
	// answer; merged into the finalized message.
	PendingSourceDocs []answer.SourceDoc
	// HasPendingSourceDocs distinguishes "no docs yet" from "empty list".
	HasPendingSourceDocs bool

	// Err is the last stream failure, cleared on the next submit.
	Err error
}

// NewState returns an idle conversation seeded with a greeting.
func NewState(greeting string) State {
	s := State{Phase: PhaseIdle}
	if greeting != "" {
		s.Messages = []Message{{Role: RoleAssistant, Text: greeting}}
	}
	return s
}

// EventType discriminates reducer inputs.
type EventType int

const (
	// EventSubmit carries the user's question.
	EventSubmit EventType = iota

	// EventToken carries one answer fragment from the stream.
	EventToken

	// EventSourceDocs carries the attribution payload.
	EventSourceDocs

	// EventDone is the terminal sentinel.
	EventDone

	// EventError reports a transport or stream failure.
	EventError
)

// StateEvent is one reducer input.
type StateEvent struct {
	Type       EventType
	Question   string
	Token      string
	SourceDocs []answer.SourceDoc
	Err        error
}

// Reduce applies one event and returns the next state. Invalid events for
// the current phase leave the state unchanged.
//
// The lifecycle:
//
//	Idle --submit--> AwaitingFirstEvent --token--> Streaming --done--> Idle
//
// On the terminal sentinel the pending answer and its attributions become a
// finalized assistant message, and (question, answer) is appended to History
// for the next request.
func Reduce(s State, ev StateEvent) State {
	switch ev.Type {
	case EventSubmit:
		return reduceSubmit(s, ev)
	case EventToken:
		return reduceToken(s, ev)
	case EventSourceDocs:
		return reduceSourceDocs(s, ev)
	case EventDone:
		return reduceDone(s)
	case EventError:
		return reduceError(s, ev)
	default:
		return s
	}
}

func reduceSubmit(s State, ev StateEvent) State {
	question := strings.TrimSpace(ev.Question)
	// An empty question is a no-op: no message appended, no request implied.
	if question == "" {
		return s
	}
	if s.Phase != PhaseIdle {
		return s
	}

	next := clone(s)
	next.Phase = PhaseAwaitingFirstEvent
	next.Question = question
	next.Pending = ""
	next.PendingSourceDocs = nil
	next.HasPendingSourceDocs = false
	next.Err = nil
	next.Messages = append(next.Messages, Message{Role: RoleUser, Text: question})
	return next
}

func reduceToken(s State, ev StateEvent) State {
	if s.Phase != PhaseAwaitingFirstEvent && s.Phase != PhaseStreaming {
		return s
	}

	next := clone(s)
	next.Phase = PhaseStreaming
	next.Pending += ev.Token
	return next
}

func reduceSourceDocs(s State, ev StateEvent) State {
	if s.Phase != PhaseAwaitingFirstEvent && s.Phase != PhaseStreaming {
		return s
	}

	next := clone(s)
	// Overwrite, not append: the protocol sends at most one payload, and a
	// duplicate means the later one wins.
	next.PendingSourceDocs = ev.SourceDocs
	next.HasPendingSourceDocs = true
	return next
}

func reduceDone(s State) State {
	if s.Phase != PhaseAwaitingFirstEvent && s.Phase != PhaseStreaming {
		return s
	}

	next := clone(s)
	next.Messages = append(next.Messages, Message{
		Role:       RoleAssistant,
		Text:       s.Pending,
		SourceDocs: s.PendingSourceDocs,
	})
	next.History = append(next.History, answer.Turn{
		Question: s.Question,
		Answer:   s.Pending,
	})
	next.Phase = PhaseIdle
	next.Question = ""
	next.Pending = ""
	next.PendingSourceDocs = nil
	next.HasPendingSourceDocs = false
	return next
}

func reduceError(s State, ev StateEvent) State {
	if s.Phase != PhaseAwaitingFirstEvent && s.Phase != PhaseStreaming {
		return s
	}

	// Partial transcript is retained: whatever streamed stays visible as a
	// finalized message, the conversation just stops loading. With nothing
	// streamed yet there is nothing to keep.
	var next State
	if s.Pending != "" {
		next = reduceDone(s)
	} else {
		next = clone(s)
		next.Phase = PhaseIdle
		next.Question = ""
		next.PendingSourceDocs = nil
		next.HasPendingSourceDocs = false
	}
	next.Err = ev.Err
	return next
}

// clone copies the state with fresh slice headers so appends on the next
// state never alias the previous one.
func clone(s State) State {
	next := s
	next.Messages = append([]Message(nil), s.Messages...)
	next.History = append([]answer.Turn(nil), s.History...)
	next.PendingSourceDocs = append([]answer.SourceDoc(nil), s.PendingSourceDocs...)
	return next
}
