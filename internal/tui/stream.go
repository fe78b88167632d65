package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/scrollab/askdocs/internal/chatclient"
)

// streamBufferSize absorbs token bursts while the UI is mid-render.
const streamBufferSize = 100

// streamEvent is one item off the wire: a reducer event or a failure.
type streamEvent struct {
	ev  chatclient.StateEvent
	err error
}

// streamStartedMsg hands the channel and cancel handle to the model.
type streamStartedMsg struct {
	eventCh <-chan streamEvent
	cancel  context.CancelFunc
}

// streamEventMsg delivers one stream event to Update.
type streamEventMsg struct {
	event streamEvent
}

// streamClosedMsg signals channel exhaustion.
type streamClosedMsg struct{}

// startStream launches the request goroutine and returns the started
// message. The goroutine owns the iterator; panics are converted to error
// events so the UI never hangs on a missing terminal event.
func (m Model) startStream(question string) tea.Cmd {
	history := m.state.History
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		eventCh := make(chan streamEvent, streamBufferSize)

		go func() {
			defer close(eventCh)
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("stream goroutine panic", "panic", r)
					select {
					case eventCh <- streamEvent{err: fmt.Errorf("stream worker panic: %v", r)}:
					case <-ctx.Done():
					}
				}
			}()

			for ev, err := range m.client.Ask(ctx, question, history) {
				select {
				case eventCh <- streamEvent{ev: ev, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}()

		return streamStartedMsg{eventCh: eventCh, cancel: cancel}
	}
}

// listenForStream waits for the next event. Update re-issues it after each
// received message.
func listenForStream(ch <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: event}
	}
}
