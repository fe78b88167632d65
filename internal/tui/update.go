package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/scrollab/askdocs/internal/chatclient"
)

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case streamStartedMsg:
		m.eventCh = msg.eventCh
		m.cancel = msg.cancel
		return m, tea.Batch(listenForStream(m.eventCh), m.spinner.Tick)
	case streamEventMsg:
		return m.handleStreamEvent(msg.event)
	case streamClosedMsg:
		return m.handleStreamClosed()
	case spinner.TickMsg:
		if m.inFlight() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) inFlight() bool {
	return m.state.Phase != chatclient.PhaseIdle
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// transcript area: everything minus input line, status line and margins
	vh := msg.Height - 4
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vh
	m.md.UpdateWidth(msg.Width - 2)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case tea.KeyEnter:
		return m.handleSubmit()
	case tea.KeyPgUp:
		m.viewport.ScrollUp(3)
		return m, nil
	case tea.KeyPgDown:
		m.viewport.ScrollDown(3)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.inFlight() {
		// one request at a time
		return m, nil
	}

	question := strings.TrimSpace(m.input.Value())
	next := chatclient.Reduce(m.state, chatclient.StateEvent{
		Type:     chatclient.EventSubmit,
		Question: question,
	})
	if next.Phase == chatclient.PhaseIdle {
		// empty question: reducer refused, nothing to send
		return m, nil
	}

	m.state = next
	m.input.Reset()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, m.startStream(question)
}

func (m Model) handleStreamEvent(event streamEvent) (tea.Model, tea.Cmd) {
	if event.err != nil {
		m.state = chatclient.Reduce(m.state, chatclient.StateEvent{
			Type: chatclient.EventError,
			Err:  event.err,
		})
		m.refreshViewport()
		return m.finishStream(), nil
	}

	m.state = chatclient.Reduce(m.state, event.ev)
	m.refreshViewport()
	m.viewport.GotoBottom()

	if event.ev.Type == chatclient.EventDone {
		return m.finishStream(), nil
	}
	return m, listenForStream(m.eventCh)
}

// handleStreamClosed handles channel exhaustion. A close while a request is
// still in flight means no terminal event arrived; the conversation must be
// returned to idle or input stays blocked.
func (m Model) handleStreamClosed() (tea.Model, tea.Cmd) {
	if m.inFlight() {
		m.state = chatclient.Reduce(m.state, chatclient.StateEvent{
			Type: chatclient.EventError,
			Err:  errors.New("stream ended unexpectedly"),
		})
		m.refreshViewport()
	}
	return m.finishStream(), nil
}

// finishStream releases the transport. The sentinel already arrived (or the
// stream failed), so canceling here is the voluntary self-cancel that frees
// the connection.
func (m Model) finishStream() Model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.eventCh = nil
	return m
}
