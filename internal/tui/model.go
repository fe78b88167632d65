// Package tui is the terminal chat client: a Bubble Tea program that drives
// the conversation reducer with events from the answer stream.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/scrollab/askdocs/internal/chatclient"
	"github.com/scrollab/askdocs/internal/log"
)

// Greeting seeds the transcript before the first question.
const Greeting = "Hi, what would you like to learn about these docs?"

// Model is the Bubble Tea model for the chat session.
type Model struct {
	client   *chatclient.Client
	rewriter chatclient.SourceRewriter
	logger   log.Logger

	state chatclient.State

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	md       *markdownRenderer

	width  int
	height int
	ready  bool

	// cancel aborts the in-flight stream; nil when idle.
	cancel  context.CancelFunc
	eventCh <-chan streamEvent
}

// New creates the chat model.
func New(client *chatclient.Client, rewriter chatclient.SourceRewriter, logger log.Logger) Model {
	if logger == nil {
		logger = log.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		client:   client,
		rewriter: rewriter,
		logger:   logger,
		state:    chatclient.NewState(Greeting),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		md:       newMarkdownRenderer(80),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Run starts the program and blocks until quit.
func Run(client *chatclient.Client, rewriter chatclient.SourceRewriter, logger log.Logger) error {
	p := tea.NewProgram(New(client, rewriter, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
