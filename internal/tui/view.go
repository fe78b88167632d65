package tui

import (
	"strings"

	"github.com/scrollab/askdocs/internal/chatclient"
)

// View renders the transcript, input line and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("askdocs"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.state.Err != nil:
		return errorStyle.Render("stream interrupted: " + m.state.Err.Error())
	case m.state.Phase == chatclient.PhaseAwaitingFirstEvent:
		return statusStyle.Render(m.spinner.View() + " thinking...")
	case m.state.Phase == chatclient.PhaseStreaming:
		return statusStyle.Render(m.spinner.View() + " answering...")
	default:
		return statusStyle.Render("enter to send, esc to quit")
	}
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) renderTranscript() string {
	var b strings.Builder

	for _, msg := range m.state.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	// the in-flight answer renders as plain text; markdown needs the full
	// document to lay out correctly
	if m.inFlight() {
		b.WriteString(assistantLabelStyle.Render("assistant"))
		b.WriteString("\n")
		b.WriteString(m.state.Pending)
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderMessage(msg chatclient.Message) string {
	var b strings.Builder

	switch msg.Role {
	case chatclient.RoleUser:
		b.WriteString(userLabelStyle.Render("you"))
		b.WriteString("\n")
		b.WriteString(msg.Text)
		b.WriteString("\n")
	default:
		b.WriteString(assistantLabelStyle.Render("assistant"))
		b.WriteString("\n")
		b.WriteString(m.md.Render(msg.Text))
		if cites := m.renderCitations(msg); cites != "" {
			b.WriteString(cites)
		}
	}

	return b.String()
}

// renderCitations lists each source doc's rewritten public URL.
func (m Model) renderCitations(msg chatclient.Message) string {
	if len(msg.SourceDocs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(citationHeaderStyle.Render("sources"))
	b.WriteString("\n")
	seen := make(map[string]bool, len(msg.SourceDocs))
	for _, doc := range msg.SourceDocs {
		url := m.rewriter.Rewrite(doc.Metadata.Source)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		b.WriteString(citationStyle.Render("  • " + url))
		b.WriteString("\n")
	}
	return b.String()
}
