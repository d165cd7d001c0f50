// Package transcript renders the scrolling question and answer history.
package transcript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Turn is one question with its answer or failure.
type Turn struct {
	Question string
	Response *domain.QueryResponse
	Err      error
}

// Transcript is a viewport over the chat history.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	turns    []Turn
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 20),
	}
}

// Append adds a turn and scrolls to it.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
	t.refresh()
	t.viewport.GotoBottom()
}

// Turns returns the history, oldest first.
func (t *Transcript) Turns() []Turn {
	return t.turns
}

// Clear empties the history.
func (t *Transcript) Clear() {
	t.turns = nil
	t.refresh()
}

// SetSize resizes the viewport and rewraps the history.
func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Update forwards scrolling messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// ScrollUp moves up half a page.
func (t *Transcript) ScrollUp() {
	t.viewport.SetYOffset(t.viewport.YOffset - t.viewport.Height/2)
}

// ScrollDown moves down half a page.
func (t *Transcript) ScrollDown() {
	t.viewport.SetYOffset(t.viewport.YOffset + t.viewport.Height/2)
}

// View renders the visible part of the history.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Content renders the whole history.
func (t *Transcript) Content() string {
	if len(t.turns) == 0 {
		return t.styles.Muted.Render("No questions yet.")
	}

	wrap := lipgloss.NewStyle().Width(max(t.viewport.Width, 20))
	blocks := make([]string, 0, len(t.turns))
	for _, turn := range t.turns {
		var b strings.Builder
		b.WriteString(t.styles.UserLabel.Render("You: "))
		b.WriteString(wrap.Render(turn.Question))
		b.WriteString("\n")

		switch {
		case turn.Err != nil:
			b.WriteString(t.styles.Error.Render("Error: " + turn.Err.Error()))
		case turn.Response != nil:
			b.WriteString(t.styles.BotLabel.Render("Scribe: "))
			b.WriteString(wrap.Render(turn.Response.Answer))
			b.WriteString("\n")
			b.WriteString(t.styles.Provenance.Render(Provenance(turn.Response)))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Content())
}

// Provenance summarises where an answer came from.
func Provenance(resp *domain.QueryResponse) string {
	ids := make([]string, len(resp.SourceChunkIDs))
	for i, id := range resp.SourceChunkIDs {
		ids[i] = strconv.Itoa(id)
	}
	s := fmt.Sprintf("chunks [%s], version %d, %s", strings.Join(ids, ", "), resp.Version, resp.Mode)
	if resp.FromCache {
		s += ", cached"
	}
	return s
}
