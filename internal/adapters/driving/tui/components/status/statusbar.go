// Package status provides the chat status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/styles"
)

// State is the chat state shown on the left of the bar.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar displays the SRD, answer mode, state and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	srdID      string
	generative bool
	state      State
	message    string
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	mode := "extractive"
	if s.generative {
		mode = "generative"
	}
	head := s.styles.Normal.Render(fmt.Sprintf("%s [%s]", s.srdID, mode))

	switch s.state {
	case StateThinking:
		return head + " " + s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			return head + " " + s.styles.Error.Render("Error: "+s.message)
		}
		return head + " " + s.styles.Error.Render("Error")
	case StateReady:
		if s.message != "" {
			return head + " " + s.styles.Muted.Render(s.message)
		}
	}
	return head
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetSRD sets the SRD being chatted about.
func (s *Bar) SetSRD(srdID string) {
	s.srdID = srdID
}

// SetGenerative sets the displayed answer mode.
func (s *Bar) SetGenerative(generative bool) {
	s.generative = generative
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
