package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Options configures a chat session.
type Options struct {
	SRDID string

	// Generative starts the session in generative mode.
	Generative bool

	// TopK overrides the configured k when positive.
	TopK int
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	opts   Options
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	transcript *transcript.Transcript
	status     *status.Bar

	// pending is true while a question is in flight.
	pending bool

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat session over the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if !domain.ValidSRDID(opts.SRDID) {
		return nil, fmt.Errorf("creating app: %w", ErrMissingSRD)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetSRD(opts.SRDID)
	bar.SetGenerative(opts.Generative)

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		opts:       opts,
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s),
		status:     bar,
	}, nil
}

// WithContext sets the context questions are asked under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("scribe - "+a.opts.SRDID),
		a.input.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.pending = false
		a.transcript.Append(transcript.Turn{
			Question: msg.Question,
			Response: msg.Response,
			Err:      msg.Err,
		})
		if msg.Err != nil {
			a.status.SetState(status.StateError)
			a.status.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.status.SetState(status.StateReady)
		a.status.SetMessage(transcript.Provenance(msg.Response))
		return a, nil
	}

	a.transcript, cmd = a.transcript.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.ToggleGenerative):
		a.opts.Generative = !a.opts.Generative
		a.status.SetGenerative(a.opts.Generative)
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Clear):
		a.transcript.Clear()
		a.status.SetState(status.StateReady)
		a.status.SetMessage("")
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollUp):
		a.transcript.ScrollUp()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollDown):
		a.transcript.ScrollDown()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Ask):
		question := strings.TrimSpace(a.input.Value())
		if question == "" || a.pending {
			return a, nil
		}
		a.input.Reset()
		a.pending = true
		a.status.SetState(status.StateThinking)
		a.status.SetMessage("")
		return a, a.ask(question)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask runs one question through the query service. Chat turns are always
// framed conversationally.
func (a *App) ask(question string) tea.Cmd {
	req := domain.QueryRequest{
		Query:          question,
		SRDID:          a.opts.SRDID,
		UseGenerative:  a.opts.Generative,
		Conversational: true,
		TopK:           a.opts.TopK,
	}
	ctx := a.ctx
	query := a.ports.Query

	return func() tea.Msg {
		resp, err := query.Ask(ctx, req)
		return messages.AnswerReceived{Question: question, Response: resp, Err: err}
	}
}

func (a *App) layout() {
	a.status.SetWidth(a.width)
	a.input.SetWidth(a.width)
	// title, input box (3 rows), status bar and two spacer lines
	a.transcript.SetSize(a.width, max(a.height-7, 3))
}

// View implements tea.Model.
func (a *App) View() string {
	title := a.styles.Title.Render("Scribe") + " " + a.styles.Muted.Render(a.opts.SRDID)
	return strings.Join([]string{
		title,
		a.transcript.View(),
		"",
		a.input.View(),
		a.status.View(),
	}, "\n")
}

// Pending reports whether a question is in flight.
func (a *App) Pending() bool {
	return a.pending
}

// Generative reports the current answer mode.
func (a *App) Generative() bool {
	return a.opts.Generative
}

// Transcript returns the chat history.
func (a *App) Transcript() []transcript.Turn {
	return a.transcript.Turns()
}
