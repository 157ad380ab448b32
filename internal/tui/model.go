package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Options configure a wizard session.
type Options struct {
	// Tick is the interval between driver steps on the loading page.
	Tick   time.Duration
	Logger *slog.Logger
}

// Model is the bubbletea model wrapping the wizard state machine. All
// state transitions go through the machine; the model only keeps what the
// terminal needs: text inputs, the progress bar and the window size.
type Model struct {
	ctx     context.Context
	machine *wizard.Machine
	driver  wizard.Driver
	state   wizard.State
	keys    KeyMap
	tick    time.Duration
	log     *slog.Logger

	series textinput.Model
	format textinput.Model
	title  textinput.Model
	bar    progress.Model

	width     int
	height    int
	activeCmd string
}

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// NewModel returns a model starting on the home page.
func NewModel(ctx context.Context, m *wizard.Machine, d wizard.Driver, opts Options) Model {
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if d.Machine == nil {
		d.Machine = m
	}

	model := Model{
		ctx:     ctx,
		machine: m,
		driver:  d,
		state:   m.Init(),
		keys:    DefaultKeyMap(),
		tick:    opts.Tick,
		log:     opts.Logger,
		series:  newInput("Series name", 200),
		format:  newInput("${series} (${position}) - ${title}", 400),
		title:   newInput("Book title", 400),
		bar:     newProgressBar(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	return model
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 50
	in.Prompt = "│ "
	return in
}

// State returns the current wizard state.
func (m Model) State() wizard.State { return m.state }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd(m.tick))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-8, 80)
		m.series.Width = min(msg.Width-10, 80)
		m.format.Width = m.series.Width
		m.title.Width = m.series.Width
		return m, nil

	case tickMsg:
		if m.state.Page == wizard.PageLoading {
			m.state, _ = m.driver.Step(m.ctx, m.state)
		}
		return m, tickCmd(m.tick)

	case tea.KeyMsg:
		if ev, ok := m.keys.Decode(m.state, msg); ok {
			m = m.apply(ev)
			if m.state.Page == wizard.PageQuit {
				return m, tea.Quit
			}
			m.activeCmd = msg.String()
			return m, HighlightCmd()
		}
		if inTextField(m.state) {
			return m.updateInput(msg)
		}
	}
	return m, nil
}

// apply runs ev through the machine and brings the text inputs in line
// with the resulting state.
func (m Model) apply(ev wizard.Event) Model {
	prev := m.state
	m.state = m.machine.Update(m.state, ev)
	if prev.Page != m.state.Page {
		m.log.Debug("page changed", "from", prev.Page, "to", m.state.Page, "series", m.state.Current)
	}
	m.syncInputs()
	return m
}

// syncInputs loads the active series into the inputs and focuses the one
// the state points at.
func (m *Model) syncInputs() {
	m.series.Blur()
	m.format.Blur()
	m.title.Blur()

	se, ok := m.state.Active()
	if !ok || m.state.Page != wizard.PageBookData {
		return
	}
	m.series.SetValue(se.Name)
	m.format.SetValue(se.Format)
	if se.Row < len(se.Books) {
		m.title.SetValue(se.Books[se.Row].Title)
	}

	switch {
	case m.state.Editing:
		m.title.Focus()
	case m.state.Field == wizard.FieldSeries:
		m.series.Focus()
	case m.state.Field == wizard.FieldFormat:
		m.format.Focus()
	}
}

// updateInput feeds a key to the focused input and reports the new value
// to the machine.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	se, _ := m.state.Active()

	switch {
	case m.state.Editing:
		m.title, cmd = m.title.Update(msg)
		m.state = m.machine.Update(m.state, wizard.SetTitle{Row: se.Row, Value: m.title.Value()})
	case m.state.Field == wizard.FieldSeries:
		m.series, cmd = m.series.Update(msg)
		m.state = m.machine.Update(m.state, wizard.SetSeriesName{Value: m.series.Value()})
	case m.state.Field == wizard.FieldFormat:
		m.format, cmd = m.format.Update(msg)
		m.state = m.machine.Update(m.state, wizard.SetFormat{Value: m.format.Value()})
	}
	return m, cmd
}

// Run shows the wizard until the user quits and returns the final state.
// Terminal modes are restored by the program on every exit path,
// including a panic inside the model.
func Run(ctx context.Context, m *wizard.Machine, d wizard.Driver, opts Options) (wizard.State, error) {
	p := tea.NewProgram(NewModel(ctx, m, d, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return wizard.State{}, fmt.Errorf("running wizard: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return wizard.State{}, fmt.Errorf("unexpected model type")
	}
	return fm.state, nil
}
