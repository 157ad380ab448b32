package tui

import (
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap holds every binding the wizard understands.
type KeyMap struct {
	Abort key.Binding // quits from anywhere, even inside a text field
	Quit  key.Binding
	Next  key.Binding
	Enter key.Binding
	Back  key.Binding

	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Toggle key.Binding
	Hidden key.Binding
	Parent key.Binding

	Cycle    key.Binding
	SwapUp   key.Binding
	SwapDown key.Binding
	Edit     key.Binding
	Remove   key.Binding

	Skip  key.Binding
	Retry key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Abort: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Next: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+n"),
			key.WithHelp("alt+enter", "next"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Hidden: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "show hidden"),
		),
		Parent: key.NewBinding(
			key.WithKeys("backspace", "left", "h"),
			key.WithHelp("backspace", "parent dir"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		SwapUp: key.NewBinding(
			key.WithKeys("shift+up", "alt+up", "K"),
			key.WithHelp("shift+↑", "move up"),
		),
		SwapDown: key.NewBinding(
			key.WithKeys("shift+down", "alt+down", "J"),
			key.WithHelp("shift+↓", "move down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit title"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

// inTextField reports whether typed characters belong to a text input.
func inTextField(s wizard.State) bool {
	if s.Page != wizard.PageBookData {
		return false
	}
	return s.Editing || s.Field != wizard.FieldBookOrder
}

// Decode maps a key press to a wizard event for the given state. It
// returns false when the key means nothing on the current page; inside a
// text field such keys are left to the input.
func (k KeyMap) Decode(s wizard.State, msg tea.KeyMsg) (wizard.Event, bool) {
	switch {
	case key.Matches(msg, k.Abort):
		return wizard.Quit{}, true
	case key.Matches(msg, k.Next):
		return wizard.Next{}, true
	case key.Matches(msg, k.Back):
		return wizard.Back{}, true
	}

	if inTextField(s) {
		switch {
		case key.Matches(msg, k.Cycle):
			return wizard.CycleField{}, true
		case s.Editing && key.Matches(msg, k.Enter):
			return wizard.EndEdit{}, true
		case key.Matches(msg, k.Enter):
			return wizard.Next{}, true
		}
		return nil, false
	}

	if key.Matches(msg, k.Quit) {
		return wizard.Quit{}, true
	}

	switch s.Page {
	case wizard.PageHome:
		if key.Matches(msg, k.Enter) {
			return wizard.Next{}, true
		}
	case wizard.PageSeriesCount:
		return k.decodeCount(msg)
	case wizard.PageFileSelection:
		return k.decodePicker(s, msg)
	case wizard.PageBookData:
		return k.decodeTable(s, msg)
	case wizard.PageLoading:
		switch {
		case key.Matches(msg, k.Skip):
			return wizard.Skip{}, true
		case key.Matches(msg, k.Retry):
			return wizard.Retry{}, true
		case s.Finished() && key.Matches(msg, k.Enter):
			return wizard.Quit{}, true
		}
	}
	return nil, false
}

func (k KeyMap) decodeCount(msg tea.KeyMsg) (wizard.Event, bool) {
	switch {
	case key.Matches(msg, k.Left), key.Matches(msg, k.Down):
		return wizard.AdjustCount{Delta: -1}, true
	case key.Matches(msg, k.Right), key.Matches(msg, k.Up):
		return wizard.AdjustCount{Delta: 1}, true
	case key.Matches(msg, k.Enter):
		return wizard.Next{}, true
	case msg.String() == "backspace":
		return wizard.Back{}, true
	}
	return nil, false
}

func (k KeyMap) decodePicker(s wizard.State, msg tea.KeyMsg) (wizard.Event, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return wizard.PickerMove{Delta: -1}, true
	case key.Matches(msg, k.Down):
		return wizard.PickerMove{Delta: 1}, true
	case key.Matches(msg, k.PageUp):
		return wizard.PickerMove{Delta: -10}, true
	case key.Matches(msg, k.PageDown):
		return wizard.PickerMove{Delta: 10}, true
	case key.Matches(msg, k.Enter):
		return wizard.PickerEnter{}, true
	case key.Matches(msg, k.Right):
		// Right only descends; it never toggles a file.
		if se, ok := s.Active(); ok {
			if e, ok := se.Picker.Selected(); ok && e.IsDir {
				return wizard.PickerEnter{}, true
			}
		}
	case key.Matches(msg, k.Parent):
		return wizard.PickerParent{}, true
	case key.Matches(msg, k.Toggle):
		return wizard.PickerToggle{}, true
	case key.Matches(msg, k.Hidden):
		return wizard.ToggleHidden{}, true
	case key.Matches(msg, k.Cycle):
		return wizard.Next{}, true
	}
	return nil, false
}

func (k KeyMap) decodeTable(s wizard.State, msg tea.KeyMsg) (wizard.Event, bool) {
	se, _ := s.Active()
	switch {
	case key.Matches(msg, k.Cycle):
		return wizard.CycleField{}, true
	case key.Matches(msg, k.SwapUp):
		return wizard.SwapRow{Delta: -1}, true
	case key.Matches(msg, k.SwapDown):
		return wizard.SwapRow{Delta: 1}, true
	case key.Matches(msg, k.Up):
		return wizard.MoveCursor{DRow: -1}, true
	case key.Matches(msg, k.Down):
		return wizard.MoveCursor{DRow: 1}, true
	case key.Matches(msg, k.Left):
		return wizard.MoveCursor{DCol: -1}, true
	case key.Matches(msg, k.Right):
		return wizard.MoveCursor{DCol: 1}, true
	case key.Matches(msg, k.Edit):
		if se.Col == wizard.ColTitle {
			return wizard.BeginEdit{}, true
		}
		return wizard.Next{}, true
	case key.Matches(msg, k.Remove):
		return wizard.RemoveBook{Row: se.Row}, true
	case msg.String() == "backspace":
		return wizard.Back{}, true
	}
	if r := msg.Runes; msg.Type == tea.KeyRunes && len(r) == 1 && r[0] >= '0' && r[0] <= '9' {
		return wizard.MoveRowTo{Target: int(r[0] - '0')}, true
	}
	return nil, false
}
