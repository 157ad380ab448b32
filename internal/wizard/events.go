package wizard

// Event is an abstract command applied by Machine.Update. Key decoding
// lives in the presentation layer.
type Event interface {
	event()
}

type (
	// Quit ends the session from any page.
	Quit struct{}
	// Next advances the wizard.
	Next struct{}
	// Back mirrors Next.
	Back struct{}

	// AdjustCount changes the series count by Delta.
	AdjustCount struct{ Delta int }

	// PickerMove moves the file picker cursor.
	PickerMove struct{ Delta int }
	// PickerEnter opens the directory under the cursor or toggles the file.
	PickerEnter struct{}
	// PickerParent lists the parent directory.
	PickerParent struct{}
	// PickerToggle toggles the file under the cursor.
	PickerToggle struct{}
	// ToggleHidden shows or hides dot files.
	ToggleHidden struct{}

	// CycleField focuses the next book data field.
	CycleField struct{}
	SetSeriesName struct{ Value string }
	SetFormat     struct{ Value string }
	SetTitle      struct {
		Row   int
		Value string
	}
	// BeginEdit starts editing the title cell under the table cursor.
	BeginEdit struct{}
	EndEdit   struct{}
	// MoveCursor moves the order table cursor.
	MoveCursor struct{ DRow, DCol int }
	// MoveRowTo moves the highlighted row to Target, shifting the rows in
	// between by one.
	MoveRowTo struct{ Target int }
	// SwapRow swaps the highlighted row with the neighbour Delta away.
	SwapRow struct{ Delta int }
	// RemoveBook drops a row from the current series.
	RemoveBook struct{ Row int }

	// BookDone reports a successful rewrite of the job at the cursor.
	BookDone struct{ Path, NewPath string }
	// BookFailed reports a failed rewrite of the job at the cursor.
	BookFailed struct {
		Path string
		Err  error
	}
	// Skip moves past a failed job.
	Skip struct{}
	// Retry clears the failure of the job at the cursor.
	Retry struct{}
)

func (Quit) event()          {}
func (Next) event()          {}
func (Back) event()          {}
func (AdjustCount) event()   {}
func (PickerMove) event()    {}
func (PickerEnter) event()   {}
func (PickerParent) event()  {}
func (PickerToggle) event()  {}
func (ToggleHidden) event()  {}
func (CycleField) event()    {}
func (SetSeriesName) event() {}
func (SetFormat) event()     {}
func (SetTitle) event()      {}
func (BeginEdit) event()     {}
func (EndEdit) event()       {}
func (MoveCursor) event()    {}
func (MoveRowTo) event()     {}
func (SwapRow) event()       {}
func (RemoveBook) event()    {}
func (BookDone) event()      {}
func (BookFailed) event()    {}
func (Skip) event()          {}
func (Retry) event()         {}
