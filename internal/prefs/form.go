package prefs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// State is the lifecycle of the favorites form.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FormView is a snapshot of the form for rendering.
type FormView struct {
	State     State
	Saved     []string
	Selection []string
	Dirty     bool
	Err       error
}

// Form edits the favorite lines: load, toggle locally, then save or clear.
// Every operation leaves the form Ready or Failed, never Loading.
type Form struct {
	mu     sync.Mutex
	store  *Store
	logger *slog.Logger

	state State
	saved []string
	sel   *Selection
	err   error
}

func NewForm(store *Store, logger *slog.Logger) *Form {
	sel, _ := NewSelection()
	return &Form{store: store, logger: logger, sel: sel}
}

// Load reads the saved lines and seeds the selection with them.
func (f *Form) Load(ctx context.Context) error {
	f.mu.Lock()
	f.state = Loading
	f.mu.Unlock()

	lines, err := f.store.Load(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.fail(err)
		return err
	}
	sel, err := NewSelection(lines...)
	if err != nil {
		// Rows written by something else; keep the known ones.
		f.logger.Warn("ignoring unknown saved lines", "error", err)
		sel, _ = NewSelection()
		for _, l := range lines {
			if IsLine(l) {
				sel.Toggle(l)
			}
		}
	}
	f.sel = sel
	f.saved = sel.Lines()
	f.state = Ready
	f.err = nil
	return nil
}

// Toggle flips one line in the local selection.
func (f *Form) Toggle(line string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel.Toggle(line)
}

// Save persists the current selection.
func (f *Form) Save(ctx context.Context) error {
	f.mu.Lock()
	lines := f.sel.Lines()
	f.mu.Unlock()

	err := f.store.SaveAll(ctx, lines)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.fail(err)
		return err
	}
	f.saved = lines
	f.state = Ready
	f.err = nil
	return nil
}

// Clear deletes every saved line and empties the selection.
func (f *Form) Clear(ctx context.Context) error {
	err := f.store.Clear(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.fail(err)
		return err
	}
	f.sel.Reset()
	f.saved = nil
	f.state = Ready
	f.err = nil
	return nil
}

// Saved returns the lines last loaded or saved.
func (f *Form) Saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.saved)
}

func (f *Form) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel := f.sel.Lines()
	return FormView{
		State:     f.state,
		Saved:     slices.Clone(f.saved),
		Selection: sel,
		Dirty:     !slices.Equal(sel, f.saved),
		Err:       f.err,
	}
}

func (f *Form) fail(err error) {
	f.logger.Error("favorites form failed", "error", err)
	f.state = Failed
	f.err = err
}
