package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gummiboot-go/loader/internal/catalog"
	"github.com/gummiboot-go/loader/internal/fwvars"
)

// State is one of the five states spec.md §4.4 names.
type State int

const (
	StateShowing State = iota
	StateCountingDown
	StateEditing
	StateExitingBoot
	StateExitingQuit
)

// ErrQuit is returned by Run when the user pressed 'q' (spec.md §4.4
// command 'q'): the caller must not chain-load anything.
var ErrQuit = errors.New("menu: user requested quit")

// countdownHz is the tick rate spec.md §4.4 names for counting_down.
const countdownHz = 10

// Menu drives the interactive boot-entry selection state machine over a
// catalog.Catalog.
type Menu struct {
	Console Console
	Keys    KeyWaiter
	Store   *fwvars.Store

	// VersionBanner is shown by the 'v' command.
	VersionBanner string

	cat          *catalog.Catalog
	idxHighlight int
	idxFirst     int
	idxLast      int
	cols, rows   int
	visibleMax   int
	lineWidth    int
	status       string
}

// New returns a Menu driving console/keys and persisting user decisions
// through store.
func New(console Console, keys KeyWaiter, store *fwvars.Store) *Menu {
	return &Menu{Console: console, Keys: keys, Store: store}
}

// Run executes the state machine over cat until it exits, returning the
// chosen entry (with cat.OptionsEdit populated if the line editor was
// used) or ErrQuit if the user aborted.
func (m *Menu) Run(cat *catalog.Catalog) (*catalog.Entry, error) {
	m.cat = cat
	if len(cat.Entries) == 0 {
		return nil, fmt.Errorf("menu: catalog has no entries")
	}
	m.idxHighlight = clampIndex(cat.IdxDefault, len(cat.Entries))
	m.cols, m.rows = resolveMode(m.Console)
	m.visibleMax = m.rows - 2
	if m.visibleMax < 1 {
		m.visibleMax = 1
	}
	m.lineWidth = computeLineWidth(cat.Entries, m.cols)
	m.recenter()

	state := StateShowing
	remainingDeciseconds := cat.TimeoutSec * countdownHz
	if cat.TimeoutSec > 0 {
		state = StateCountingDown
	}

	m.render(true)

	for {
		switch state {
		case StateShowing, StateCountingDown:
			timeoutMS := -1
			if state == StateCountingDown {
				timeoutMS = 1000 / countdownHz
			}
			key, ok := m.Keys.WaitKey(timeoutMS)
			if !ok {
				if state != StateCountingDown {
					continue
				}
				remainingDeciseconds--
				if remainingDeciseconds <= 0 {
					state = StateExitingBoot
					continue
				}
				m.setStatus(fmt.Sprintf("Boot in %d seconds.", (remainingDeciseconds+countdownHz-1)/countdownHz))
				continue
			}
			// Any keystroke cancels the countdown permanently for this
			// session (spec.md §4.4 "Loop").
			if state == StateCountingDown {
				state = StateShowing
				m.setStatus("")
			}
			state = m.handleKey(key)

		case StateEditing:
			state = m.runEditor()

		case StateExitingBoot:
			entry := cat.Entries[m.idxHighlight]
			if err := m.Store.Set(fwvars.LoaderEntrySelected, entry.ID, false); err != nil {
				return nil, fmt.Errorf("menu: persisting LoaderEntrySelected: %w", err)
			}
			return entry, nil

		case StateExitingQuit:
			return nil, ErrQuit
		}
	}
}

func clampIndex(idx, n int) int {
	if n == 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// computeLineWidth implements spec.md §4.4's "max of 20 and the longest
// title_shown, clamped to the screen width" (minus margins on both
// sides).
func computeLineWidth(entries []*catalog.Entry, cols int) int {
	width := 20
	for _, e := range entries {
		if n := len([]rune(e.TitleShown)); n > width {
			width = n
		}
	}
	maxWidth := cols - 2*marginCols
	if maxWidth < 1 {
		maxWidth = 1
	}
	if width > maxWidth {
		width = maxWidth
	}
	return width
}

// recenter computes [idxFirst, idxLast] such that idxHighlight is in
// view, per spec.md §4.4's initialization and "when the highlight leaves
// the window, recenter" rule.
func (m *Menu) recenter() {
	n := len(m.cat.Entries)
	m.idxFirst = m.idxHighlight - m.visibleMax/2
	if m.idxFirst < 0 {
		m.idxFirst = 0
	}
	m.idxLast = m.idxFirst + m.visibleMax - 1
	if m.idxLast >= n {
		m.idxLast = n - 1
		m.idxFirst = m.idxLast - m.visibleMax + 1
		if m.idxFirst < 0 {
			m.idxFirst = 0
		}
	}
}

func (m *Menu) setStatus(s string) {
	m.status = s
	m.Console.WriteAt(0, m.rows-1, padTo(s, m.cols))
}

func padTo(s string, width int) string {
	if len([]rune(s)) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len([]rune(s)))
}

// render redraws every visible row and the status line, clearing the
// screen first when full is true. moveHighlight redraws just the two
// affected rows itself without calling render.
func (m *Menu) render(full bool) {
	if full {
		m.Console.Clear()
	}
	row := 0
	for i := m.idxFirst; i <= m.idxLast && i < len(m.cat.Entries); i++ {
		m.renderRow(row, i)
		row++
	}
	m.Console.WriteAt(0, m.rows-1, padTo(m.status, m.cols))
}

func (m *Menu) renderRow(row, idx int) {
	e := m.cat.Entries[idx]
	line := e.TitleShown
	if idx == m.idxHighlight {
		line = "> " + line
	} else {
		line = "  " + line
	}
	m.Console.WriteAt(marginCols, row, padTo(line, m.lineWidth))
}

// moveHighlight changes idxHighlight to newIdx, clamped, and redraws
// either just the two affected rows or the whole screen if the window
// had to move, per spec.md §4.4's navigation-key rule.
func (m *Menu) moveHighlight(newIdx int) {
	n := len(m.cat.Entries)
	newIdx = clampIndex(newIdx, n)
	if newIdx == m.idxHighlight {
		return
	}
	oldRow := m.idxHighlight - m.idxFirst
	oldIdx := m.idxHighlight
	m.idxHighlight = newIdx

	if newIdx < m.idxFirst || newIdx > m.idxLast {
		m.recenter()
		m.render(true)
		return
	}

	m.renderRow(oldRow, oldIdx)
	m.renderRow(newIdx-m.idxFirst, newIdx)
}

// handleKey dispatches one keystroke in StateShowing, implementing
// spec.md §4.4's navigation keys and commands.
func (m *Menu) handleKey(key Key) State {
	switch key.Code {
	case CodeUp:
		m.moveHighlight(m.idxHighlight - 1)
		return StateShowing
	case CodeDown:
		m.moveHighlight(m.idxHighlight + 1)
		return StateShowing
	case CodeHome:
		m.moveHighlight(0)
		return StateShowing
	case CodeEnd:
		m.moveHighlight(len(m.cat.Entries) - 1)
		return StateShowing
	case CodePgUp:
		m.moveHighlight(m.idxHighlight - m.visibleMax)
		return StateShowing
	case CodePgDn:
		m.moveHighlight(m.idxHighlight + m.visibleMax)
		return StateShowing
	case CodeEnter:
		return StateExitingBoot
	case CodeF1:
		m.setStatus("Enter boot, d default, e edit, +/- timeout, v version, * dump, q quit")
		return StateShowing
	}

	switch key.Rune {
	case 'q':
		return StateExitingQuit
	case 'd':
		m.toggleDefault()
		return StateShowing
	case '+':
		m.adjustTimeout(1)
		return StateShowing
	case '-':
		m.adjustTimeout(-1)
		return StateShowing
	case 'e':
		return StateEditing
	case 'v':
		m.setStatus(m.VersionBanner)
		return StateShowing
	case '*':
		m.dumpDiagnostics()
		return StateShowing
	}
	return StateShowing
}

// toggleDefault implements spec.md §4.4's 'd' command: toggle
// LoaderEntryDefault between "set to the current entry" and "cleared".
func (m *Menu) toggleDefault() {
	entry := m.cat.Entries[m.idxHighlight]
	if m.cat.IdxDefaultEFIVar == m.idxHighlight {
		if err := m.Store.Set(fwvars.LoaderEntryDefault, "", true); err != nil {
			m.setStatus("Error clearing default: " + err.Error())
			return
		}
		m.cat.IdxDefaultEFIVar = -1
		m.setStatus("Default cleared.")
		return
	}
	if err := m.Store.Set(fwvars.LoaderEntryDefault, entry.ID, true); err != nil {
		m.setStatus("Error setting default: " + err.Error())
		return
	}
	m.cat.IdxDefaultEFIVar = m.idxHighlight
	m.setStatus("Default is now: " + entry.TitleShown)
}

// adjustTimeout implements spec.md §4.4's '+'/'-' commands: persist
// LoaderConfigTimeout, deleting it when '-' would take it to zero or
// below.
func (m *Menu) adjustTimeout(delta int) {
	next := m.cat.TimeoutSec + delta
	if next <= 0 && delta < 0 {
		if err := m.Store.Set(fwvars.LoaderConfigTimeout, "", true); err != nil {
			m.setStatus("Error clearing timeout: " + err.Error())
			return
		}
		m.cat.TimeoutSec = 0
		m.cat.HasTimeoutEFIVar = false
		m.setStatus("Timeout disabled.")
		return
	}
	if next < 0 {
		next = 0
	}
	if err := m.Store.SetInt(fwvars.LoaderConfigTimeout, next, true); err != nil {
		m.setStatus("Error setting timeout: " + err.Error())
		return
	}
	m.cat.TimeoutSec = next
	m.cat.TimeoutSecEFIVar = next
	m.cat.HasTimeoutEFIVar = true
	m.setStatus(fmt.Sprintf("Timeout: %d s", next))
}

// dumpDiagnostics implements spec.md §4.4's '*' command: dump the full
// catalog (id, shown title, loader path per entry) to the console, one
// page per keypress, then redraw the menu. The loaded image path and the
// firmware revision are not shown; Console offers no source for them.
func (m *Menu) dumpDiagnostics() {
	m.Console.Clear()
	row := 0
	for _, e := range m.cat.Entries {
		m.Console.WriteAt(0, row, fmt.Sprintf("%-24s %-40s %s", e.ID, e.TitleShown, e.LoaderPath))
		row++
		if row >= m.rows-1 {
			m.Console.WriteAt(0, m.rows-1, padTo("-- press any key for more --", m.cols))
			m.Keys.WaitKey(-1)
			m.Console.Clear()
			row = 0
		}
	}
	m.Console.WriteAt(0, m.rows-1, padTo("-- press any key to return --", m.cols))
	m.Keys.WaitKey(-1)
	m.render(true)
}

// runEditor implements spec.md §4.4's 'e' command: hand control to the
// line editor on the current entry's options, committing options_edit
// and transitioning to exiting_boot on a changed Enter, or returning to
// showing unchanged on Esc.
func (m *Menu) runEditor() State {
	entry := m.cat.Entries[m.idxHighlight]
	ed := newLineEditor(entry.Options, m.lineWidth)
	m.Console.WriteAt(0, m.rows-1, padTo("Edit: "+ed.visible(), m.cols))

	for {
		key, ok := m.Keys.WaitKey(-1)
		if !ok {
			continue
		}
		switch key.Code {
		case CodeLeft:
			ed.moveLeft()
		case CodeRight:
			ed.moveRight()
		case CodeHome:
			ed.moveHome()
		case CodeEnd:
			ed.moveEnd()
		case CodeUp:
			ed.moveWordLeft()
		case CodeDown:
			ed.moveWordRight()
		case CodeBackspace:
			ed.backspace()
		case CodeDelete:
			ed.delete()
		case CodeEsc:
			return StateShowing
		case CodeEnter:
			if ed.changed() {
				m.cat.OptionsEdit = ed.text()
				return StateExitingBoot
			}
			return StateShowing
		default:
			if key.Rune != 0 {
				ed.insert(key.Rune)
			}
		}
		m.Console.WriteAt(0, m.rows-1, padTo("Edit: "+ed.visible(), m.cols))
	}
}
