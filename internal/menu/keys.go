// Package menu implements the interactive boot-menu state machine of
// spec.md §4.4: screen layout, keystroke handling, timeout countdown,
// in-place option editing, and persistence of user decisions through
// firmware variables.
//
// Built against small interfaces (Console, KeyWaiter) standing in for the
// firmware text-output and key-event protocols spec.md §1 names as
// out-of-scope collaborators — the same seam the teacher's pkg/efi.Variables
// interface draws between real and mock EFI variable access, applied here
// to the console and keyboard instead.
package menu

// Key is a single keystroke delivered by a KeyWaiter, covering every
// command and navigation key spec.md §4.4 names plus printable runes for
// the line editor.
type Key struct {
	// Rune is the printable code unit for ordinary character keys (used
	// by both menu commands like 'd'/'q'/'e' and the line editor's text
	// insertion); zero for pure control keys.
	Rune rune
	// Code identifies a non-printable control key; zero (CodeNone) when
	// Rune is set instead.
	Code KeyCode
}

// KeyCode enumerates the control keys the menu and line editor react to.
type KeyCode int

const (
	CodeNone KeyCode = iota
	CodeUp
	CodeDown
	CodeLeft
	CodeRight
	CodeHome
	CodeEnd
	CodePgUp
	CodePgDn
	CodeEnter
	CodeEsc
	CodeBackspace
	CodeDelete
	CodeF1
)

// KeyWaiter delivers keystrokes to the menu loop, with a 100 ms poll tick
// during countdown per spec.md §5. WaitKey blocks until either a key
// arrives or timeout elapses, returning ok=false on a pure timeout tick.
type KeyWaiter interface {
	WaitKey(timeoutMS int) (key Key, ok bool)
}
