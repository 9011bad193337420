package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gummiboot-go/loader/internal/menu"
)

// terminal implements menu.Console and menu.KeyWaiter over a raw-mode
// ANSI terminal, standing in for the firmware text-output protocol and
// key-event services spec.md §1 names as out-of-scope collaborators.
type terminal struct {
	fd      int
	saved   unix.Termios
	reader  *bufio.Reader
	cols    int
	rows    int
	hasSize bool
}

func newTerminal() (*terminal, error) {
	fd := int(os.Stdin.Fd())
	t := &terminal{fd: fd, reader: bufio.NewReader(os.Stdin)}

	if termios, err := unix.IoctlGetTermios(fd, unix.TCGETS); err == nil {
		t.saved = *termios
		raw := *termios
		raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
		raw.Iflag &^= unix.IXON
		raw.Cc[unix.VMIN] = 0
		raw.Cc[unix.VTIME] = 0
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, &raw)
	}

	if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil && ws.Col > 0 && ws.Row > 0 {
		t.cols, t.rows, t.hasSize = int(ws.Col), int(ws.Row), true
	}
	return t, nil
}

// Close restores the terminal's original mode.
func (t *terminal) Close() error {
	return unix.IoctlSetTermios(t.fd, unix.TCSETS, &t.saved)
}

// QueryMode implements menu.Console.
func (t *terminal) QueryMode() (cols, rows int, ok bool) {
	return t.cols, t.rows, t.hasSize
}

// Clear implements menu.Console using the ANSI "clear screen, home
// cursor" sequence.
func (t *terminal) Clear() {
	fmt.Print("\x1b[2J\x1b[H")
}

// WriteAt implements menu.Console using ANSI cursor positioning (1-based,
// unlike the zero-based coordinates menu.Console uses).
func (t *terminal) WriteAt(col, row int, s string) {
	fmt.Printf("\x1b[%d;%dH%s", row+1, col+1, s)
}

// SetCursorVisible implements menu.Console using the ANSI DECTCEM
// sequences.
func (t *terminal) SetCursorVisible(visible bool) {
	if visible {
		fmt.Print("\x1b[?25h")
	} else {
		fmt.Print("\x1b[?25l")
	}
}

// WaitKey implements menu.KeyWaiter. timeoutMS < 0 blocks indefinitely;
// 0 polls once; otherwise it polls for up to timeoutMS before reporting
// ok=false, matching spec.md §5's 100 ms poll tick during countdown.
func (t *terminal) WaitKey(timeoutMS int) (menu.Key, bool) {
	deadline := time.Time{}
	if timeoutMS >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	}
	for {
		if t.reader.Buffered() == 0 {
			var fds unix.FdSet
			fds.Set(t.fd)
			tv := unix.Timeval{Sec: 0, Usec: 20_000}
			n, _ := unix.Select(t.fd+1, &fds, nil, nil, &tv)
			if n <= 0 {
				if timeoutMS >= 0 && time.Now().After(deadline) {
					return menu.Key{}, false
				}
				continue
			}
		}
		b, err := t.reader.ReadByte()
		if err != nil {
			return menu.Key{}, false
		}
		return t.decode(b), true
	}
}

// decode turns a raw byte (or the start of a CSI escape sequence) into a
// menu.Key.
func (t *terminal) decode(b byte) menu.Key {
	switch b {
	case '\r', '\n':
		return menu.Key{Code: menu.CodeEnter}
	case 0x7f, 0x08:
		return menu.Key{Code: menu.CodeBackspace}
	case 0x1b:
		return t.decodeEscape()
	}
	return menu.Key{Rune: rune(b)}
}

func (t *terminal) decodeEscape() menu.Key {
	b1, err := t.reader.ReadByte()
	if err != nil {
		return menu.Key{Code: menu.CodeEsc}
	}
	if b1 != '[' && b1 != 'O' {
		return menu.Key{Code: menu.CodeEsc}
	}
	b2, err := t.reader.ReadByte()
	if err != nil {
		return menu.Key{Code: menu.CodeEsc}
	}
	switch b2 {
	case 'A':
		return menu.Key{Code: menu.CodeUp}
	case 'B':
		return menu.Key{Code: menu.CodeDown}
	case 'C':
		return menu.Key{Code: menu.CodeRight}
	case 'D':
		return menu.Key{Code: menu.CodeLeft}
	case 'H':
		return menu.Key{Code: menu.CodeHome}
	case 'F':
		return menu.Key{Code: menu.CodeEnd}
	case 'P':
		return menu.Key{Code: menu.CodeF1}
	case '3':
		t.consumeTilde()
		return menu.Key{Code: menu.CodeDelete}
	case '5':
		t.consumeTilde()
		return menu.Key{Code: menu.CodePgUp}
	case '6':
		t.consumeTilde()
		return menu.Key{Code: menu.CodePgDn}
	}
	return menu.Key{Code: menu.CodeEsc}
}

func (t *terminal) consumeTilde() {
	if b, err := t.reader.ReadByte(); err == nil && b != '~' {
		_ = t.reader.UnreadByte()
	}
}
