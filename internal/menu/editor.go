package menu

// lineEditor implements spec.md §4.4's line editor: a fixed-capacity
// buffer with a (first, cursor) window such that first+cursor is the
// byte index into the line, cursor motion (including word-wise with
// up/down), insertion of printable code units, backspace/delete, and the
// scroll-left-on-backspace-at-column-zero behavior.
type lineEditor struct {
	buf      []rune
	first    int // index of the first rune currently shown in the window
	cursor   int // column within the visible window; first+cursor is the byte index
	width    int // visible column width
	original string
}

// newLineEditor seeds the buffer with initial text, capacity at least
// len(initial)+1024 runes per spec.md §4.4, with the cursor placed at the
// end of the text.
func newLineEditor(initial string, width int) *lineEditor {
	buf := make([]rune, 0, len(initial)+1024)
	buf = append(buf, []rune(initial)...)
	e := &lineEditor{buf: buf, width: width, original: initial}
	e.placeCursorAtEnd()
	return e
}

func (e *lineEditor) placeCursorAtEnd() {
	n := len(e.buf)
	if n < e.width {
		e.first, e.cursor = 0, n
		return
	}
	e.first = n - e.width + 1
	e.cursor = e.width - 1
}

// index returns the byte (rune) index the cursor currently addresses.
func (e *lineEditor) index() int {
	return e.first + e.cursor
}

func (e *lineEditor) text() string {
	return string(e.buf)
}

func (e *lineEditor) changed() bool {
	return e.text() != e.original
}

// visible returns the slice of runes currently within the window, for
// rendering.
func (e *lineEditor) visible() string {
	end := e.first + e.width
	if end > len(e.buf) {
		end = len(e.buf)
	}
	if e.first > end {
		return ""
	}
	return string(e.buf[e.first:end])
}

func (e *lineEditor) moveLeft() {
	if e.index() > 0 {
		if e.cursor > 0 {
			e.cursor--
		} else {
			e.first--
		}
	}
}

func (e *lineEditor) moveRight() {
	if e.index() < len(e.buf) {
		if e.cursor < e.width-1 {
			e.cursor++
		} else {
			e.first++
		}
	}
}

func (e *lineEditor) moveHome() {
	e.first, e.cursor = 0, 0
}

func (e *lineEditor) moveEnd() {
	e.placeCursorAtEnd()
}

// moveWordLeft implements the up-arrow word-wise motion: skip any
// trailing spaces, then skip back to the start of the previous word.
func (e *lineEditor) moveWordLeft() {
	i := e.index()
	for i > 0 && e.buf[i-1] == ' ' {
		i--
	}
	for i > 0 && e.buf[i-1] != ' ' {
		i--
	}
	e.setIndex(i)
}

// moveWordRight implements the down-arrow word-wise motion: skip to the
// end of the current word, then skip any spaces that follow it.
func (e *lineEditor) moveWordRight() {
	i := e.index()
	for i < len(e.buf) && e.buf[i] != ' ' {
		i++
	}
	for i < len(e.buf) && e.buf[i] == ' ' {
		i++
	}
	e.setIndex(i)
}

func (e *lineEditor) setIndex(i int) {
	if i < 0 {
		i = 0
	}
	if i > len(e.buf) {
		i = len(e.buf)
	}
	switch {
	case i < e.first:
		e.first = i
		e.cursor = 0
	case i >= e.first+e.width:
		e.first = i - e.width + 1
		e.cursor = e.width - 1
	default:
		e.cursor = i - e.first
	}
}

// insert inserts r at the cursor and advances past it.
func (e *lineEditor) insert(r rune) {
	i := e.index()
	e.buf = append(e.buf[:i], append([]rune{r}, e.buf[i:]...)...)
	e.moveRight()
}

// backspaceScrollCols is how far backspace scrolls the window left when
// the cursor is at column 0 with a nonzero first, per spec.md §4.4's
// "scroll left by up to 10 columns to keep context visible."
const backspaceScrollCols = 10

// backspace deletes the rune before the cursor. If the cursor is at
// column 0 but first is nonzero, it scrolls the window left first rather
// than deleting blind off-screen.
func (e *lineEditor) backspace() {
	if e.cursor == 0 && e.first > 0 {
		scroll := backspaceScrollCols
		if scroll > e.first {
			scroll = e.first
		}
		e.first -= scroll
		e.cursor = scroll
	}
	i := e.index()
	if i == 0 {
		return
	}
	e.buf = append(e.buf[:i-1], e.buf[i:]...)
	e.moveLeft()
}

// delete removes the rune under the cursor without moving it.
func (e *lineEditor) delete() {
	i := e.index()
	if i >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:i], e.buf[i+1:]...)
}
