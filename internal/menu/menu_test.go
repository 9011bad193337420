package menu

import (
	"testing"

	"github.com/gummiboot-go/loader/internal/catalog"
	"github.com/gummiboot-go/loader/internal/fwvars"
)

// fakeConsole records every WriteAt call so tests can assert on rendered
// content without a real firmware text-output protocol.
type fakeConsole struct {
	cols, rows int
	cells      map[[2]int]string
}

func newFakeConsole(cols, rows int) *fakeConsole {
	return &fakeConsole{cols: cols, rows: rows, cells: make(map[[2]int]string)}
}

func (c *fakeConsole) QueryMode() (int, int, bool) { return c.cols, c.rows, true }
func (c *fakeConsole) Clear()                      { c.cells = make(map[[2]int]string) }
func (c *fakeConsole) WriteAt(col, row int, s string) {
	c.cells[[2]int{col, row}] = s
}
func (c *fakeConsole) SetCursorVisible(bool) {}

// scriptedKeys replays a fixed sequence of keys, then reports timeout
// ("no key") forever afterward so a countdown can run to completion in
// tests without hanging.
type scriptedKeys struct {
	keys []Key
	i    int
}

func (k *scriptedKeys) WaitKey(timeoutMS int) (Key, bool) {
	if k.i >= len(k.keys) {
		return Key{}, false
	}
	key := k.keys[k.i]
	k.i++
	return key, true
}

func newCatalog(ids ...string) *catalog.Catalog {
	cat := &catalog.Catalog{IdxDefaultEFIVar: -1}
	for _, id := range ids {
		cat.Entries = append(cat.Entries, &catalog.Entry{ID: id, TitleShown: id, Kind: catalog.KindLinux, LoaderPath: `\vmlinuz`})
	}
	return cat
}

func TestRunEnterSelectsHighlighted(t *testing.T) {
	cat := newCatalog("arch-4", "arch-10")
	cat.IdxDefault = 1
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{{Code: CodeEnter}}}, store)

	entry, err := m.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entry.ID != "arch-10" {
		t.Fatalf("got %q, want arch-10", entry.ID)
	}

	selected, _ := store.Get(fwvars.LoaderEntrySelected)
	if selected != "arch-10" {
		t.Fatalf("LoaderEntrySelected = %q, want arch-10", selected)
	}
}

func TestRunQuitReturnsErrQuit(t *testing.T) {
	cat := newCatalog("arch-4")
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{{Rune: 'q'}}}, store)

	_, err := m.Run(cat)
	if err != ErrQuit {
		t.Fatalf("got %v, want ErrQuit", err)
	}
}

func TestRunNavigationThenEnter(t *testing.T) {
	cat := newCatalog("arch-4", "arch-10", "arch-12")
	cat.IdxDefault = 0
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{
		{Code: CodeDown}, {Code: CodeDown}, {Code: CodeEnter},
	}}, store)

	entry, err := m.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entry.ID != "arch-12" {
		t.Fatalf("got %q, want arch-12", entry.ID)
	}
}

func TestCountdownExpiresToDefault(t *testing.T) {
	cat := newCatalog("arch-4", "arch-10")
	cat.IdxDefault = 1
	cat.TimeoutSec = 1
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{}, store)

	entry, err := m.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entry.ID != "arch-10" {
		t.Fatalf("got %q, want arch-10", entry.ID)
	}
}

func TestToggleDefaultPersistsVariable(t *testing.T) {
	cat := newCatalog("arch-4", "arch-10")
	cat.IdxDefault = 0
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{
		{Rune: 'd'}, {Code: CodeEnter},
	}}, store)

	entry, err := m.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entry.ID != "arch-4" {
		t.Fatalf("got %q, want arch-4", entry.ID)
	}
	def, _ := store.Get(fwvars.LoaderEntryDefault)
	if def != "arch-4" {
		t.Fatalf("LoaderEntryDefault = %q, want arch-4", def)
	}
}

func TestTimeoutAdjustPersistsVariable(t *testing.T) {
	cat := newCatalog("arch-4")
	cat.TimeoutSec = 5
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{
		{Rune: '+'}, {Code: CodeEnter},
	}}, store)

	if _, err := m.Run(cat); err != nil {
		t.Fatalf("Run: %v", err)
	}
	n, ok, _ := store.GetInt(fwvars.LoaderConfigTimeout)
	if !ok || n != 6 {
		t.Fatalf("LoaderConfigTimeout = %d (ok=%v), want 6", n, ok)
	}
}

func TestEditorCommitsOptionsEdit(t *testing.T) {
	cat := newCatalog("arch-4")
	cat.Entries[0].Options = "quiet"
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{
		{Rune: 'e'}, {Rune: 'X'}, {Code: CodeEnter},
	}}, store)

	entry, err := m.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entry.ID != "arch-4" {
		t.Fatalf("got %q", entry.ID)
	}
	if cat.OptionsEdit != "quietX" {
		t.Fatalf("OptionsEdit = %q, want quietX", cat.OptionsEdit)
	}
}

func TestEditorEscDiscardsChange(t *testing.T) {
	cat := newCatalog("arch-4")
	cat.Entries[0].Options = "quiet"
	store := fwvars.New(fwvars.NewMockBackend())
	m := New(newFakeConsole(80, 25), &scriptedKeys{keys: []Key{
		{Rune: 'e'}, {Rune: 'X'}, {Code: CodeEsc}, {Code: CodeEnter},
	}}, store)

	if _, err := m.Run(cat); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cat.OptionsEdit != "" {
		t.Fatalf("OptionsEdit = %q, want empty after Esc", cat.OptionsEdit)
	}
}
