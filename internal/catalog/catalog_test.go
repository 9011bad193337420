package catalog

import (
	"testing"

	"github.com/twpayne/go-vfs/vfst"

	"github.com/gummiboot-go/loader/internal/fwvars"
)

func buildFS(t *testing.T, root map[string]interface{}) (*vfst.TestFS, func()) {
	t.Helper()
	fs, cleanup, err := vfst.NewTestFS(root)
	if err != nil {
		t.Fatalf("NewTestFS: %v", err)
	}
	return fs, cleanup
}

func TestBuildSortsByNaturalVersion(t *testing.T) {
	fs, cleanup := buildFS(t, map[string]interface{}{
		"/loader/loader.conf": "default arch-*\n",
		"/loader/entries/arch-4.conf":  "title Arch\nlinux /vmlinuz-4\n",
		"/loader/entries/arch-10.conf": "title Arch\nlinux /vmlinuz-10\n",
	})
	defer cleanup()

	store := fwvars.New(fwvars.NewMockBackend())
	cat, err := Build(fs, store, "dev0", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(cat.Entries))
	}
	if cat.Entries[0].ID != "arch-4" || cat.Entries[1].ID != "arch-10" {
		t.Fatalf("unexpected order: %s, %s", cat.Entries[0].ID, cat.Entries[1].ID)
	}
	if cat.IdxDefault != 1 {
		t.Fatalf("expected default index 1 (arch-10), got %d", cat.IdxDefault)
	}
}

func TestUniquifyTitlesByVersion(t *testing.T) {
	entries := []*Entry{
		{ID: "a", Title: "Linux", Version: "4.2"},
		{ID: "b", Title: "Linux", Version: "4.3"},
	}
	uniquifyTitles(entries)
	if entries[0].TitleShown != "Linux (4.2)" || entries[1].TitleShown != "Linux (4.3)" {
		t.Fatalf("unexpected titles: %q, %q", entries[0].TitleShown, entries[1].TitleShown)
	}
}

func TestUniquifyTitlesFallsBackToID(t *testing.T) {
	entries := []*Entry{
		{ID: "a", Title: "Linux"},
		{ID: "b", Title: "Linux"},
	}
	uniquifyTitles(entries)
	if entries[0].TitleShown == entries[1].TitleShown {
		t.Fatalf("expected distinct titles, got %q twice", entries[0].TitleShown)
	}
}

func TestOneShotOverridesDefaultAndIsCleared(t *testing.T) {
	fs, cleanup := buildFS(t, map[string]interface{}{
		"/loader/loader.conf":         "default arch-*\n",
		"/loader/entries/arch-4.conf": "title Arch\nlinux /vmlinuz-4\n",
	})
	defer cleanup()

	backend := fwvars.NewMockBackend()
	store := fwvars.New(backend)
	if err := store.Set(fwvars.LoaderEntryOneShot, "arch-4", true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cat, err := Build(fs, store, "dev0", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cat.Entries[cat.IdxDefault].ID != "arch-4" {
		t.Fatalf("expected one-shot entry selected")
	}

	again, err := store.Get(fwvars.LoaderEntryOneShot)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again != "" {
		t.Fatalf("expected LoaderEntryOneShot to be cleared after consumption, got %q", again)
	}
}

func TestSelfReferencingEFIEntryIsDropped(t *testing.T) {
	fs, cleanup := buildFS(t, map[string]interface{}{
		"/loader/entries/self.conf": "title Self\nefi /EFI/gummiboot/gummibootx64.efi\n",
	})
	defer cleanup()

	store := fwvars.New(fwvars.NewMockBackend())
	cat, err := Build(fs, store, "dev0", `\EFI\gummiboot\gummibootx64.efi`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cat.Entries) != 0 {
		t.Fatalf("expected self-referencing entry to be suppressed, got %d entries", len(cat.Entries))
	}
}
