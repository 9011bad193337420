package chainloader

import (
	"errors"
	"testing"

	"github.com/gummiboot-go/loader/internal/catalog"
	"github.com/gummiboot-go/loader/internal/efivario"
	"github.com/gummiboot-go/loader/internal/fwvars"
)

type fakeLoader struct {
	loaded      []efivario.DevicePathNode
	options     string
	startErr    error
	unloaded    bool
	startCalled bool
}

func (f *fakeLoader) LoadImage(dp []efivario.DevicePathNode) (ImageHandle, error) {
	f.loaded = dp
	return "handle", nil
}

func (f *fakeLoader) SetLoadOptions(handle ImageHandle, options string) error {
	f.options = options
	return nil
}

func (f *fakeLoader) StartImage(handle ImageHandle) error {
	f.startCalled = true
	return f.startErr
}

func (f *fakeLoader) UnloadImage(handle ImageHandle) error {
	f.unloaded = true
	return nil
}

func newTicks() *fwvars.Ticks {
	return fwvars.NewTicks(fwvars.New(fwvars.NewMockBackend()), func() uint64 { return 42 })
}

func TestBootUsesEntryOptionsByDefault(t *testing.T) {
	loader := &fakeLoader{}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "arch-4", LoaderPath: `\vmlinuz`, Options: "root=/dev/sda1"}

	if err := cl.Boot(entry, ""); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if loader.options != "root=/dev/sda1" {
		t.Fatalf("options = %q, want entry.Options", loader.options)
	}
	if !loader.unloaded {
		t.Fatalf("expected UnloadImage to be called")
	}
}

func TestBootPrefersOptionsEdit(t *testing.T) {
	loader := &fakeLoader{}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "arch-4", LoaderPath: `\vmlinuz`, Options: "root=/dev/sda1"}

	if err := cl.Boot(entry, "quiet"); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if loader.options != "quiet" {
		t.Fatalf("options = %q, want quiet (options_edit precedence)", loader.options)
	}
}

func TestBootUnloadsOnStartFailure(t *testing.T) {
	loader := &fakeLoader{startErr: errors.New("boom")}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "arch-4", LoaderPath: `\vmlinuz`}

	err := cl.Boot(entry, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	var pe *PolicyError
	if errors.As(err, &pe) {
		t.Fatalf("got PolicyError for an ordinary failure: %v", err)
	}
	if !loader.unloaded {
		t.Fatalf("expected UnloadImage to be called even on StartImage failure")
	}
}

func TestBootAccessDeniedIsPolicyError(t *testing.T) {
	loader := &fakeLoader{startErr: ErrAccessDenied}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "arch-4", LoaderPath: `\vmlinuz`}

	err := cl.Boot(entry, "")
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *PolicyError", err)
	}
}

func TestBootSecurityViolationIsPolicyError(t *testing.T) {
	loader := &fakeLoader{startErr: ErrSecurityViolation}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "arch-4", LoaderPath: `\vmlinuz`}

	err := cl.Boot(entry, "")
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *PolicyError", err)
	}
}

func TestBootRejectsEmptyLoaderPath(t *testing.T) {
	loader := &fakeLoader{}
	cl := New(loader, newTicks())
	entry := &catalog.Entry{ID: "broken"}

	if err := cl.Boot(entry, ""); err == nil {
		t.Fatalf("expected error for empty loader path")
	}
}
