package fwvars

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	store := New(NewMockBackend())
	if err := store.Set(LoaderEntryDefault, "arch-10", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(LoaderEntryDefault)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "arch-10" {
		t.Fatalf("got %q, want arch-10", got)
	}
}

func TestGetMissingVariableIsEmptyNotError(t *testing.T) {
	store := New(NewMockBackend())
	got, err := store.Get(LoaderEntryDefault)
	if err != nil {
		t.Fatalf("expected no error for missing variable, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSetEmptyDeletesVariable(t *testing.T) {
	store := New(NewMockBackend())
	if err := store.Set(LoaderEntryDefault, "arch-10", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(LoaderEntryDefault, "", true); err != nil {
		t.Fatalf("Set(empty): %v", err)
	}
	got, err := store.Get(LoaderEntryDefault)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("expected variable to be deleted, got %q", got)
	}
}

func TestGetAndClearIsOneShot(t *testing.T) {
	store := New(NewMockBackend())
	if err := store.Set(LoaderEntryOneShot, "arch-4", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.GetAndClear(LoaderEntryOneShot)
	if err != nil {
		t.Fatalf("GetAndClear: %v", err)
	}
	if got != "arch-4" {
		t.Fatalf("got %q, want arch-4", got)
	}
	again, err := store.Get(LoaderEntryOneShot)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again != "" {
		t.Fatalf("expected variable cleared, got %q", again)
	}
}

func TestSetIntGetInt(t *testing.T) {
	store := New(NewMockBackend())
	if err := store.SetInt(LoaderConfigTimeout, 5, true); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	n, ok, err := store.GetInt(LoaderConfigTimeout)
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if !ok || n != 5 {
		t.Fatalf("got (%d, %v), want (5, true)", n, ok)
	}
}

func TestGetIntMissingIsNotOK(t *testing.T) {
	store := New(NewMockBackend())
	n, ok, err := store.GetInt(LoaderConfigTimeout)
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if ok || n != 0 {
		t.Fatalf("got (%d, %v), want (0, false)", n, ok)
	}
}

func TestLoaderEntryOptionsName(t *testing.T) {
	if got := LoaderEntryOptionsName("abc123"); got != "LoaderEntryOptions-abc123" {
		t.Fatalf("got %q", got)
	}
	if got := LoaderEntryOptionsOneShotName("abc123"); got != "LoaderEntryOptionsOneShot-abc123" {
		t.Fatalf("got %q", got)
	}
}
