// Package fwvars implements the loader's own firmware-variable
// namespace: LoaderVersion, LoaderConfigTimeout, LoaderEntryDefault,
// LoaderEntryOneShot, LoaderEntrySelected, LoaderEntriesAuto,
// LoaderDeviceIdentifier, LoaderDevicePartUUID, and the per-machine-id
// LoaderEntryOptions(-OneShot) variables, all under the loader vendor
// GUID.
//
// Grounded on the boot-manager's RealEFIVariables/MockEFIVariables split
// (a teacher's pkg/efi/types.go): a small backend interface separates the
// real go-efilib-backed implementation from an in-memory test double, so
// the same logic runs at boot time and in tests.
package fwvars

import (
	"fmt"
	"strconv"
	"strings"

	efi "github.com/canonical/go-efilib"

	"github.com/gummiboot-go/loader/internal/codec"
)

// LoaderGUID is the vendor GUID under which every loader variable in
// this namespace lives, taken from the original implementation's
// loader_guid constant (4a67b082-0a4c-41cf-b6c7-440b29bb8c4f).
var LoaderGUID = efi.MakeGUID(0x4a67b082, 0x0a4c, 0x41cf, 0xb6c7, [6]uint8{0x44, 0x0b, 0x29, 0xbb, 0x8c, 0x4f})

// Well-known variable names in the loader namespace.
const (
	LoaderVersion          = "LoaderVersion"
	LoaderConfigTimeout    = "LoaderConfigTimeout"
	LoaderEntryDefault     = "LoaderEntryDefault"
	LoaderEntryOneShot     = "LoaderEntryOneShot"
	LoaderEntrySelected    = "LoaderEntrySelected"
	LoaderEntriesAuto      = "LoaderEntriesAuto"
	LoaderDeviceIdentifier = "LoaderDeviceIdentifier"
	LoaderDevicePartUUID   = "LoaderDevicePartUUID"

	LoaderTicksInit      = "LoaderTicksInit"
	LoaderTicksStartMenu = "LoaderTicksStartMenu"
	LoaderTicksExec      = "LoaderTicksExec"
)

// LoaderEntryOptionsName returns the read-only per-machine-id options
// variable name.
func LoaderEntryOptionsName(machineID string) string {
	return "LoaderEntryOptions-" + machineID
}

// LoaderEntryOptionsOneShotName returns the one-shot per-machine-id
// options variable name.
func LoaderEntryOptionsOneShotName(machineID string) string {
	return "LoaderEntryOptionsOneShot-" + machineID
}

// Backend abstracts the firmware variable services so that both a real
// UEFI runtime and an in-memory test double can back a Store.
type Backend interface {
	GetVariable(guid efi.GUID, name string) (data []byte, attrs efi.VariableAttributes, err error)
	SetVariable(guid efi.GUID, name string, data []byte, attrs efi.VariableAttributes) error
}

// defaultAttrs is the attribute set used for persistent loader variables:
// non-volatile, accessible from boot services and runtime.
const defaultAttrs = efi.AttributeNonVolatile | efi.AttributeBootserviceAccess | efi.AttributeRuntimeAccess

// volatileAttrs is used whenever a caller passes persistent=false, for
// variables that need not survive a reboot (e.g. LoaderEntrySelected,
// LoaderVersion and the LoaderTicks* variables, which are re-written every
// boot anyway).
const volatileAttrs = efi.AttributeBootserviceAccess | efi.AttributeRuntimeAccess

// Store exposes the four loader-variable operations described by the
// firmware-variable protocol.
type Store struct {
	backend Backend
}

// New returns a Store backed by the given Backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Set writes a NUL-terminated UTF-16LE string to name. An empty value
// deletes the variable. persistent controls whether the non-volatile
// attribute is set.
func (s *Store) Set(name string, value string, persistent bool) error {
	attrs := volatileAttrs
	if persistent {
		attrs = defaultAttrs
	}
	if value == "" {
		return s.backend.SetVariable(LoaderGUID, name, nil, attrs)
	}
	return s.backend.SetVariable(LoaderGUID, name, codec.UTF8ToUTF16LE(value), attrs)
}

// Get reads name as a UTF-16LE string. A variable that does not exist is
// treated as empty, not an error (spec.md §7: "absent-but-expected").
func (s *Store) Get(name string) (string, error) {
	data, _, err := s.backend.GetVariable(LoaderGUID, name)
	if err != nil {
		if isNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return codec.UTF16LEToUTF8(data), nil
}

// GetAndClear reads name and, if present, atomically deletes it,
// implementing one-shot variable semantics (LoaderEntryOneShot and the
// LoaderEntryOptionsOneShot-<mid> variables).
func (s *Store) GetAndClear(name string) (string, error) {
	data, attrs, err := s.backend.GetVariable(LoaderGUID, name)
	if err != nil {
		if isNotExist(err) {
			return "", nil
		}
		return "", err
	}
	value := codec.UTF16LEToUTF8(data)
	if err := s.backend.SetVariable(LoaderGUID, name, nil, attrs); err != nil {
		return "", fmt.Errorf("clearing %s: %w", name, err)
	}
	return value, nil
}

// SetInt encodes n as decimal text and writes it to name.
func (s *Store) SetInt(name string, n int, persistent bool) error {
	return s.Set(name, strconv.Itoa(n), persistent)
}

// GetInt reads name and parses it as decimal text. A missing or
// unparsable variable yields (0, false, nil).
func (s *Store) GetInt(name string) (value int, ok bool, err error) {
	raw, err := s.Get(name)
	if err != nil {
		return 0, false, err
	}
	if raw == "" {
		return 0, false, nil
	}
	n, perr := strconv.Atoi(strings.TrimSpace(raw))
	if perr != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func isNotExist(err error) bool {
	return err == efi.ErrVarNotExist
}
