package fwvars

import (
	efi "github.com/canonical/go-efilib"
)

// EFILibBackend backs a Store with the real go-efilib runtime variable
// services. It is only usable when running under actual UEFI firmware
// (or u-root's efivarfs emulation); see internal/efivario for the
// corresponding host-side implementation used by cmd/setup.
type EFILibBackend struct{}

func (EFILibBackend) GetVariable(guid efi.GUID, name string) ([]byte, efi.VariableAttributes, error) {
	return efi.ReadVariable(name, guid)
}

func (EFILibBackend) SetVariable(guid efi.GUID, name string, data []byte, attrs efi.VariableAttributes) error {
	return efi.WriteVariable(name, guid, attrs, data)
}

type mockVar struct {
	data  []byte
	attrs efi.VariableAttributes
}

// MockBackend is an in-memory Backend for tests, one store per GUID+name.
type MockBackend struct {
	store map[efi.VariableDescriptor]mockVar
}

func NewMockBackend() *MockBackend {
	return &MockBackend{store: make(map[efi.VariableDescriptor]mockVar)}
}

func (m *MockBackend) GetVariable(guid efi.GUID, name string) ([]byte, efi.VariableAttributes, error) {
	v, ok := m.store[efi.VariableDescriptor{Name: name, GUID: guid}]
	if !ok {
		return nil, 0, efi.ErrVarNotExist
	}
	return v.data, v.attrs, nil
}

func (m *MockBackend) SetVariable(guid efi.GUID, name string, data []byte, attrs efi.VariableAttributes) error {
	key := efi.VariableDescriptor{Name: name, GUID: guid}
	if len(data) == 0 {
		delete(m.store, key)
		return nil
	}
	m.store[key] = mockVar{data: data, attrs: attrs}
	return nil
}
