// Package efivario implements the host-side firmware-variable transport:
// reading and writing the raw `/sys/firmware/efi/efivars/<Name>-<guid>`
// files, and decoding/encoding the `Boot####`/`BootOrder` binary records
// carried in them (spec.md §6). It is the host counterpart to
// internal/fwvars, which runs the same kind of logic inside the boot-time
// loader against a firmware variable-services backend instead of a
// filesystem.
package efivario

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	efi "github.com/canonical/go-efilib"
	"github.com/twpayne/go-vfs"
)

// EfivarsDir is the conventional mount point of efivarfs.
const EfivarsDir = "/sys/firmware/efi/efivars"

const (
	minVariableFileSize = 4
	maxVariableFileSize = 4*1024*1024 + 4
)

// FileName returns the efivarfs file name for name under guid, e.g.
// "BootOrder-8be4df61-93ca-11d2-aa0d-00e098032b8c".
func FileName(name string, guid efi.GUID) string {
	return name + "-" + guid.String()
}

// ParseFileName splits an efivarfs entry name back into its variable name
// and GUID. ok is false if the name does not end in a well-formed GUID
// suffix.
func ParseFileName(fileName string) (name string, guid efi.GUID, ok bool) {
	// A GUID string is 36 characters; the dash at i must precede it.
	i := len(fileName) - 37
	if i < 0 || fileName[i] != '-' {
		return "", efi.GUID{}, false
	}
	g, err := efi.DecodeGUIDString(fileName[i+1:])
	if err != nil {
		return "", efi.GUID{}, false
	}
	return fileName[:i], g, true
}

// ReadVariableFile reads and decodes one efivarfs entry. Per spec.md §6,
// the first four bytes are little-endian attribute flags and the
// remainder is the value; files smaller than 4 bytes or larger than 4 MiB
// + 4 are rejected as malformed.
func ReadVariableFile(fsys vfs.FS, dir, name string, guid efi.GUID) (attrs uint32, value []byte, err error) {
	path := dir + "/" + FileName(name, guid)
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, ErrVariableNotExist
		}
		return 0, nil, err
	}
	if len(data) < minVariableFileSize || len(data) > maxVariableFileSize {
		return 0, nil, fmt.Errorf("efivario: %s has invalid size %d", path, len(data))
	}
	attrs = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	return attrs, data[4:], nil
}

// WriteVariableFile writes one efivarfs entry. An empty value deletes the
// variable by removing the file, matching efivarfs semantics (a
// zero-length write also deletes, but removing is unambiguous across
// kernel versions).
func WriteVariableFile(fsys vfs.FS, dir, name string, guid efi.GUID, attrs uint32, value []byte) error {
	path := dir + "/" + FileName(name, guid)
	if len(value) == 0 {
		if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	out := make([]byte, 4+len(value))
	out[0] = byte(attrs)
	out[1] = byte(attrs >> 8)
	out[2] = byte(attrs >> 16)
	out[3] = byte(attrs >> 24)
	copy(out[4:], value)
	return fsys.WriteFile(path, out, 0644)
}

// ErrVariableNotExist mirrors go-efilib's ErrVarNotExist for the
// efivarfs-backed host transport, so callers can treat "absent" the same
// way regardless of which side of the loader they're on.
var ErrVariableNotExist = efi.ErrVarNotExist

// ListBootEntryNumbers scans dir for BootXXXX-<GlobalVariable guid> files
// and returns their numbers, ascending.
func ListBootEntryNumbers(fsys vfs.FS, dir string) ([]uint16, error) {
	fis, err := fsys.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var nums []uint16
	for _, fi := range fis {
		name, guid, ok := ParseFileName(fi.Name())
		if !ok || guid != efi.GlobalVariable {
			continue
		}
		if len(name) != 8 || !strings.HasPrefix(name, "Boot") {
			continue
		}
		n, err := strconv.ParseUint(name[4:], 16, 16)
		if err != nil {
			continue
		}
		nums = append(nums, uint16(n))
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums, nil
}

// BootVariableName formats the efivarfs-relative variable name for a
// Boot#### slot.
func BootVariableName(slot uint16) string {
	return fmt.Sprintf("Boot%04X", slot)
}

// DecodeBootOrder decodes the little-endian u16 list carried by
// BootOrder.
func DecodeBootOrder(data []byte) []uint16 {
	order := make([]uint16, len(data)/2)
	for i := range order {
		order[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return order
}

// EncodeBootOrder is the inverse of DecodeBootOrder.
func EncodeBootOrder(order []uint16) []byte {
	out := make([]byte, 2*len(order))
	for i, n := range order {
		out[2*i] = byte(n)
		out[2*i+1] = byte(n >> 8)
	}
	return out
}
