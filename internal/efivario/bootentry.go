// Boot#### load-option record encode/decode, per spec.md §6's binary
// layout:
//
//	u32 attributes
//	u16 device_path_length
//	u16 title[]         // NUL-terminated UTF-16LE
//	device_path[device_path_length]
//	optional_data[]     // remainder
//
// Hand-rolled on the cursor abstraction for the same reason as
// devicepath.go: explicit bounds checking is the property spec.md §8
// invariant 4 and §9's design note require, not an incidental detail.
package efivario

import (
	"bytes"

	"github.com/gummiboot-go/loader/internal/codec"
)

// BootEntry is a fully decoded Boot#### variable.
type BootEntry struct {
	Attributes       uint32
	Title            string
	DevicePath       []DevicePathNode
	OptionalData     []byte
	PartitionUUID    string // derived from the GPT Hard Drive node, if present
	FilePath         string // derived from the File Path node, if present (forward slashes)
}

// ParseBootEntry decodes a raw Boot#### variable value. A record shorter
// than the fixed header, or whose device_path_length exceeds the bytes
// actually present, is a malformed record (spec.md §7): the function
// returns an error and the caller skips it rather than aborting.
func ParseBootEntry(data []byte) (*BootEntry, error) {
	c := newCursor(data)

	attrs, err := c.u32le()
	if err != nil {
		return nil, err
	}
	dpLen, err := c.u16le()
	if err != nil {
		return nil, err
	}

	title, err := readNULTerminatedUTF16(c)
	if err != nil {
		return nil, err
	}

	dpBytes, err := c.take(int(dpLen))
	if err != nil {
		return nil, err
	}

	entry := &BootEntry{
		Attributes:   attrs,
		Title:        title,
		DevicePath:   ParseDevicePath(dpBytes),
		OptionalData: append([]byte(nil), c.rest()...),
	}
	entry.PartitionUUID = ExtractGPTPartitionUUID(entry.DevicePath)
	entry.FilePath = ExtractFilePath(entry.DevicePath)
	return entry, nil
}

// Bytes serializes a BootEntry back into the spec.md §6 wire format.
func (e *BootEntry) Bytes() []byte {
	var buf bytes.Buffer
	var attrBuf [4]byte
	putU32LE(attrBuf[:], e.Attributes)
	buf.Write(attrBuf[:])

	dp := EncodeDevicePath(e.DevicePath)
	var dpLenBuf [2]byte
	putU16LE(dpLenBuf[:], uint16(len(dp)))
	buf.Write(dpLenBuf[:])

	buf.Write(codec.UTF8ToUTF16LE(e.Title))
	buf.Write(dp)
	buf.Write(e.OptionalData)
	return buf.Bytes()
}

// readNULTerminatedUTF16 consumes a UTF-16LE string up to and including
// its terminating NUL code unit, returning the decoded UTF-8 text without
// the terminator. It never reads past the cursor's remaining bytes.
func readNULTerminatedUTF16(c *cursor) (string, error) {
	start := c.pos
	for {
		u, err := c.u16le()
		if err != nil {
			return "", err
		}
		if u == 0 {
			break
		}
	}
	return codec.UTF16LEToUTF8(c.data[start:c.pos]), nil
}
