// Device-path node walking, grounded on spec.md §6's binary layout
// description. Hand-rolled with the cursor abstraction (internal/efivario
// cursor.go) rather than delegated to go-efilib's own device-path decoder,
// per spec.md §9's explicit design note that the Boot#### and device-path
// parsers must validate every length field against remaining buffer bytes
// before advancing — the property this package's tests exercise directly
// (spec.md §8 invariant 4). go-efilib's efi.GUID type is reused for the
// GUID byte layout itself (mixed-endian EFI_GUID, identical on the wire to
// a Hard Drive node's partition signature) rather than reinventing GUID
// byte-order conversion.
package efivario

import (
	"strings"

	efi "github.com/canonical/go-efilib"

	"github.com/gummiboot-go/loader/internal/codec"
)

const (
	devicePathTypeMedia = 0x04
	devicePathTypeEnd   = 0x7f

	devicePathSubTypeHardDrive = 0x01
	devicePathSubTypeFilePath  = 0x04
	devicePathSubTypeEndEntire = 0xff

	mbrTypeGPT       = 0x02
	signatureTypeGUID = 0x02
)

// DevicePathNode is one {type, sub_type, data} record of a device path, as
// described by spec.md §6.
type DevicePathNode struct {
	Type    byte
	SubType byte
	Data    []byte // node payload, excluding the 4-byte header
}

// ParseDevicePath walks a device-path buffer, returning every node up to
// (but not including) the end-of-path node. It never reads past a node's
// declared length, and stops — rather than erroring — on a malformed
// trailing node, matching spec.md §7's "malformed record is skipped" rule.
func ParseDevicePath(data []byte) []DevicePathNode {
	var nodes []DevicePathNode
	c := newCursor(data)
	for c.remaining() >= 4 {
		start := c.pos
		typ, err := c.u8()
		if err != nil {
			break
		}
		subType, err := c.u8()
		if err != nil {
			break
		}
		length, err := c.u16le()
		if err != nil {
			break
		}
		if length < 4 {
			break
		}
		if typ == devicePathTypeEnd && subType == devicePathSubTypeEndEntire {
			break
		}
		payloadLen := int(length) - 4
		payload, err := c.take(payloadLen)
		if err != nil {
			// Declared length exceeds what remains: stop rather than
			// read past the buffer.
			c.pos = start
			break
		}
		nodes = append(nodes, DevicePathNode{Type: typ, SubType: subType, Data: append([]byte(nil), payload...)})
	}
	return nodes
}

// ExtractGPTPartitionUUID returns the canonical-form GPT partition UUID
// carried by a Hard Drive Media device-path node whose signature type is
// GUID, or "" if no such node is present.
func ExtractGPTPartitionUUID(nodes []DevicePathNode) string {
	for _, n := range nodes {
		if n.Type != devicePathTypeMedia || n.SubType != devicePathSubTypeHardDrive {
			continue
		}
		if len(n.Data) < 38 {
			continue
		}
		mbrType := n.Data[36]
		sigType := n.Data[37]
		if mbrType != mbrTypeGPT || sigType != signatureTypeGUID {
			continue
		}
		var guid efi.GUID
		copy(guid[:], n.Data[20:36])
		return guid.String()
	}
	return ""
}

// ExtractFilePath returns the forward-slash file path carried by a File
// Path Media device-path node, or "" if none is present.
func ExtractFilePath(nodes []DevicePathNode) string {
	for _, n := range nodes {
		if n.Type != devicePathTypeMedia || n.SubType != devicePathSubTypeFilePath {
			continue
		}
		raw := codec.UTF16LEToUTF8(n.Data)
		return codec.BackslashToSlash(raw)
	}
	return ""
}

// BuildHardDriveNode encodes a GPT Hard Drive Media device-path node for
// partition partNumber at the given LBA start/size, identified by its
// unique GPT partition GUID (canonical string form, e.g.
// "c12a7328-f81f-11d2-ba4b-00a0c93ec93b").
func BuildHardDriveNode(partNumber uint32, startLBA, sizeLBA uint64, partitionUUID string) (DevicePathNode, error) {
	guid, err := parseGUID(partitionUUID)
	if err != nil {
		return DevicePathNode{}, err
	}
	data := make([]byte, 38)
	putU32LE(data[0:4], partNumber)
	putU64LE(data[4:12], startLBA)
	putU64LE(data[12:20], sizeLBA)
	copy(data[20:36], guid[:])
	data[36] = mbrTypeGPT
	data[37] = signatureTypeGUID
	return DevicePathNode{Type: devicePathTypeMedia, SubType: devicePathSubTypeHardDrive, Data: data}, nil
}

// BuildFilePathNode encodes a File Path Media device-path node from a
// forward-slash path.
func BuildFilePathNode(slashPath string) DevicePathNode {
	backslash := codec.SlashToBackslash(slashPath)
	return DevicePathNode{Type: devicePathTypeMedia, SubType: devicePathSubTypeFilePath, Data: codec.UTF8ToUTF16LE(backslash)}
}

// EncodeDevicePath serializes nodes followed by the end-of-path node.
func EncodeDevicePath(nodes []DevicePathNode) []byte {
	var out []byte
	for _, n := range nodes {
		out = append(out, n.Type, n.SubType)
		var lenBuf [2]byte
		putU16LE(lenBuf[:], uint16(len(n.Data)+4))
		out = append(out, lenBuf[:]...)
		out = append(out, n.Data...)
	}
	out = append(out, devicePathTypeEnd, devicePathSubTypeEndEntire, 4, 0)
	return out
}

func parseGUID(s string) (efi.GUID, error) {
	s = strings.TrimSpace(s)
	return efi.DecodeGUIDString(s)
}

func putU16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
