// Package esp implements the host-side ESP validator of spec.md §4.6:
// statfs/stat checks that a directory is really the EFI System Partition,
// followed by a block-device partition-type probe. Grounded on the
// teacher's pkg/partitioner external-tool-wrapping style (structured
// results from a lower-level probe), generalized here to syscalls
// (golang.org/x/sys/unix, already a transitive teacher dependency) for the
// statfs/stat steps and to github.com/jaypipes/ghw plus
// github.com/canonical/go-efilib's GPT reader for the block-device
// step, since this spec only reads partition-type metadata and never
// writes a partition table (spec.md's Non-goals).
package esp

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// msdosSuperMagic is statfs's f_type value for a FAT filesystem
// (spec.md §4.6 step 1).
const msdosSuperMagic = 0x4d44

// espPartitionTypeGUID is the canonical GPT partition type GUID for an
// EFI System Partition.
const espPartitionTypeGUID = "c12a7328-f81f-11d2-ba4b-00a0c93ec93b"

// PartitionInfo carries the blkid-style fields spec.md §4.6 step 5 says
// must be captured for later Boot#### variable construction.
type PartitionInfo struct {
	DeviceNode      string // e.g. "/dev/sda1"
	FilesystemType  string // "vfat" expected
	Scheme          string // "gpt" expected
	PartitionTypeGUID string
	UUID            string // PART_ENTRY_UUID
	Number          uint32 // PART_ENTRY_NUMBER
	OffsetBytes     uint64 // PART_ENTRY_OFFSET, in bytes
	SizeBytes       uint64 // PART_ENTRY_SIZE, in bytes
}

// BlockProbe identifies the block device backing mountPath and returns its
// blkid-style partition metadata.
type BlockProbe interface {
	Probe(mountPath string) (PartitionInfo, error)
}

// Result is the outcome of a successful Validate call: the captured
// partition metadata spec.md §4.6 step 5 requires.
type Result struct {
	Path      string
	Partition PartitionInfo
}

// StatFunc and StatfsFunc are overridable for tests; they default to the
// real syscalls.
type StatFunc func(path string) (unix.Stat_t, error)
type StatfsFunc func(path string) (unix.Statfs_t, error)

func realStat(path string) (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Stat(path, &st)
	return st, err
}

func realStatfs(path string) (unix.Statfs_t, error) {
	var st unix.Statfs_t
	err := unix.Statfs(path, &st)
	return st, err
}

// Validator runs spec.md §4.6's checks against the real syscalls and a
// BlockProbe by default; tests override Stat/Statfs/Probe.
type Validator struct {
	Stat   StatFunc
	Statfs StatfsFunc
	Probe  BlockProbe
}

// NewValidator returns a Validator wired to the real syscalls and probe.
func NewValidator(probe BlockProbe) *Validator {
	return &Validator{Stat: realStat, Statfs: realStatfs, Probe: probe}
}

// Validate runs every check of spec.md §4.6 in order against path, failing
// with a diagnostic naming the violated check.
func (v *Validator) Validate(path string) (*Result, error) {
	stat, statfs := v.Stat, v.Statfs
	if stat == nil {
		stat = realStat
	}
	if statfs == nil {
		statfs = realStatfs
	}

	sfs, err := statfs(path)
	if err != nil {
		return nil, fmt.Errorf("esp: statfs %s: %w", path, err)
	}
	if int64(sfs.Type) != msdosSuperMagic {
		return nil, fmt.Errorf("esp: %s is not a FAT filesystem (f_type=%#x)", path, sfs.Type)
	}

	st, err := stat(path)
	if err != nil {
		return nil, fmt.Errorf("esp: stat %s: %w", path, err)
	}
	parent, err := stat(path + "/..")
	if err != nil {
		return nil, fmt.Errorf("esp: stat %s/..: %w", path, err)
	}
	if st.Dev == parent.Dev {
		return nil, fmt.Errorf("esp: %s is not a mount point", path)
	}

	if unix.Major(st.Dev) == 0 {
		return nil, fmt.Errorf("esp: %s is not backed by a real block device", path)
	}

	if v.Probe == nil {
		return nil, fmt.Errorf("esp: no block-device probe configured")
	}
	part, err := v.Probe.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("esp: block-device probe for %s: %w", path, err)
	}
	if part.FilesystemType != "vfat" {
		return nil, fmt.Errorf("esp: %s TYPE=%q, want vfat", path, part.FilesystemType)
	}
	if part.Scheme != "gpt" {
		return nil, fmt.Errorf("esp: %s PART_ENTRY_SCHEME=%q, want gpt", path, part.Scheme)
	}
	if part.PartitionTypeGUID != espPartitionTypeGUID {
		return nil, fmt.Errorf("esp: %s PART_ENTRY_TYPE=%q, want the EFI System Partition GUID", path, part.PartitionTypeGUID)
	}

	return &Result{Path: path, Partition: part}, nil
}
