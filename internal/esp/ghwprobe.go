package esp

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	efi "github.com/canonical/go-efilib"
	"github.com/jaypipes/ghw"
)

// GHWBlockProbe implements BlockProbe using github.com/jaypipes/ghw for
// mount-point-to-device resolution and filesystem-type identification
// (standing in for the spec's `/dev/block/<major>:<minor>` + libblkid
// convention, spec.md §4.6 step 4), and
// github.com/canonical/go-efilib's GPT reader for the partition
// table fields ghw does not expose (scheme, partition type GUID, unique
// partition GUID, offset, size) — ghw's Partition struct carries Name,
// MountPoint, Type and UUID but not the GPT partition-type GUID itself,
// so the two libraries are combined rather than either one alone
// covering step 4.
type GHWBlockProbe struct {
	// SectorSize is assumed when converting LBAs to byte offsets; 512 is
	// the near-universal default and ghw does not expose the logical
	// sector size of an arbitrary partition's backing disk in a form this
	// probe can rely on without a privileged ioctl.
	SectorSize uint64
}

// NewGHWBlockProbe returns a GHWBlockProbe with the conventional 512-byte
// sector size.
func NewGHWBlockProbe() *GHWBlockProbe {
	return &GHWBlockProbe{SectorSize: 512}
}

var partitionNumberRE = regexp.MustCompile(`p?(\d+)$`)

// Probe implements BlockProbe.
func (g *GHWBlockProbe) Probe(mountPath string) (PartitionInfo, error) {
	block, err := ghw.Block()
	if err != nil {
		return PartitionInfo{}, fmt.Errorf("ghw.Block: %w", err)
	}

	for _, disk := range block.Disks {
		for _, part := range disk.Partitions {
			if part.MountPoint != mountPath {
				continue
			}
			return g.describe(part)
		}
	}
	return PartitionInfo{}, fmt.Errorf("no block-device partition mounted at %s", mountPath)
}

func (g *GHWBlockProbe) describe(part *ghw.Partition) (PartitionInfo, error) {
	devNode := "/dev/" + part.Name

	m := partitionNumberRE.FindStringSubmatch(part.Name)
	if m == nil {
		return PartitionInfo{}, fmt.Errorf("cannot determine partition number from device name %q", part.Name)
	}
	number, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return PartitionInfo{}, fmt.Errorf("parsing partition number from %q: %w", part.Name, err)
	}

	sectorSize := g.SectorSize
	if sectorSize == 0 {
		sectorSize = 512
	}

	devFile, err := os.Open(devNode)
	if err != nil {
		return PartitionInfo{}, fmt.Errorf("opening %s: %w", devNode, err)
	}
	defer devFile.Close()

	devSize, err := devFile.Seek(0, os.SEEK_END)
	if err != nil {
		return PartitionInfo{}, fmt.Errorf("sizing %s: %w", devNode, err)
	}

	table, err := efi.ReadPartitionTable(devFile, devSize, int64(sectorSize), efi.PrimaryPartitionTable, true)
	if err != nil {
		return PartitionInfo{}, fmt.Errorf("reading GPT from %s: %w", devNode, err)
	}
	idx := int(number) - 1
	if idx < 0 || idx >= len(table.Entries) {
		return PartitionInfo{}, fmt.Errorf("partition number %d out of range for %s", number, devNode)
	}
	entry := table.Entries[idx]

	return PartitionInfo{
		DeviceNode:        devNode,
		FilesystemType:    part.Type,
		Scheme:            "gpt",
		PartitionTypeGUID: entry.PartitionTypeGUID.String(),
		UUID:              entry.UniquePartitionGUID.String(),
		Number:            uint32(number),
		OffsetBytes:       uint64(entry.StartingLBA) * sectorSize,
		SizeBytes:         (uint64(entry.EndingLBA) - uint64(entry.StartingLBA) + 1) * sectorSize,
	}, nil
}
