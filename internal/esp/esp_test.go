package esp

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
)

type mockProbe struct {
	info PartitionInfo
	err  error
}

func (m mockProbe) Probe(string) (PartitionInfo, error) {
	return m.info, m.err
}

func validPartition() PartitionInfo {
	return PartitionInfo{
		DeviceNode:        "/dev/sda1",
		FilesystemType:    "vfat",
		Scheme:            "gpt",
		PartitionTypeGUID: espPartitionTypeGUID,
		UUID:              "11111111-2222-3333-4444-555555555555",
		Number:            1,
		OffsetBytes:       1048576,
		SizeBytes:         209715200,
	}
}

func validatorFor(t *testing.T, probe BlockProbe, fatMagic int64, mounted bool, major uint64) *Validator {
	t.Helper()
	return &Validator{
		Statfs: func(string) (unix.Statfs_t, error) {
			var s unix.Statfs_t
			s.Type = fatMagic
			return s, nil
		},
		Stat: func(path string) (unix.Stat_t, error) {
			var s unix.Stat_t
			if path == "/esp/.." {
				s.Dev = 1
			} else if mounted {
				s.Dev = unix.Mkdev(uint32(major), 1)
			} else {
				s.Dev = 1
			}
			return s, nil
		},
		Probe: probe,
	}
}

func TestValidateSucceeds(t *testing.T) {
	v := validatorFor(t, mockProbe{info: validPartition()}, msdosSuperMagic, true, 8)
	res, err := v.Validate("/esp")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Partition.PartitionTypeGUID != espPartitionTypeGUID {
		t.Fatalf("got %q", res.Partition.PartitionTypeGUID)
	}
}

func TestValidateRejectsWrongFilesystemMagic(t *testing.T) {
	v := validatorFor(t, mockProbe{info: validPartition()}, 0xEF53, true, 8)
	if _, err := v.Validate("/esp"); err == nil {
		t.Fatal("expected error for non-FAT statfs magic")
	}
}

func TestValidateRejectsNonMountPoint(t *testing.T) {
	v := validatorFor(t, mockProbe{info: validPartition()}, msdosSuperMagic, false, 8)
	if _, err := v.Validate("/esp"); err == nil {
		t.Fatal("expected error when path is not a mount point")
	}
}

func TestValidateRejectsNonESPPartitionType(t *testing.T) {
	part := validPartition()
	part.PartitionTypeGUID = "00000000-0000-0000-0000-000000000000"
	v := validatorFor(t, mockProbe{info: part}, msdosSuperMagic, true, 8)
	if _, err := v.Validate("/esp"); err == nil {
		t.Fatal("expected error for wrong partition type GUID")
	}
}

func TestValidateRejectsProbeFailure(t *testing.T) {
	v := validatorFor(t, mockProbe{err: fmt.Errorf("boom")}, msdosSuperMagic, true, 8)
	if _, err := v.Validate("/esp"); err == nil {
		t.Fatal("expected error when block probe fails")
	}
}
