// LoaderInfo marker extraction (spec.md §4.7): every loader binary embeds
// a plain-ASCII `#### LoaderInfo: <product> <version> ####` string. The
// installer finds it with a two-step substring search, then splits the
// captured text at its first space into product/version for the natural
// version comparison already used by internal/catalog (spec.md §4.7
// "identical algorithm to §4.3").
package installer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	markerPrefix = "#### LoaderInfo: "
	markerSuffix = " ####"
)

// ExtractLoaderInfo runs the two-step find described by spec.md §4.7
// against an in-memory buffer (the contents of a loader binary) and
// splits the captured text into product and version at the first space.
func ExtractLoaderInfo(data []byte) (product, version string, ok bool) {
	start := bytes.Index(data, []byte(markerPrefix))
	if start < 0 {
		return "", "", false
	}
	start += len(markerPrefix)
	end := bytes.Index(data[start:], []byte(markerSuffix))
	if end < 0 {
		return "", "", false
	}
	marker := string(data[start : start+end])
	i := strings.IndexByte(marker, ' ')
	if i < 0 {
		return "", "", false
	}
	return marker[:i], marker[i+1:], true
}

// ReadLoaderInfoFromFile memory-maps path and extracts its LoaderInfo
// marker, matching spec.md §4.7's "memory-mapping the binary" phrasing for
// the production, real-filesystem path. Tests and vfs.FS-backed callers
// use ExtractLoaderInfo directly against bytes already in memory (the vfs
// abstraction used elsewhere in this module does not expose file
// descriptors to mmap, so this one path drops to the real OS file instead
// of going through vfs.FS).
func ReadLoaderInfoFromFile(path string) (product, version string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", "", fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return "", "", fmt.Errorf("%s: empty file, no LoaderInfo marker", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return "", "", fmt.Errorf("mmap %s: %w", path, err)
	}
	defer unix.Munmap(data)

	product, version, ok := ExtractLoaderInfo(data)
	if !ok {
		return "", "", fmt.Errorf("%s: no LoaderInfo marker found", path)
	}
	return product, version, nil
}
