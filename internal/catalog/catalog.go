// Package catalog builds, sorts, de-duplicates, and default-selects the
// set of boot entries found on an ESP, grounded on the teacher's pkg/efi
// BootManager's scan-then-classify pattern and on
// original_source/gummiboot.c's config_load/config_entry_add_from_file/
// config_default_entry_select.
package catalog

import (
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/twpayne/go-vfs"

	"github.com/gummiboot-go/loader/internal/codec"
	"github.com/gummiboot-go/loader/internal/confparser"
	"github.com/gummiboot-go/loader/internal/fwvars"
	"github.com/gummiboot-go/loader/internal/natcmp"
)

// Kind classifies what an entry chain-loads.
type Kind int

const (
	KindUndefined Kind = iota
	KindEFI
	KindLinux
)

// Entry is one catalog member, built from a single entries/<id>.conf file
// or contributed by auto-detection.
type Entry struct {
	ID          string
	Title       string
	TitleShown  string
	Version     string
	MachineID   string
	Kind        Kind
	LoaderPath  string // backslash-separated, absolute
	InitrdPath  string
	Options     string
	Device      string
	NoAutoselect bool
	NonUnique   bool
}

// Catalog is the ordered, sorted, de-duplicated set of entries for one
// boot, plus the default-selection and timeout state layered on top.
type Catalog struct {
	Entries []*Entry

	TimeoutSecConfig int
	TimeoutSecEFIVar int
	HasTimeoutEFIVar bool
	TimeoutSec       int

	DefaultPattern string

	IdxDefault       int
	IdxDefaultEFIVar int // -1 if none

	OptionsEdit string

	EntriesAuto []string
}

const (
	loaderConfPath  = "/loader/loader.conf"
	entriesDirPath  = "/loader/entries"
)

// autoDetection describes one well-known loader whose presence the
// catalog checks for directly, independent of any .conf file.
type autoDetection struct {
	id    string
	title string
	path  string // backslash form
}

var autoDetections = []autoDetection{
	{id: "auto-windows", title: "Windows Boot Manager", path: `\EFI\Microsoft\Boot\bootmgfw.efi`},
	{id: "auto-efi-shell", title: "EFI Shell", path: `\shellx64.efi`},
	{id: "auto-efi-default", title: "EFI Default Loader", path: `\EFI\BOOT\BOOTX64.EFI`},
	{id: "auto-osx", title: "macOS", path: `\System\Library\CoreServices\boot.efi`},
}

// Build scans loader.conf and entries/*.conf through fsys, folds in any
// firmware-variable state from store, appends the well-known
// auto-detections, sorts, uniquifies titles, and selects a default. device
// identifies the filesystem handle the entries live on (spec.md §3
// "device"); loadedImagePath is this loader's own backslash image path,
// used to suppress a self-referencing entry.
//
// Read errors for individual entries/*.conf files are collected into a
// non-fatal multierror rather than aborting the build, matching
// spec.md §7's "absent-but-expected"/"malformed record" treatment applied
// at file granularity.
func Build(fsys vfs.FS, store *fwvars.Store, device, loadedImagePath string) (*Catalog, error) {
	cat := &Catalog{IdxDefaultEFIVar: -1}

	if data, err := fsys.ReadFile(loaderConfPath); err == nil {
		lc := confparser.ParseLoaderConf(confparser.Scan(data))
		if lc.TimeoutSet {
			cat.TimeoutSecConfig = lc.TimeoutSec
		}
		cat.DefaultPattern = lc.DefaultPattern
	}
	cat.TimeoutSec = cat.TimeoutSecConfig

	if n, ok, err := store.GetInt(fwvars.LoaderConfigTimeout); err == nil && ok {
		cat.TimeoutSecEFIVar = n
		cat.HasTimeoutEFIVar = true
		cat.TimeoutSec = n
	}

	var buildErrs *multierror.Error

	names, err := fsys.ReadDir(entriesDirPath)
	if err == nil {
		for _, fi := range names {
			name := fi.Name()
			if fi.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(name), ".conf") {
				continue
			}
			data, rerr := fsys.ReadFile(path.Join(entriesDirPath, name))
			if rerr != nil {
				buildErrs = multierror.Append(buildErrs, rerr)
				continue
			}
			entry := buildEntry(name, data, device, loadedImagePath)
			if entry == nil {
				continue
			}
			applyFirmwareOptions(entry, store)
			cat.Entries = append(cat.Entries, entry)
		}
	}
	// A missing entries/ directory is absent-but-expected, not an error.

	for _, ad := range autoDetections {
		if _, err := fsys.Stat(codec.BackslashToSlash(ad.path)); err != nil {
			continue
		}
		cat.Entries = append(cat.Entries, &Entry{
			ID:           ad.id,
			Title:        ad.title,
			TitleShown:   ad.title,
			Kind:         KindEFI,
			LoaderPath:   ad.path,
			Device:       device,
			NoAutoselect: true,
		})
		cat.EntriesAuto = append(cat.EntriesAuto, ad.id)
	}

	sortEntries(cat.Entries)
	uniquifyTitles(cat.Entries)
	selectDefault(cat, store)

	if buildErrs.ErrorOrNil() != nil {
		return cat, buildErrs.ErrorOrNil()
	}
	return cat, nil
}

// buildEntry turns one entries/<id>.conf file's bytes into an Entry, or
// nil if the file produces no valid (efi|linux) entry.
func buildEntry(filename string, data []byte, device, loadedImagePath string) *Entry {
	if !strings.HasSuffix(strings.ToLower(filename), ".conf") {
		return nil
	}
	ec := confparser.ParseEntryConf(confparser.Scan(data))
	id := strings.ToLower(strings.TrimSuffix(filename, ".conf"))

	entry := &Entry{
		ID:        id,
		Title:     ec.Title,
		Version:   ec.Version,
		MachineID: ec.MachineID,
		Device:    device,
		Options:   ec.Options,
	}

	switch {
	case ec.EFI != "":
		entry.Kind = KindEFI
		entry.LoaderPath = codec.CanonicalizeBackslashPath(codec.SlashToBackslash(ec.EFI))
		if loadedImagePath != "" && equalFoldPath(entry.LoaderPath, loadedImagePath) {
			entry.Kind = KindUndefined
		}
	case ec.Linux != "":
		entry.Kind = KindLinux
		entry.LoaderPath = codec.CanonicalizeBackslashPath(codec.SlashToBackslash(ec.Linux))
		entry.InitrdPath = ec.Initrd
	default:
		entry.Kind = KindUndefined
	}

	if entry.Kind == KindUndefined || entry.LoaderPath == "" {
		return nil
	}
	if entry.Title == "" {
		entry.Title = entry.LoaderPath
	}
	entry.TitleShown = entry.Title
	return entry
}

func equalFoldPath(a, b string) bool {
	return strings.EqualFold(codec.CanonicalizeBackslashPath(a), codec.CanonicalizeBackslashPath(b))
}

// applyFirmwareOptions folds LoaderEntryOptions-<mid> and
// LoaderEntryOptionsOneShot-<mid> into entry.Options before the menu or
// chain-loader ever see it, matching gummiboot's
// config_entry_add_from_file behavior of merging firmware-variable
// options into the in-memory entry at load time (SPEC_FULL.md
// "fw-vars/menu-local options" supplement).
func applyFirmwareOptions(entry *Entry, store *fwvars.Store) {
	if entry.MachineID == "" {
		return
	}
	if extra, err := store.Get(fwvars.LoaderEntryOptionsName(entry.MachineID)); err == nil && extra != "" {
		entry.Options = joinOptions(entry.Options, extra)
	}
	if extra, err := store.GetAndClear(fwvars.LoaderEntryOptionsOneShotName(entry.MachineID)); err == nil && extra != "" {
		entry.Options = joinOptions(entry.Options, extra)
	}
}

func joinOptions(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

// sortEntries orders entries by ID under the natural version comparator.
func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return natcmp.Less(entries[i].ID, entries[j].ID)
	})
}

// selectDefault implements spec.md §4.3's five-step default-selection
// policy, reading and consuming firmware variables as it goes.
func selectDefault(cat *Catalog, store *fwvars.Store) {
	n := len(cat.Entries)
	if n == 0 {
		cat.IdxDefault = 0
		return
	}

	if oneShot, err := store.GetAndClear(fwvars.LoaderEntryOneShot); err == nil && oneShot != "" {
		if idx := indexByID(cat.Entries, oneShot); idx >= 0 {
			cat.IdxDefault = idx
			return
		}
	}

	if def, err := store.Get(fwvars.LoaderEntryDefault); err == nil && def != "" {
		if idx := indexByID(cat.Entries, def); idx >= 0 {
			cat.IdxDefault = idx
			cat.IdxDefaultEFIVar = idx
			return
		}
	}

	if cat.DefaultPattern != "" {
		for i := n - 1; i >= 0; i-- {
			e := cat.Entries[i]
			if e.NoAutoselect {
				continue
			}
			if matched, _ := path.Match(cat.DefaultPattern, strings.ToLower(e.ID)); matched {
				cat.IdxDefault = i
				return
			}
		}
	}

	for i := n - 1; i >= 0; i-- {
		if !cat.Entries[i].NoAutoselect {
			cat.IdxDefault = i
			return
		}
	}

	// All entries are flagged no_autoselect: select the last regardless.
	cat.IdxDefault = n - 1
}

func indexByID(entries []*Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
