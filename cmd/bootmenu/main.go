// Command bootmenu is the boot-time menu loader of spec.md §1: it
// enumerates configured boot entries from the ESP, optionally presents a
// text-mode selection menu, and chains into the chosen EFI image.
//
// Real UEFI firmware cannot host a Go runtime, so this binary is the
// host-side stand-in SPEC_FULL.md describes: internal/menu,
// internal/chainloader, and internal/fwvars are built against small
// interfaces (Console, KeyWaiter, ImageLoader, fwvars.Backend) the same
// way the teacher's pkg/efi.Variables interface abstracts real vs mock
// EFI variable access. This main package supplies a terminal-backed
// Console/KeyWaiter (raw-mode ANSI I/O over os.Stdin/os.Stdout, built on
// golang.org/x/sys/unix's termios ioctls, already a transitive teacher
// dependency) and a dry-run ImageLoader that reports what it would have
// loaded instead of actually transferring control — the seam where a real
// UEFI Go runtime would substitute its own console and boot-services
// implementations in production.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/twpayne/go-vfs"

	"github.com/gummiboot-go/loader/internal/catalog"
	"github.com/gummiboot-go/loader/internal/chainloader"
	"github.com/gummiboot-go/loader/internal/fwvars"
	"github.com/gummiboot-go/loader/internal/menu"
)

func main() {
	espPath := flag.String("esp-path", "/boot/efi", "Mount point of the ESP this loader runs from")
	device := flag.String("device", "loader-device", "Opaque device-handle identifier for the ESP's filesystem")
	imagePath := flag.String("image-path", `\EFI\gummiboot\gummibootx64.efi`, "This loader's own backslash image path, used to suppress a self-referencing entry")
	versionBanner := flag.String("version", "gummiboot-go 1", "LoaderInfo-style version banner shown by the menu's 'v' command")
	dryRun := flag.Bool("dry-run", true, "Print the chosen entry instead of chain-loading it (the only mode available on a non-UEFI host)")
	flag.Parse()

	if err := run(*espPath, *device, *imagePath, *versionBanner, *dryRun); err != nil {
		fmt.Fprintln(os.Stderr, "bootmenu:", err)
		os.Exit(1)
	}
}

func run(espPath, device, imagePath, versionBanner string, dryRun bool) error {
	fsys := vfs.NewPathFS(vfs.OSFS, espPath)
	store := fwvars.New(fwvars.EFILibBackend{})

	cat, err := catalog.Build(fsys, store, device, imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootmenu: catalog build warnings:", err)
	}
	if len(cat.Entries) == 0 {
		return fmt.Errorf("no boot entries found under %s/loader/entries", espPath)
	}

	_ = store.Set(fwvars.LoaderVersion, versionBanner, false)
	ticks := fwvars.NewTicks(store, nil)
	_ = ticks.Record(fwvars.LoaderTicksInit)

	term, err := newTerminal()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer term.Close()

	m := menu.New(term, term, store)
	m.VersionBanner = versionBanner

	loader := &dryRunLoader{enabled: dryRun}
	cl := chainloader.New(loader, ticks)

	_ = ticks.Record(fwvars.LoaderTicksStartMenu)
	for {
		entry, err := m.Run(cat)
		if err != nil {
			if err == menu.ErrQuit {
				fmt.Println("bootmenu: quit, nothing booted")
				return nil
			}
			return fmt.Errorf("running menu: %w", err)
		}

		if err := cl.Boot(entry, cat.OptionsEdit); err != nil {
			var pe *chainloader.PolicyError
			if errors.As(err, &pe) {
				return fmt.Errorf("security policy rejected %s: enroll its hash and retry: %w", entry.ID, err)
			}
			fmt.Fprintf(os.Stderr, "bootmenu: chain-loading %s: %v\n", entry.ID, err)
			cat.TimeoutSec = 0
			continue
		}
		return nil
	}
}
