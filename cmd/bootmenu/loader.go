package main

import (
	"fmt"

	"github.com/gummiboot-go/loader/internal/chainloader"
	"github.com/gummiboot-go/loader/internal/efivario"
)

// dryRunLoader implements chainloader.ImageLoader by reporting what it
// would have loaded and started, since a plain Go binary running under a
// POSIX OS has no firmware loader service to hand control to. It is the
// substitution seam SPEC_FULL.md names: a real UEFI Go runtime would
// supply a LoadImage/StartImage/UnloadImage implementation backed by
// actual boot services instead of this one.
type dryRunLoader struct {
	enabled bool
}

func (d *dryRunLoader) LoadImage(dp []efivario.DevicePathNode) (chainloader.ImageHandle, error) {
	path := efivario.ExtractFilePath(dp)
	if d.enabled {
		fmt.Printf("bootmenu: (dry run) would load image at %s\n", path)
	}
	return path, nil
}

func (d *dryRunLoader) SetLoadOptions(handle chainloader.ImageHandle, options string) error {
	if d.enabled && options != "" {
		fmt.Printf("bootmenu: (dry run) LoadOptions = %q\n", options)
	}
	return nil
}

func (d *dryRunLoader) StartImage(handle chainloader.ImageHandle) error {
	if d.enabled {
		fmt.Printf("bootmenu: (dry run) would start %v\n", handle)
	}
	return nil
}

func (d *dryRunLoader) UnloadImage(handle chainloader.ImageHandle) error {
	return nil
}
