// Package chainloader implements spec.md §4.5: constructing a device
// path for the chosen catalog entry, loading and starting it through the
// firmware loader service, and classifying the two non-retriable
// signed-image policy rejections.
//
// Grounded on pkg/efi/manager.go's FindOrCreateEntry device-path
// construction style (internal/efivario.BuildHardDriveNode/
// BuildFilePathNode), reused here for the boot-time chain-load path
// instead of the install-time variable-write path, and built against an
// ImageLoader interface standing in for the firmware's LoadImage/
// StartImage/UnloadImage boot services, the same way internal/menu's
// Console and KeyWaiter interfaces stand in for the firmware's text and
// key protocols (spec.md §1 out-of-scope collaborators).
package chainloader

import (
	"errors"
	"fmt"

	"github.com/gummiboot-go/loader/internal/catalog"
	"github.com/gummiboot-go/loader/internal/codec"
	"github.com/gummiboot-go/loader/internal/efivario"
	"github.com/gummiboot-go/loader/internal/fwvars"
)

// ImageHandle identifies a loaded image across Load/Start/Unload calls.
// Its concrete type is defined by the ImageLoader implementation.
type ImageHandle interface{}

// ImageLoader is the stand-in for the firmware's loaded-image protocol
// and boot services (spec.md §4.5).
type ImageLoader interface {
	// LoadImage loads the image addressed by devicePath and returns a
	// handle to its loaded-image protocol.
	LoadImage(devicePath []efivario.DevicePathNode) (ImageHandle, error)
	// SetLoadOptions assigns the handle's LoadOptions buffer.
	SetLoadOptions(handle ImageHandle, options string) error
	// StartImage transfers control to the loaded image and returns once
	// it exits back to the loader (or an error if it could not start).
	StartImage(handle ImageHandle) error
	// UnloadImage releases the handle. Called on every exit path.
	UnloadImage(handle ImageHandle) error
}

// PolicyError wraps a StartImage failure the firmware reported as a
// signed-image policy rejection (spec.md §4.5's "access denied" /
// "security violation"), which chain-loading treats as fatal for the
// whole session rather than retriable by re-showing the menu.
type PolicyError struct {
	Err error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("chainloader: security policy rejected image: %v", e.Err)
}

func (e *PolicyError) Unwrap() error { return e.Err }

var (
	// ErrAccessDenied and ErrSecurityViolation are the two non-retriable
	// firmware status codes spec.md §4.5 names; an ImageLoader
	// implementation should return one of these (or an error satisfying
	// errors.Is against one of them) from StartImage to signal a policy
	// rejection rather than an ordinary load failure.
	ErrAccessDenied      = errors.New("access denied")
	ErrSecurityViolation = errors.New("security violation")
)

// ChainLoader loads and starts catalog entries.
type ChainLoader struct {
	Loader ImageLoader
	Ticks  *fwvars.Ticks
}

// New returns a ChainLoader driving loader and recording LoaderTicksExec
// through ticks.
func New(loader ImageLoader, ticks *fwvars.Ticks) *ChainLoader {
	return &ChainLoader{Loader: loader, Ticks: ticks}
}

// Boot constructs entry's device path, loads it, assigns LoadOptions from
// optionsEdit (if set) or entry.Options, records LoaderTicksExec, starts
// the image, and unloads it on every exit path (spec.md §4.5, §5's
// resource-discipline requirement).
//
// A *PolicyError return means the caller must abort the entire session
// with a user-visible message rather than re-show the menu; any other
// error means the menu should be re-shown with its timeout disabled.
func (c *ChainLoader) Boot(entry *catalog.Entry, optionsEdit string) (err error) {
	dp, err := buildDevicePath(entry)
	if err != nil {
		return fmt.Errorf("chainloader: building device path: %w", err)
	}

	handle, err := c.Loader.LoadImage(dp)
	if err != nil {
		return fmt.Errorf("chainloader: loading %s: %w", entry.LoaderPath, err)
	}
	defer func() {
		if uerr := c.Loader.UnloadImage(handle); uerr != nil && err == nil {
			err = fmt.Errorf("chainloader: unloading %s: %w", entry.LoaderPath, uerr)
		}
	}()

	options := entry.Options
	if optionsEdit != "" {
		options = optionsEdit
	}
	if err = c.Loader.SetLoadOptions(handle, options); err != nil {
		return fmt.Errorf("chainloader: setting load options: %w", err)
	}

	if c.Ticks != nil {
		_ = c.Ticks.Record(fwvars.LoaderTicksExec)
	}

	if err = c.Loader.StartImage(handle); err != nil {
		if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrSecurityViolation) {
			return &PolicyError{Err: err}
		}
		return fmt.Errorf("chainloader: starting %s: %w", entry.LoaderPath, err)
	}
	return nil
}

// buildDevicePath constructs the device path for entry from its device
// handle string and backslash loader path, matching spec.md §4.5's
// "constructs a device path from (entry.device, entry.loader_path)".
// entry.Device is opaque to this package (a firmware device-handle
// identifier); only the file-path node is meaningful on the boot-time
// side, since the boot-time loader addresses devices by handle rather
// than by the host-side GPT partition metadata internal/installer uses.
func buildDevicePath(entry *catalog.Entry) ([]efivario.DevicePathNode, error) {
	if entry.LoaderPath == "" {
		return nil, fmt.Errorf("entry %q has no loader path", entry.ID)
	}
	fp := efivario.BuildFilePathNode(codec.BackslashToSlash(entry.LoaderPath))
	return []efivario.DevicePathNode{fp}, nil
}
