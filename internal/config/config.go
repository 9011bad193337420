// Package config threads the host installer's dependencies through an
// explicit configuration record instead of the original implementation's
// process-wide arg_path/arg_touch_variables globals (spec.md §9 "Global
// mutable state"), using the teacher's functional-options pattern
// (pkg/config.WithFs/WithLogger/...) generalized to this module's
// dependencies.
package config

import (
	"github.com/twpayne/go-vfs"

	"github.com/gummiboot-go/loader/internal/esp"
	"github.com/gummiboot-go/loader/internal/logging"
)

// Config is the explicit replacement for the original's arg_path and
// arg_touch_variables globals, threaded through every installer call.
type Config struct {
	Fs     vfs.FS
	Logger logging.Logger

	// Path is the ESP mount point, bound to --path.
	Path string
	// NoVariables disables all firmware-variable writes, bound to
	// --no-variables.
	NoVariables bool

	// EfivarsDir overrides the default efivarfs mount point; used by
	// tests to point at an in-memory filesystem location instead of
	// /sys/firmware/efi/efivars.
	EfivarsDir string

	// BlockProbe backs esp-probe's block-device partition-type check.
	BlockProbe esp.BlockProbe
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithFs overrides the filesystem used for ESP and efivarfs access.
func WithFs(fsys vfs.FS) Option {
	return func(c *Config) { c.Fs = fsys }
}

// WithLogger overrides the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithPath sets the ESP path.
func WithPath(path string) Option {
	return func(c *Config) { c.Path = path }
}

// WithNoVariables disables firmware-variable writes.
func WithNoVariables(noVariables bool) Option {
	return func(c *Config) { c.NoVariables = noVariables }
}

// WithEfivarsDir overrides the efivarfs mount point.
func WithEfivarsDir(dir string) Option {
	return func(c *Config) { c.EfivarsDir = dir }
}

// WithBlockProbe overrides the block-device partition-type probe.
func WithBlockProbe(p esp.BlockProbe) Option {
	return func(c *Config) { c.BlockProbe = p }
}

// New builds a Config with the real OS filesystem, a logrus logger, the
// real efivarfs mount point, and a ghw-backed block probe, then applies
// opts over those defaults — mirroring the teacher's NewConfig/NewRunConfig
// default-then-override construction.
func New(opts ...Option) *Config {
	c := &Config{
		Fs:         vfs.OSFS,
		Logger:     logging.New(),
		EfivarsDir: "/sys/firmware/efi/efivars",
		BlockProbe: esp.NewGHWBlockProbe(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
