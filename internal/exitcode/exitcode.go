// Package exitcode carries process exit codes alongside errors returned
// from the host-side installer, grounded directly on the teacher's
// pkg/error (ElementalError/New/NewFromError), adapted to the taxonomy
// spec.md §7 names: transient I/O, validation, out-of-memory,
// absent-but-expected, security policy, and malformed-record.
package exitcode

import "errors"

// Error pairs a message with the process exit code cmd/setup should use
// when this error reaches main().
type Error struct {
	msg  string
	code int
}

func (e *Error) Error() string {
	return e.msg
}

// ExitCode returns the process exit code associated with e.
func (e *Error) ExitCode() int {
	return e.code
}

// New builds an Error from a message and a code.
func New(msg string, code int) error {
	return &Error{msg: msg, code: code}
}

// Wrap builds an Error from an existing error, preserving its message and
// attaching code. A nil err yields a nil error.
func Wrap(err error, code int) error {
	if err == nil {
		return nil
	}
	return &Error{msg: err.Error(), code: code}
}

// CodeOf extracts the exit code from err if it (or something it wraps) is
// an *Error, otherwise returns Unknown.
func CodeOf(err error) int {
	type exitCoder interface{ ExitCode() int }
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return Unknown
}

// Exit codes, matching spec.md §7's error taxonomy. Transient I/O errors
// use the 10s range, validation the 20s, out-of-memory the 30s, security
// policy the 40s.
const (
	// OK is the process's own successful-exit value; never returned as an
	// error code, listed for documentation completeness.
	OK = 0

	// OpenFile is an error opening a file (transient I/O).
	OpenFile = 10
	// ReadFile is an error reading a file (transient I/O).
	ReadFile = 11
	// WriteFile is an error writing a file (transient I/O).
	WriteFile = 12
	// CreateTempFile is an error creating the "<dst>~" staging file.
	CreateTempFile = 13
	// RenameFile is an error renaming the staging file onto its destination.
	RenameFile = 14
	// StatFile is an error calling stat/statfs.
	StatFile = 15

	// NotAnESP is a validation failure: the target path failed one of
	// esp-probe's checks (not FAT, not a mount point, not a GPT ESP).
	NotAnESP = 20
	// MalformedVersion is a validation failure parsing a LoaderInfo marker.
	MalformedVersion = 21
	// NoLoaderInfoMarker is a validation failure: a binary has no
	// embedded LoaderInfo marker to extract a version from.
	NoLoaderInfoMarker = 22
	// InvalidVariable is a validation failure decoding a firmware variable.
	InvalidVariable = 23

	// OutOfMemory is propagated to the outermost caller, which prints and
	// exits (spec.md §7).
	OutOfMemory = 30

	// SecurityPolicy marks a fatal, non-retriable chain-load rejection
	// (access-denied or security-violation, spec.md §4.5/§7).
	SecurityPolicy = 40

	// RequiresRoot mirrors the teacher's "command requires root
	// privileges" code: writing efivarfs or the ESP needs elevated
	// permissions.
	RequiresRoot = 50

	// Unknown is used when an error arrives without an associated code.
	Unknown = 255
)
