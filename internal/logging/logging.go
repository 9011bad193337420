// Package logging provides the structured-logging abstraction used across
// both the host-side installer and the firmware-side loader, grounded on
// the teacher's pkg/types/v1.Logger interface over logrus
// (NewLogger/NewNullLogger/NewBufferLogger): a small interface lets the
// firmware side swap in a console-backed adapter while tests and the host
// CLI use logrus directly.
package logging

import (
	"bytes"
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger is the subset of logrus's API this module actually calls.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
	SetLevel(level log.Level)
	GetLevel() log.Level
	SetOutput(w io.Writer)
}

// New returns a logrus-backed Logger writing to stderr at info level,
// matching the CLI's default verbosity.
func New() Logger {
	l := log.New()
	l.SetLevel(log.InfoLevel)
	return l
}

// NewNull returns a Logger that discards everything, for code paths that
// are exercised without a caller-supplied logger.
func NewNull() Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// NewBuffer returns a Logger that writes to buf, for tests asserting on
// log content.
func NewBuffer(buf *bytes.Buffer) Logger {
	l := log.New()
	l.SetOutput(buf)
	l.SetLevel(log.DebugLevel)
	return l
}

// WithDebug sets l to debug level when debug is true, matching the CLI's
// --debug flag.
func WithDebug(l Logger, debug bool) {
	if debug {
		l.SetLevel(log.DebugLevel)
	}
}
