// Package obslog centralizes the structured logging handle passed
// explicitly to the install executor and the cmd/vcpkg-core driver, so
// that no package reaches for a hidden global logger (§9 "Global mutable
// state").
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal structured-logging surface components depend on.
// It is satisfied by *logrus.Logger and *logrus.Entry.
type Logger interface {
	WithField(key string, value interface{}) *logrus.Entry
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New returns a logrus.Logger configured with vcpkg's default ambient
// logging shape: text output to stderr, level driven by VCPKG_DEBUG.
func New() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.InfoLevel
	if os.Getenv("VCPKG_DEBUG") != "" {
		l.Level = logrus.DebugLevel
	}
	return l
}

// Discard returns a logger that drops everything; handy for tests and for
// callers that don't want ambient output.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = discardWriter{}
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
