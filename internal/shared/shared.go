// Package shared holds the configuration, error taxonomy, logging and
// filesystem helpers that every step of the batch cycle depends on.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger returns a [log.Logger] writing to w with timestamps and caller
// reporting enabled. A nil writer falls back to [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger derives a child logger that carries the given key-value pairs
// on every entry. The engine uses it to tag a whole cycle with its run id.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// GenerateID returns a new random v4 [uuid.UUID] as a string.
func GenerateID() string {
	return uuid.New().String()
}
