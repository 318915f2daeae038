// internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"

	"github.com/dronedata/camerapos/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun() error

	// Result recording, in output order
	RecordMatch(m *core.MatchedImage) error
	RecordUnmatched(d *core.Diagnostic) error
}

// Exporter is an optional interface for storage backends that write files.
type Exporter interface {
	OutputFiles() []string
}

// WriteError reports that results could not be persisted. It is always fatal for the run.
type WriteError struct {
	Backend string
	Target  string // file path or table
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: writing %s: %v", e.Backend, e.Target, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Multi fans every call out to several backends in order.
// Errors from all backends are joined; the first backend to fail does not stop the others.
type Multi struct {
	backends []Backend
}

// NewMulti combines backends. Nil entries are skipped.
func NewMulti(backends ...Backend) *Multi {
	valid := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			valid = append(valid, b)
		}
	}
	return &Multi{backends: valid}
}

func (m *Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m.backends {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Init() error {
	return m.each(Backend.Init)
}

func (m *Multi) Close() error {
	return m.each(Backend.Close)
}

func (m *Multi) StartRun(run *core.Run) error {
	return m.each(func(b Backend) error { return b.StartRun(run) })
}

func (m *Multi) EndRun() error {
	return m.each(Backend.EndRun)
}

func (m *Multi) RecordMatch(img *core.MatchedImage) error {
	return m.each(func(b Backend) error { return b.RecordMatch(img) })
}

func (m *Multi) RecordUnmatched(d *core.Diagnostic) error {
	return m.each(func(b Backend) error { return b.RecordUnmatched(d) })
}

// OutputFiles collects the files written by every exporting backend.
func (m *Multi) OutputFiles() []string {
	var files []string
	for _, b := range m.backends {
		if e, ok := b.(Exporter); ok {
			files = append(files, e.OutputFiles()...)
		}
	}
	return files
}

// Persist streams a correlation result into a backend: one run, every row in order.
func Persist(b Backend, run *core.Run, result core.Result) error {
	if err := b.StartRun(run); err != nil {
		return err
	}
	for i := range result.Matched {
		if err := b.RecordMatch(&result.Matched[i]); err != nil {
			return err
		}
	}
	for i := range result.Unmatched {
		if err := b.RecordUnmatched(&result.Unmatched[i]); err != nil {
			return err
		}
	}
	return b.EndRun()
}
