// internal/storage/storage.go
package storage

import "github.com/vexlab/svr-debug/pkg/core"

// Sink is the interface all mirror sinks must satisfy. Sinks receive a copy
// of everything the overlay records; they are best-effort and must never
// block the frame thread for long. The CSV export path does not go through
// sinks — its flush/clear semantics live in the overlay.
type Sink interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Device lifecycle
	AddDevice(d core.TrackedDevice) error
	RemoveDevice(index uint32) error

	// Sample recording
	RecordSample(s core.PoseSample) error
}

// Exportable is an optional interface for sinks that produce a file on
// session end (e.g. the memory archive).
type Exportable interface {
	ExportedFilePath() string
}
