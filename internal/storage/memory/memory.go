// Package memory keeps the full debug session in memory and exports a JSON
// archive (optionally gzip-compressed) on session end. It implements
// storage.Sink and storage.Exportable.
package memory

import (
	"fmt"
	"sync"

	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/pkg/core"
)

// DeviceRecord groups a device with its recorded samples.
type DeviceRecord struct {
	Device  core.TrackedDevice
	Samples []core.PoseSample
}

// Backend stores session data in memory and exports to JSON.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	devices map[uint32]*DeviceRecord
	// strays holds samples for indices never announced via AddDevice; they
	// still belong in the archive.
	strays []core.PoseSample

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory archive sink.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		devices: make(map[uint32]*DeviceRecord),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins archiving a new session.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.devices = make(map[uint32]*DeviceRecord)
	b.strays = nil

	return nil
}

// EndSession finalizes and exports the session archive.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session started")
	}
	return b.exportJSON()
}

// AddDevice registers a device. Re-announcing an index keeps the earlier
// samples: SteamVR reuses indices after reconnects.
func (b *Backend) AddDevice(d core.TrackedDevice) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.devices[d.Index]; ok {
		rec.Device = d
		return nil
	}
	b.devices[d.Index] = &DeviceRecord{Device: d}
	return nil
}

// RemoveDevice is a no-op: the archive keeps everything seen this session.
func (b *Backend) RemoveDevice(index uint32) error {
	return nil
}

// RecordSample appends a sample to its device record.
func (b *Backend) RecordSample(s core.PoseSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.devices[s.DeviceIndex]; ok {
		rec.Samples = append(rec.Samples, s)
	} else {
		b.strays = append(b.strays, s)
	}
	return nil
}

// ExportedFilePath returns the path of the last exported archive.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
