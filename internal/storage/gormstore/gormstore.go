// Package gormstore implements the storage.Sink interface on a GORM
// database. Samples are queued and written in batches from a background
// writer so the record trigger never waits on the database. The same code
// serves SQLite (glebarez) and Postgres; the connection is injected.
package gormstore

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/vexlab/svr-debug/internal/model"
	"github.com/vexlab/svr-debug/internal/queue"
	"github.com/vexlab/svr-debug/pkg/core"
)

// flushInterval is how often the background writer drains the sample queue.
const flushInterval = time.Second

// Dependencies holds all dependencies for the GORM sink.
type Dependencies struct {
	DB  *gorm.DB
	Log *slog.Logger
}

// Backend implements storage.Sink using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	samples   *queue.Queue[model.PoseSample]
	sessionID atomic.Uint64
	stopChan  chan struct{}
	doneChan  chan struct{}
	dbReady   bool
}

// New creates a new GORM sink.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init runs schema migration and starts the background writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gormstore: no database connection")
	}

	b.samples = queue.New[model.PoseSample]()
	b.stopChan = make(chan struct{})
	b.doneChan = make(chan struct{})

	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.dbReady = true

	go b.writeLoop()
	return nil
}

// Close stops the writer, flushes pending samples and closes the connection.
func (b *Backend) Close() error {
	if !b.dbReady {
		return nil
	}
	close(b.stopChan)
	<-b.doneChan

	b.flush()

	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession creates the session row and remembers its ID for subsequent
// device and sample rows.
func (b *Backend) StartSession(s *core.Session) error {
	row := model.SessionToRow(s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.sessionID.Store(uint64(row.ID))
	s.ID = row.ID
	return nil
}

// EndSession flushes pending samples and stamps the session end time.
func (b *Backend) EndSession() error {
	b.flush()

	now := time.Now()
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", uint(b.sessionID.Load())).
		Update("end_time", &now).Error
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// AddDevice writes the device row immediately; device rows are rare and the
// dump CLI joins against them.
func (b *Backend) AddDevice(d core.TrackedDevice) error {
	row := model.DeviceToRow(uint(b.sessionID.Load()), d)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// RemoveDevice is a no-op for the database sink: disconnects are implicit in
// the sample record.
func (b *Backend) RemoveDevice(index uint32) error {
	return nil
}

// RecordSample queues a sample for the background writer.
func (b *Backend) RecordSample(s core.PoseSample) error {
	b.samples.Push(model.SampleToRow(uint(b.sessionID.Load()), s))
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.doneChan)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flush()
		case <-b.stopChan:
			return
		}
	}
}

func (b *Backend) flush() {
	rows := b.samples.GetAndEmpty()
	if len(rows) == 0 {
		return
	}
	if err := b.deps.DB.CreateInBatches(rows, 1000).Error; err != nil {
		if b.deps.Log != nil {
			b.deps.Log.Error("failed to write sample batch", "count", len(rows), "error", err)
		}
	}
}
