package gormstore

import (
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vexlab/svr-debug/internal/model"
	"github.com/vexlab/svr-debug/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	b := New(Dependencies{DB: db, Log: slog.Default()})
	if err := b.Init(); err != nil {
		t.Fatalf("failed to init backend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBackend_SessionLifecycle(t *testing.T) {
	b := newTestBackend(t)

	s := &core.Session{Tag: "test", StartTime: time.Now()}
	if err := b.StartSession(s); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if s.ID == 0 {
		t.Error("session ID not assigned")
	}

	if err := b.EndSession(); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	var row model.Session
	if err := b.deps.DB.First(&row, s.ID).Error; err != nil {
		t.Fatalf("session row missing: %v", err)
	}
	if row.EndTime == nil {
		t.Error("end time not stamped")
	}
}

func TestBackend_RecordSampleFlushed(t *testing.T) {
	b := newTestBackend(t)

	s := &core.Session{Tag: "test", StartTime: time.Now()}
	if err := b.StartSession(s); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if err := b.AddDevice(core.TrackedDevice{Index: 1, Class: core.ClassController}); err != nil {
		t.Fatalf("AddDevice failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := b.RecordSample(core.PoseSample{
			Timestamp:   float64(i),
			DeviceIndex: 1,
			Class:       core.ClassController,
		})
		if err != nil {
			t.Fatalf("RecordSample failed: %v", err)
		}
	}

	// EndSession flushes synchronously
	if err := b.EndSession(); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	var count int64
	b.deps.DB.Model(&model.PoseSample{}).Where("session_id = ?", s.ID).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 sample rows, got %d", count)
	}
}

func TestBackend_InitWithoutDB(t *testing.T) {
	b := New(Dependencies{})
	if err := b.Init(); err == nil {
		t.Error("expected error initializing without a DB")
	}
}
