package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vexlab/svr-debug/internal/influx"
	"github.com/vexlab/svr-debug/internal/session"
	"github.com/vexlab/svr-debug/pkg/core"
)

// Stats is a point-in-time snapshot of overlay loop state. TickCount is
// cumulative since connect; the monitor derives a per-interval rate from it.
type Stats struct {
	TickCount   uint64 `json:"tickCount"`
	Devices     int    `json:"devices"`
	Markers     int    `json:"markers"`
	BufferDepth int    `json:"bufferDepth"`
	Visible     bool   `json:"visible"`
	Recording   bool   `json:"recording"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Log            *slog.Logger
	SessionContext *session.Context
	Collect        func() Stats
	Devices        func() []core.TrackedDevice // nil disables per-device telemetry
	Influx         *influx.Manager             // nil disables metric export
	StatusDir      string
	Interval       time.Duration
}

// Service periodically samples overlay stats, mirrors them to a status file
// and forwards them to InfluxDB when a manager is configured.
type Service struct {
	deps      Dependencies
	isRunning bool
	stopped   bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

type statusReport struct {
	Time     time.Time `json:"time"`
	Session  string    `json:"session"`
	Elapsed  float64   `json:"elapsed"`
	TickRate float64   `json:"tickRate"`
	Stats
}

// Report builds a status report from the current stats and the tick count
// observed at the previous interval.
func (s *Service) Report(prevTicks uint64, now time.Time) statusReport {
	stats := s.deps.Collect()
	cur := s.deps.SessionContext.Get()

	rate := float64(stats.TickCount-prevTicks) / s.deps.Interval.Seconds()
	if stats.TickCount < prevTicks {
		rate = 0
	}

	return statusReport{
		Time:     now,
		Session:  cur.Tag,
		Elapsed:  s.deps.SessionContext.Elapsed(now),
		TickRate: rate,
		Stats:    stats,
	}
}

// Start starts the monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopped = false
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Log
		logger.Debug("Starting monitor goroutine", "interval", s.deps.Interval)

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var prevTicks uint64
		for {
			select {
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				report := s.Report(prevTicks, now)
				prevTicks = report.TickCount

				if statusFile != nil {
					body, err := json.MarshalIndent(report, "", "  ")
					if err != nil {
						body = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
					}
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(append(body, '\n'))
				}

				if s.deps.Influx != nil {
					point := influx.OverlayStatsPoint(
						report.Session,
						int(report.TickRate),
						report.Devices,
						report.BufferDepth,
						report.Markers,
						now,
					)
					if err := s.deps.Influx.WritePoint(context.Background(), "overlay_performance", point); err != nil {
						logger.Error("Error writing overlay stats to InfluxDB", "error", err)
					}

					if s.deps.Devices != nil {
						for _, d := range s.deps.Devices() {
							pose := influx.DevicePosePoint(
								report.Session,
								d.Index,
								d.Class.String(),
								d.Pose.Position.X, d.Pose.Position.Y, d.Pose.Position.Z,
								now,
							)
							if err := s.deps.Influx.WritePoint(context.Background(), "device_telemetry", pose); err != nil {
								logger.Error("Error writing device telemetry to InfluxDB", "error", err)
							}
						}
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the monitor. Safe to call more than once; the stopped flag
// keeps a second call from closing stopChan again even if the goroutine has
// not yet reset isRunning.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning && !s.stopped {
		s.stopped = true
		close(s.stopChan)
	}
}
