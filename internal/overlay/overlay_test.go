package overlay

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/internal/dispatcher"
	"github.com/vexlab/svr-debug/internal/export"
	"github.com/vexlab/svr-debug/internal/session"
	"github.com/vexlab/svr-debug/internal/sim"
	"github.com/vexlab/svr-debug/pkg/core"
)

var sessionStart = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

type fixture struct {
	host    *sim.Host
	overlay *Overlay
	now     time.Time
	outDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		host:   sim.NewHost(slog.Default(), sessionStart),
		now:    sessionStart,
		outDir: t.TempDir(),
	}

	sess := session.NewContext("bench", "testhost", "1.0.0")
	sess.Get().StartTime = sessionStart

	f.overlay = New(Dependencies{
		Provider:       f.host,
		Renderer:       f.host,
		Capturer:       f.host,
		SessionContext: sess,
		Log:            slog.Default(),
		Output: config.OutputConfig{
			CSVDir:        filepath.Join(f.outDir, "csv"),
			ScreenshotDir: filepath.Join(f.outDir, "shots"),
			SceneDir:      filepath.Join(f.outDir, "scenes"),
		},
		Clock: func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.host.Advance(f.now)
}

func baseStation(index uint32) core.TrackedDevice {
	return core.TrackedDevice{Index: index, Class: core.ClassBaseStation, Serial: "LHB-000"}
}

func controller(index uint32) core.TrackedDevice {
	return core.TrackedDevice{Index: index, Class: core.ClassController, Serial: "LHR-FF"}
}

func TestTickCreatesAndDestroysMarkers(t *testing.T) {
	f := newFixture(t)

	f.host.Connect(baseStation(1), nil)
	f.host.Connect(controller(2), sim.FigureEight(0.4, 1.2, 3))
	f.host.Connect(controller(3), sim.FigureEight(0.4, 1.2, 3))
	f.overlay.Tick()

	if got := f.host.MarkerCount(); got != 3 {
		t.Fatalf("marker count = %d, want 3", got)
	}
	if got := f.overlay.Devices().Len(); got != 3 {
		t.Fatalf("device cache len = %d, want 3", got)
	}

	// ticking again without changes keeps the mapping stable
	f.overlay.Tick()
	if got := f.host.MarkerCount(); got != 3 {
		t.Errorf("marker count after steady tick = %d, want 3", got)
	}

	f.host.Disconnect(2)
	f.overlay.Tick()
	if got := f.host.MarkerCount(); got != 2 {
		t.Errorf("marker count after disconnect = %d, want 2", got)
	}
	if _, ok := f.overlay.Devices().Get(2); ok {
		t.Error("disconnected device still cached")
	}

	// reconnect reuses the index and gets exactly one marker back
	f.host.Connect(controller(2), nil)
	f.overlay.Tick()
	if got := f.host.MarkerCount(); got != 3 {
		t.Errorf("marker count after reconnect = %d, want 3", got)
	}
}

func TestTickUpdatesPoses(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), sim.Circle(1.0, 1.2, 8))

	f.host.Advance(f.now)
	f.overlay.Tick()

	f.advance(2 * time.Second)
	f.overlay.Tick()

	devs := f.overlay.Devices().Controllers()
	if len(devs) != 1 {
		t.Fatalf("controllers = %d, want 1", len(devs))
	}
	// quarter lap: X ~ 0, Z ~ 1
	if devs[0].Pose.Position.Z < 0.9 {
		t.Errorf("cached pose not refreshed: %+v", devs[0].Pose.Position)
	}
}

func TestRecordSampleOnlyControllers(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(baseStation(1), nil)
	f.host.Connect(controller(2), nil)
	f.host.Connect(controller(3), nil)
	f.overlay.Tick()

	f.advance(time.Second)
	n, err := f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n != 2 {
		t.Errorf("recorded %v devices, want 2 (controllers only)", n)
	}
	if f.overlay.BufferLen() != 2 {
		t.Errorf("buffer len = %d, want 2", f.overlay.BufferLen())
	}
}

func TestRecordSampleNoControllers(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(baseStation(1), nil)
	f.overlay.Tick()

	n, err := f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n != 0 || f.overlay.BufferLen() != 0 {
		t.Errorf("expected no-op with no controllers, got n=%v len=%d", n, f.overlay.BufferLen())
	}
}

// Three devices, three triggers one second apart, then export: six data rows
// plus header and an empty buffer.
func TestRecordExportScenario(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(baseStation(1), nil)
	f.host.Connect(controller(2), sim.FigureEight(0.4, 1.2, 3))
	f.host.Connect(controller(3), sim.FigureEight(0.4, 1.2, 3))
	f.overlay.Tick()

	for i := 0; i < 3; i++ {
		f.advance(time.Second)
		f.overlay.Tick()
		if _, err := f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if f.overlay.BufferLen() != 6 {
		t.Fatalf("buffer len = %d, want 6", f.overlay.BufferLen())
	}

	result, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := result.(string)

	rows := readCSV(t, path)
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7 (header + 6)", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][1] != "device_index" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if f.overlay.BufferLen() != 0 {
		t.Errorf("buffer not cleared after export, len = %d", f.overlay.BufferLen())
	}
}

// Recording, exporting, recording again: combined rows across both files
// equal total samples, nothing duplicated or dropped.
func TestIdempotentFlush(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.overlay.Tick()

	f.advance(time.Second)
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	f.advance(time.Second)
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	r1, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("first export: %v", err)
	}

	f.advance(time.Second)
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	// different export timestamp gives a different file name
	f.advance(time.Second)
	r2, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	rows1 := readCSV(t, r1.(string))
	rows2 := readCSV(t, r2.(string))
	if data := len(rows1) - 1 + len(rows2) - 1; data != 3 {
		t.Errorf("combined data rows = %d, want 3", data)
	}
	seen := map[string]bool{}
	for _, rows := range [][][]string{rows1[1:], rows2[1:]} {
		for _, row := range rows {
			key := row[0] + "/" + row[1]
			if seen[key] {
				t.Errorf("duplicated row %v", row)
			}
			seen[key] = true
		}
	}
}

// Two exports inside the same wall-clock second share a timestamp but must
// not share a file: the second write would rename over the first and its
// already-cleared rows would be lost.
func TestExportTwiceSameSecond(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.overlay.Tick()

	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	r1, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("first export: %v", err)
	}

	// clock never advances between the exports
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	r2, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	if r1.(string) == r2.(string) {
		t.Fatalf("both exports wrote %s", r1)
	}
	if rows := readCSV(t, r1.(string)); len(rows) != 2 {
		t.Errorf("first export rows = %d, want header + 1", len(rows))
	}
	if rows := readCSV(t, r2.(string)); len(rows) != 2 {
		t.Errorf("second export rows = %d, want header + 1", len(rows))
	}
}

// A successful export logs the per-device trajectory summary and hands the
// file to the configured uploader.
func TestExportLogsTrajectoryAndUploads(t *testing.T) {
	f := newFixture(t)

	var logBuf bytes.Buffer
	f.overlay.deps.Log = slog.New(slog.NewTextHandler(&logBuf, nil))

	var uploaded []string
	f.overlay.deps.Uploader = func(path string) { uploaded = append(uploaded, path) }

	f.host.Connect(controller(2), sim.FigureEight(0.4, 1.2, 3))
	f.overlay.Tick()
	f.advance(time.Second)
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	result, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if len(uploaded) != 1 || uploaded[0] != result.(string) {
		t.Errorf("uploader got %v, want [%v]", uploaded, result)
	}
	out := logBuf.String()
	if !strings.Contains(out, "trajectory") || !strings.Contains(out, "controller 2") {
		t.Errorf("trajectory summary not logged: %q", out)
	}
}

func TestExportEmptyBufferWritesHeaderOnly(t *testing.T) {
	f := newFixture(t)

	result, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := readCSV(t, result.(string))
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestExportFailureKeepsBuffer(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	// make the target dir path a file so MkdirAll fails
	blocker := filepath.Join(f.outDir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	f.overlay.deps.Output.CSVDir = filepath.Join(blocker, "csv")

	if _, err := f.overlay.HandleExportCSV(dispatcher.Event{}); err == nil {
		t.Fatal("expected export failure")
	}
	if f.overlay.BufferLen() != 1 {
		t.Errorf("buffer len after failed export = %d, want 1", f.overlay.BufferLen())
	}

	// retry into a writable dir succeeds with the same single row
	f.overlay.deps.Output.CSVDir = filepath.Join(f.outDir, "csv")
	result, err := f.overlay.HandleExportCSV(dispatcher.Event{})
	if err != nil {
		t.Fatalf("retry export: %v", err)
	}
	if rows := readCSV(t, result.(string)); len(rows) != 2 {
		t.Errorf("retry rows = %d, want 2", len(rows))
	}
	if f.overlay.BufferLen() != 0 {
		t.Error("buffer not cleared after successful retry")
	}
}

func TestDisconnectMidRecording(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.host.Connect(controller(2), nil)
	f.overlay.Tick()

	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	f.host.Disconnect(2)
	f.overlay.Tick()
	if _, err := f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now}); err != nil {
		t.Fatalf("record after disconnect: %v", err)
	}

	// 2 samples then 1 sample
	if f.overlay.BufferLen() != 3 {
		t.Errorf("buffer len = %d, want 3", f.overlay.BufferLen())
	}
}

func TestToggleVisibility(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.overlay.Tick()

	if !f.overlay.Visible() {
		t.Fatal("overlay should start visible")
	}

	for i := 0; i < 4; i++ {
		f.overlay.HandleToggleOverlay(dispatcher.Event{})
	}
	if !f.overlay.Visible() || !f.host.Visible() {
		t.Error("even number of toggles should restore visibility")
	}

	// hidden overlay keeps tracking and recording
	f.overlay.HandleToggleOverlay(dispatcher.Event{})
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})
	if f.overlay.BufferLen() != 1 {
		t.Error("recording should continue while hidden")
	}
	if f.host.MarkerCount() != 1 {
		t.Error("tracking should continue while hidden")
	}
}

func TestClearRecording(t *testing.T) {
	f := newFixture(t)

	if _, err := f.overlay.HandleClearRecording(dispatcher.Event{}); err != ErrNothingRecorded {
		t.Errorf("clear on empty buffer: err = %v, want ErrNothingRecorded", err)
	}

	f.host.Connect(controller(1), nil)
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	n, err := f.overlay.HandleClearRecording(dispatcher.Event{})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 || f.overlay.BufferLen() != 0 {
		t.Errorf("clear returned %v, buffer len %d", n, f.overlay.BufferLen())
	}
}

func TestScreenshotAndSceneHandlers(t *testing.T) {
	f := newFixture(t)

	r1, err := f.overlay.HandleScreenshot(dispatcher.Event{})
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	r2, _ := f.overlay.HandleScreenshot(dispatcher.Event{})
	if r1.(string) == r2.(string) {
		t.Error("screenshot paths should be numbered uniquely")
	}
	if filepath.Base(r1.(string)) != export.ScreenshotFileName(1) {
		t.Errorf("unexpected screenshot name %s", r1)
	}

	r3, err := f.overlay.HandleExportScene(dispatcher.Event{})
	if err != nil {
		t.Fatalf("scene export: %v", err)
	}
	if _, err := os.Stat(r3.(string)); err != nil {
		t.Errorf("scene file missing: %v", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.host.Connect(controller(1), nil)
	f.overlay.Tick()
	f.overlay.Tick()
	f.overlay.HandleRecordSample(dispatcher.Event{Timestamp: f.now})

	stats := f.overlay.Stats()
	if stats.TickCount != 2 {
		t.Errorf("TickCount = %d, want 2", stats.TickCount)
	}
	if stats.Devices != 1 || stats.Markers != 1 {
		t.Errorf("Devices/Markers = %d/%d, want 1/1", stats.Devices, stats.Markers)
	}
	if !stats.Recording || stats.BufferDepth != 1 {
		t.Errorf("Recording=%v BufferDepth=%d", stats.Recording, stats.BufferDepth)
	}
	if !stats.Visible {
		t.Error("Visible should be true")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}
