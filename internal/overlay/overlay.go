// Package overlay owns the device tracking overlay: the per-tick device
// diff, the marker mapping, the recording buffer and the handlers for every
// user-triggered event. All overlay state lives on one struct constructed at
// startup; every mutation happens on the host frame thread.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/vexlab/svr-debug/internal/cache"
	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/internal/dispatcher"
	"github.com/vexlab/svr-debug/internal/export"
	"github.com/vexlab/svr-debug/internal/queue"
	"github.com/vexlab/svr-debug/internal/session"
	"github.com/vexlab/svr-debug/internal/storage"
	"github.com/vexlab/svr-debug/internal/trajectory"
	"github.com/vexlab/svr-debug/pkg/core"
	"github.com/vexlab/svr-debug/pkg/host"
)

// Commands understood by the overlay dispatcher.
const (
	CommandToggleOverlay  = ":TOGGLE:OVERLAY:"
	CommandRecordSample   = ":RECORD:SAMPLE:"
	CommandExportCSV      = ":EXPORT:CSV:"
	CommandScreenshot     = ":SCREENSHOT:"
	CommandExportScene    = ":EXPORT:SCENE:"
	CommandClearRecording = ":CLEAR:RECORDING:"
)

// ErrNothingRecorded is returned by clear when the buffer is already empty.
var ErrNothingRecorded = errors.New("recording buffer is empty")

// Dependencies holds all collaborators the overlay needs.
type Dependencies struct {
	Provider       host.DeviceProvider
	Renderer       host.Renderer
	Capturer       host.Capturer
	SessionContext *session.Context
	Log            *slog.Logger
	Sinks          []storage.Sink
	Output         config.OutputConfig
	Clock          func() time.Time  // defaults to time.Now
	Uploader       func(path string) // called after each successful export; nil disables
}

// Stats is a cross-goroutine snapshot of overlay state for the monitor.
type Stats struct {
	TickCount   uint64
	Devices     int
	Markers     int
	BufferDepth int
	Visible     bool
	Recording   bool
}

// Overlay is the overlay context object. Tick and the Handle* methods must
// only be called from the frame thread; Stats may be called from anywhere.
type Overlay struct {
	deps Dependencies

	devices *cache.DeviceCache
	buffer  *queue.Queue[core.PoseSample]

	// guarded by mu so the monitor can read a consistent snapshot while the
	// frame thread mutates
	mu        sync.Mutex
	markers   map[uint32]host.MarkerID
	visible   bool
	tickCount uint64

	shotCounter *cache.SafeCounter
}

// New constructs the overlay. The overlay starts visible with an empty
// recording buffer.
func New(deps Dependencies) *Overlay {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Overlay{
		deps:        deps,
		devices:     cache.NewDeviceCache(),
		buffer:      queue.New[core.PoseSample](),
		markers:     make(map[uint32]host.MarkerID),
		visible:     true,
		shotCounter: &cache.SafeCounter{},
	}
}

// Tick runs one frame of the overlay: diff the connected device set against
// the previous tick, reconcile markers, then push fresh poses to every
// marker. Runs in O(connected devices) and never blocks.
func (o *Overlay) Tick() {
	now := o.deps.Clock()

	devs, err := o.deps.Provider.Devices()
	if err != nil {
		// transient enumeration failure reads as zero devices
		o.deps.Log.Debug("device enumeration failed", "error", err)
		devs = nil
	}

	current := make(map[uint32]core.TrackedDevice, len(devs))
	for _, d := range devs {
		current[d.Index] = d
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.tickCount++

	// newly connected devices get a marker and a cache entry
	for index, d := range current {
		if _, known := o.markers[index]; known {
			continue
		}
		d.FirstSeen = now
		id, err := o.deps.Renderer.AddMarker(d)
		if err != nil {
			o.deps.Log.Error("failed to create marker", "index", index, "error", err)
			continue
		}
		o.markers[index] = id
		o.devices.Put(d)
		o.notifySinks(func(s storage.Sink) error { return s.AddDevice(d) }, "add device")
		o.deps.Log.Info("device connected",
			"index", index, "class", d.Class.String(), "serial", d.Serial)
	}

	// devices that vanished lose their marker
	for index, id := range o.markers {
		if _, still := current[index]; still {
			continue
		}
		o.deps.Renderer.RemoveMarker(id)
		delete(o.markers, index)
		o.devices.Delete(index)
		o.notifySinks(func(s storage.Sink) error { return s.RemoveDevice(index) }, "remove device")
		o.deps.Log.Info("device disconnected", "index", index)
	}

	// pose refresh for everything still connected
	for index, id := range o.markers {
		pose, err := o.deps.Provider.Pose(index)
		if err != nil {
			// connected but not tracking; marker keeps its last pose
			continue
		}
		o.deps.Renderer.SetMarkerPose(id, pose)
		o.devices.SetPose(index, pose)
	}
}

// HandleToggleOverlay flips overlay visibility. Tracking and recording are
// unaffected.
func (o *Overlay) HandleToggleOverlay(_ dispatcher.Event) (any, error) {
	o.mu.Lock()
	o.visible = !o.visible
	visible := o.visible
	o.mu.Unlock()

	o.deps.Renderer.SetVisible(visible)
	return visible, nil
}

// HandleRecordSample appends one pose sample per tracked controller to the
// recording buffer. A trigger with no controllers tracked is a no-op.
func (o *Overlay) HandleRecordSample(e dispatcher.Event) (any, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = o.deps.Clock()
	}
	elapsed := o.deps.SessionContext.Elapsed(ts)

	controllers := o.devices.Controllers()
	if len(controllers) == 0 {
		return 0, nil
	}

	for _, d := range controllers {
		sample := core.PoseSample{
			Timestamp:   elapsed,
			DeviceIndex: d.Index,
			Class:       d.Class,
			Position:    d.Pose.Position,
			Orientation: d.Pose.Orientation,
		}
		o.buffer.Push(sample)
		o.notifySinks(func(s storage.Sink) error { return s.RecordSample(sample) }, "record sample")
	}

	o.deps.Renderer.ShowMessage(fmt.Sprintf("Recorded %d samples (%d buffered)",
		len(controllers), o.buffer.Len()))
	return len(controllers), nil
}

// HandleExportCSV flushes the recording buffer to a new CSV file. The buffer
// is cleared only after the file is fully written, so a failed export leaves
// every sample in place for retry and a retried export never duplicates
// rows. An empty buffer still produces a header-only file. After a
// successful write the per-device trajectory summary is logged and the file
// is handed to the uploader when one is configured.
func (o *Overlay) HandleExportCSV(_ dispatcher.Event) (any, error) {
	now := o.deps.Clock()
	tag := o.deps.SessionContext.Get().Tag
	path := export.UniquePath(filepath.Join(o.deps.Output.CSVDir, export.CSVFileName(tag, now)))

	samples := o.buffer.Snapshot()
	n, err := export.WriteCSV(path, samples)
	if err != nil {
		o.deps.Renderer.ShowMessage("CSV export failed: " + err.Error())
		return nil, fmt.Errorf("csv export failed: %w", err)
	}
	o.buffer.Clear()

	o.deps.Log.Info("recording exported", "path", path, "rows", n)
	for _, sum := range trajectory.Summarize(samples) {
		o.deps.Log.Info("trajectory", "summary", sum.String())
	}
	o.deps.Renderer.ShowMessage(fmt.Sprintf("Exported %d samples to %s", n, filepath.Base(path)))

	if o.deps.Uploader != nil {
		o.deps.Uploader(path)
	}
	return path, nil
}

// HandleScreenshot saves a numbered screenshot via the host capturer.
func (o *Overlay) HandleScreenshot(_ dispatcher.Event) (any, error) {
	path := filepath.Join(o.deps.Output.ScreenshotDir, export.ScreenshotFileName(o.shotCounter.Next()))
	if err := o.deps.Capturer.Screenshot(path); err != nil {
		o.deps.Renderer.ShowMessage("Screenshot failed: " + err.Error())
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	o.deps.Renderer.ShowMessage("Saved " + filepath.Base(path))
	return path, nil
}

// HandleExportScene asks the host to save the current scene graph.
func (o *Overlay) HandleExportScene(_ dispatcher.Event) (any, error) {
	path := filepath.Join(o.deps.Output.SceneDir, export.SceneFileName(o.deps.Clock()))
	if err := o.deps.Capturer.SaveScene(path); err != nil {
		o.deps.Renderer.ShowMessage("Scene export failed: " + err.Error())
		return nil, fmt.Errorf("scene export failed: %w", err)
	}
	o.deps.Renderer.ShowMessage("Saved " + filepath.Base(path))
	return path, nil
}

// HandleClearRecording drops all buffered samples without exporting them.
func (o *Overlay) HandleClearRecording(_ dispatcher.Event) (any, error) {
	n := o.buffer.Len()
	if n == 0 {
		return 0, ErrNothingRecorded
	}
	o.buffer.Clear()
	o.deps.Renderer.ShowMessage(fmt.Sprintf("Discarded %d samples", n))
	return n, nil
}

// Stats returns a snapshot for the monitor goroutine.
func (o *Overlay) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	depth := o.buffer.Len()
	return Stats{
		TickCount:   o.tickCount,
		Devices:     o.devices.Len(),
		Markers:     len(o.markers),
		BufferDepth: depth,
		Visible:     o.visible,
		Recording:   depth > 0,
	}
}

// Visible reports the current visibility flag.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// BufferLen reports the number of samples pending export.
func (o *Overlay) BufferLen() int {
	return o.buffer.Len()
}

// Devices returns the tracked device cache.
func (o *Overlay) Devices() *cache.DeviceCache {
	return o.devices
}

func (o *Overlay) notifySinks(fn func(storage.Sink) error, op string) {
	for _, s := range o.deps.Sinks {
		if err := fn(s); err != nil {
			o.deps.Log.Error("sink error", "op", op, "error", err)
		}
	}
}
