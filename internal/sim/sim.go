// Package sim implements an in-process stand-in for the VR host. Devices
// follow parametric paths, connect and disconnect under test control, and
// key or button presses arrive on a channel the way a real input hook would
// deliver them.
package sim

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vexlab/svr-debug/internal/cache"
	"github.com/vexlab/svr-debug/internal/channel"
	"github.com/vexlab/svr-debug/pkg/core"
	"github.com/vexlab/svr-debug/pkg/host"
)

// inputBufferSize bounds the pending input queue; presses beyond it are
// dropped, matching a host that coalesces input during stalls.
const inputBufferSize = 64

type simDevice struct {
	dev  core.TrackedDevice
	path PathFunc
}

type markerState struct {
	device core.TrackedDevice
	pose   core.Pose
}

// Host is the simulated VR runtime. It implements host.DeviceProvider,
// host.Renderer and host.Capturer.
type Host struct {
	mu        sync.Mutex
	start     time.Time
	devices   map[uint32]*simDevice
	markers   map[host.MarkerID]markerState
	markerIDs *cache.SafeCounter
	visible   bool
	messages  []string
	inputs    *channel.Buffered[host.InputEvent]
	log       *slog.Logger
}

// NewHost creates an empty simulated host. Connect devices before the first
// Advance call.
func NewHost(log *slog.Logger, start time.Time) *Host {
	return &Host{
		start:     start,
		devices:   make(map[uint32]*simDevice),
		markers:   make(map[host.MarkerID]markerState),
		markerIDs: &cache.SafeCounter{},
		visible:   true,
		inputs:    channel.NewBuffered[host.InputEvent](inputBufferSize),
		log:       log,
	}
}

// Connect attaches a device to the runtime. Reconnecting an existing index
// replaces its path.
func (h *Host) Connect(dev core.TrackedDevice, path PathFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if path == nil {
		path = Static(core.Pose{Orientation: core.IdentityQuaternion})
	}
	h.devices[dev.Index] = &simDevice{dev: dev, path: path}
	h.log.Debug("sim device connected", "index", dev.Index, "class", dev.Class.String())
}

// Disconnect removes a device from the runtime.
func (h *Host) Disconnect(index uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.devices, index)
	h.log.Debug("sim device disconnected", "index", index)
}

// Advance moves every connected device along its path to time t.
func (h *Host) Advance(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	elapsed := t.Sub(h.start).Seconds()
	for _, sd := range h.devices {
		sd.dev.Pose = sd.path(elapsed)
	}
}

// Devices implements host.DeviceProvider.
func (h *Host) Devices() ([]core.TrackedDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]core.TrackedDevice, 0, len(h.devices))
	for _, sd := range h.devices {
		out = append(out, sd.dev)
	}
	return out, nil
}

// Pose implements host.DeviceProvider.
func (h *Host) Pose(index uint32) (core.Pose, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sd, ok := h.devices[index]
	if !ok {
		return core.Pose{}, host.ErrNotConnected
	}
	return sd.dev.Pose, nil
}

// AddMarker implements host.Renderer.
func (h *Host) AddMarker(dev core.TrackedDevice) (host.MarkerID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := host.MarkerID(h.markerIDs.Next())
	h.markers[id] = markerState{device: dev, pose: dev.Pose}
	return id, nil
}

// RemoveMarker implements host.Renderer.
func (h *Host) RemoveMarker(id host.MarkerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, id)
}

// SetMarkerPose implements host.Renderer.
func (h *Host) SetMarkerPose(id host.MarkerID, pose core.Pose) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ms, ok := h.markers[id]
	if !ok {
		return
	}
	ms.pose = pose
	h.markers[id] = ms
}

// SetVisible implements host.Renderer.
func (h *Host) SetVisible(visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = visible
}

// ShowMessage implements host.Renderer.
func (h *Host) ShowMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	h.log.Info("sim message", "msg", msg)
}

// Screenshot implements host.Capturer by writing a small placeholder PNG.
func (h *Host) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 32, G: 32, B: 48, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SaveScene implements host.Capturer by dumping the current device set and
// marker poses as JSON.
func (h *Host) SaveScene(path string) error {
	h.mu.Lock()
	type sceneNode struct {
		Index uint32    `json:"index"`
		Class string    `json:"class"`
		Pose  core.Pose `json:"pose"`
		Yaw   float64   `json:"yaw"`
		Pitch float64   `json:"pitch"`
		Roll  float64   `json:"roll"`
	}
	scene := struct {
		Visible bool        `json:"visible"`
		Nodes   []sceneNode `json:"nodes"`
	}{Visible: h.visible}
	for _, ms := range h.markers {
		yaw, pitch, roll := ms.pose.Orientation.Euler()
		scene.Nodes = append(scene.Nodes, sceneNode{
			Index: ms.device.Index,
			Class: ms.device.Class.String(),
			Pose:  ms.pose,
			Yaw:   yaw,
			Pitch: pitch,
			Roll:  roll,
		})
	}
	h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create scene dir: %w", err)
	}
	body, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0644)
}

// PressKey delivers a keyboard event. Returns false if the input buffer was
// full and the press was dropped.
func (h *Host) PressKey(key string, t time.Time) bool {
	return h.inputs.TrySend(host.InputEvent{Kind: host.KindKey, Key: key, Timestamp: t})
}

// PressButton delivers a controller button event.
func (h *Host) PressButton(device uint32, button int, t time.Time) bool {
	return h.inputs.TrySend(host.InputEvent{Kind: host.KindButton, Button: button, Device: device, Timestamp: t})
}

// Inputs returns the pending input event stream.
func (h *Host) Inputs() channel.Receiver[host.InputEvent] {
	return h.inputs
}

// MarkerCount reports the current number of markers, for assertions.
func (h *Host) MarkerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.markers)
}

// MarkerPose looks up a marker's last set pose, for assertions.
func (h *Host) MarkerPose(id host.MarkerID) (core.Pose, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ms, ok := h.markers[id]
	return ms.pose, ok
}

// Visible reports the renderer visibility flag.
func (h *Host) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// Messages returns the on-screen messages shown so far.
func (h *Host) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages))
	copy(out, h.messages)
	return out
}
