// Package host defines the boundary to the VR host environment. Device
// enumeration, rendering, screenshots and scene export are owned by the host
// application; the overlay only talks to these interfaces.
package host

import (
	"errors"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

// ErrNotConnected is returned by Pose for an index the runtime no longer
// reports. The overlay treats it as a transient condition.
var ErrNotConnected = errors.New("device not connected")

// ErrNoPose is returned when a device is connected but has no valid pose yet
// (e.g. a controller that lost tracking).
var ErrNoPose = errors.New("no valid pose")

// DeviceProvider enumerates tracked devices and reports their poses.
type DeviceProvider interface {
	// Devices returns the currently connected devices. The returned slice is
	// owned by the caller. An error means the enumeration itself failed and
	// is treated as "zero devices this tick".
	Devices() ([]core.TrackedDevice, error)

	// Pose returns the current pose of the device at index.
	Pose(index uint32) (core.Pose, error)
}

// MarkerID identifies a visual marker created by the Renderer.
type MarkerID uint64

// Renderer owns the visual side of the overlay: axes models, labels and
// on-screen messages. All calls are expected to be cheap and non-blocking.
type Renderer interface {
	// AddMarker creates an axes+label visual for the device.
	AddMarker(dev core.TrackedDevice) (MarkerID, error)

	// RemoveMarker destroys a marker. Unknown IDs are ignored.
	RemoveMarker(id MarkerID)

	// SetMarkerPose moves a marker to the given pose.
	SetMarkerPose(id MarkerID, pose core.Pose)

	// SetVisible shows or hides every overlay visual at once.
	SetVisible(visible bool)

	// ShowMessage displays a short head-locked confirmation message.
	ShowMessage(msg string)
}

// Capturer exposes the host's one-shot export calls.
type Capturer interface {
	// Screenshot saves a screenshot of the current window to path.
	Screenshot(path string) error

	// SaveScene exports the current scene graph to path. The file format is
	// owned by the host.
	SaveScene(path string) error
}

// InputKind separates keyboard keys from controller buttons.
type InputKind uint8

const (
	KindKey InputKind = iota
	KindButton
)

// InputEvent is a discrete key or button press delivered by the host.
// Device is only meaningful for button events.
type InputEvent struct {
	Kind      InputKind
	Key       string // key name for KindKey, e.g. "F12"
	Button    int    // button ID for KindButton
	Device    uint32 // source controller index for KindButton
	Timestamp time.Time
}
