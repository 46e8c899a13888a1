package streaming

import (
	"encoding/json"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

// Message type constants matching the live streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeAddDevice    = "add_device"
	TypeRemoveDevice = "remove_device"
	TypePoseSample   = "pose_sample"
)

// Envelope wraps every streamed message with its type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StartSessionPayload announces a new debug session.
type StartSessionPayload struct {
	Tag              string    `json:"tag"`
	StartTime        time.Time `json:"startTime"`
	HostName         string    `json:"hostName"`
	ExtensionVersion string    `json:"extensionVersion"`
}

// EndSessionPayload closes the current session.
type EndSessionPayload struct {
	EndTime time.Time `json:"endTime"`
}

// AddDevicePayload announces a newly connected device.
type AddDevicePayload struct {
	Index  uint32 `json:"index"`
	Class  string `json:"class"`
	Serial string `json:"serial,omitempty"`
}

// RemoveDevicePayload announces a disconnect.
type RemoveDevicePayload struct {
	Index uint32 `json:"index"`
}

// PoseSamplePayload carries one recorded sample.
type PoseSamplePayload struct {
	Timestamp   float64         `json:"timestamp"`
	DeviceIndex uint32          `json:"deviceIndex"`
	Class       string          `json:"class"`
	Position    core.Position3D `json:"position"`
	Orientation core.Quaternion `json:"orientation"`
}
