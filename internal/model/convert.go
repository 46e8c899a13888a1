package model

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/vexlab/svr-debug/pkg/core"
)

// SessionToRow converts a core session to its database row.
func SessionToRow(s *core.Session) Session {
	return Session{
		Tag:              s.Tag,
		StartTime:        s.StartTime,
		HostName:         s.HostName,
		ExtensionVersion: s.ExtensionVersion,
	}
}

// DeviceToRow converts a tracked device to its database row.
func DeviceToRow(sessionID uint, d core.TrackedDevice) Device {
	props, err := json.Marshal(map[string]any{"serial": d.Serial})
	if err != nil {
		props = []byte(`{}`)
	}
	return Device{
		SessionID:   sessionID,
		DeviceIndex: d.Index,
		Class:       d.Class.String(),
		Serial:      d.Serial,
		FirstSeen:   d.FirstSeen,
		Properties:  datatypes.JSON(props),
	}
}

// SampleToRow converts a pose sample to its database row.
func SampleToRow(sessionID uint, s core.PoseSample) PoseSample {
	return PoseSample{
		SessionID:   sessionID,
		Timestamp:   s.Timestamp,
		DeviceIndex: s.DeviceIndex,
		Class:       s.Class.String(),
		PosX:        s.Position.X,
		PosY:        s.Position.Y,
		PosZ:        s.Position.Z,
		RotX:        s.Orientation.X,
		RotY:        s.Orientation.Y,
		RotZ:        s.Orientation.Z,
		RotW:        s.Orientation.W,
	}
}

// RowToSample converts a database row back to a core pose sample, used by
// the session dump CLI to re-export stored recordings.
func RowToSample(r PoseSample) core.PoseSample {
	return core.PoseSample{
		Timestamp:   r.Timestamp,
		DeviceIndex: r.DeviceIndex,
		Class:       core.ParseDeviceClass(r.Class),
		Position:    core.Position3D{X: r.PosX, Y: r.PosY, Z: r.PosZ},
		Orientation: core.Quaternion{X: r.RotX, Y: r.RotY, Z: r.RotZ, W: r.RotW},
	}
}
