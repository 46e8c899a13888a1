// pkg/core/types.go
package core

import "math"

// DeviceClass identifies the kind of tracked hardware.
type DeviceClass uint8

const (
	ClassInvalid DeviceClass = iota
	ClassHMD
	ClassController
	ClassTracker
	ClassBaseStation
)

// String returns the class name as used in CSV output and labels.
func (c DeviceClass) String() string {
	switch c {
	case ClassHMD:
		return "hmd"
	case ClassController:
		return "controller"
	case ClassTracker:
		return "tracker"
	case ClassBaseStation:
		return "base_station"
	default:
		return "invalid"
	}
}

// ParseDeviceClass converts a class name back to a DeviceClass.
// Unknown names map to ClassInvalid.
func ParseDeviceClass(s string) DeviceClass {
	switch s {
	case "hmd":
		return ClassHMD
	case "controller":
		return ClassController
	case "tracker":
		return ClassTracker
	case "base_station":
		return ClassBaseStation
	default:
		return ClassInvalid
	}
}

// Position3D represents a 3D coordinate in the tracking space (meters).
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion represents an orientation as x,y,z,w.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion is the no-rotation orientation.
var IdentityQuaternion = Quaternion{W: 1}

// Pose combines position and orientation of a tracked device.
type Pose struct {
	Position    Position3D `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Euler returns yaw, pitch and roll in degrees for display labels.
func (q Quaternion) Euler() (yaw, pitch, roll float64) {
	// yaw (around Y)
	siny := 2 * (q.W*q.Y + q.X*q.Z)
	cosy := 1 - 2*(q.Y*q.Y+q.X*q.X)
	yaw = math.Atan2(siny, cosy) * 180 / math.Pi

	// pitch (around X), clamped at the poles
	sinp := 2 * (q.W*q.X - q.Y*q.Z)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	pitch = math.Asin(sinp) * 180 / math.Pi

	// roll (around Z)
	sinr := 2 * (q.W*q.Z + q.X*q.Y)
	cosr := 1 - 2*(q.X*q.X+q.Z*q.Z)
	roll = math.Atan2(sinr, cosr) * 180 / math.Pi

	return yaw, pitch, roll
}
