// pkg/core/sample.go
package core

// PoseSample is a single recorded pose, immutable once created.
// Timestamp is session-relative, in seconds.
type PoseSample struct {
	Timestamp   float64
	DeviceIndex uint32
	Class       DeviceClass
	Position    Position3D
	Orientation Quaternion
}
