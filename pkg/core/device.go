// pkg/core/device.go
package core

import (
	"fmt"
	"time"
)

// TrackedDevice represents a SteamVR-reported hardware object with a pose.
// Index is the host runtime's device index and may be reused across sessions.
type TrackedDevice struct {
	Index     uint32
	Class     DeviceClass
	Serial    string
	FirstSeen time.Time
	Pose      Pose
}

// Label builds the short on-marker label for a device ("controller 3").
func (d TrackedDevice) Label() string {
	return fmt.Sprintf("%s %d", d.Class, d.Index)
}
