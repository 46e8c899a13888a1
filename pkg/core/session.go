// pkg/core/session.go
package core

import "time"

// Session describes one debug session: started when the overlay comes up,
// ended when the host application exits.
type Session struct {
	ID               uint
	Tag              string
	StartTime        time.Time
	HostName         string
	ExtensionVersion string
}

// Elapsed returns the session-relative time of t in seconds.
// Sample timestamps are derived from this clock.
func (s *Session) Elapsed(t time.Time) float64 {
	return t.Sub(s.StartTime).Seconds()
}
