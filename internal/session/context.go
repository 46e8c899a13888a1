package session

import (
	"sync"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

// Context holds the current debug session. It is created once at startup and
// shared between the overlay, the mirror sinks and the monitor.
type Context struct {
	mu      sync.RWMutex
	session *core.Session
}

// NewContext creates a Context with a started session.
func NewContext(tag, hostName, version string) *Context {
	return &Context{
		session: &core.Session{
			Tag:              tag,
			StartTime:        time.Now(),
			HostName:         hostName,
			ExtensionVersion: version,
		},
	}
}

// Get returns the current session.
func (c *Context) Get() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Set replaces the current session.
func (c *Context) Set(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Elapsed returns the session-relative time of t in seconds.
func (c *Context) Elapsed(t time.Time) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Elapsed(t)
}
