package session

import (
	"testing"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

func TestNewContext(t *testing.T) {
	c := NewContext("lab", "sim", "1.0.0")

	s := c.Get()
	if s.Tag != "lab" {
		t.Errorf("unexpected tag: %s", s.Tag)
	}
	if s.StartTime.IsZero() {
		t.Error("start time not set")
	}
}

func TestContext_Elapsed(t *testing.T) {
	c := NewContext("lab", "sim", "1.0.0")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Set(&core.Session{Tag: "lab", StartTime: start})

	got := c.Elapsed(start.Add(2500 * time.Millisecond))
	if got != 2.5 {
		t.Errorf("expected 2.5s elapsed, got %v", got)
	}
}
