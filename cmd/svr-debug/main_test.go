package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/vexlab/svr-debug/internal/sim"
)

func TestRunDemoScriptStops(t *testing.T) {
	h := sim.NewHost(slog.Default(), time.Now())
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		runDemoScript(h, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("demo script did not stop")
	}
}
