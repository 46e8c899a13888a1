package model

import (
	"testing"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
)

func TestDeviceToRow(t *testing.T) {
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := core.TrackedDevice{
		Index:     5,
		Class:     core.ClassTracker,
		Serial:    "LHR-1234",
		FirstSeen: seen,
	}

	row := DeviceToRow(42, d)

	if row.SessionID != 42 {
		t.Errorf("unexpected session: %d", row.SessionID)
	}
	if row.Class != "tracker" {
		t.Errorf("unexpected class: %s", row.Class)
	}
	if row.Serial != "LHR-1234" || !row.FirstSeen.Equal(seen) {
		t.Errorf("unexpected row: %+v", row)
	}
	if len(row.Properties) == 0 {
		t.Error("properties JSON not set")
	}
}

func TestSampleRoundTrip(t *testing.T) {
	in := core.PoseSample{
		Timestamp:   3.25,
		DeviceIndex: 2,
		Class:       core.ClassController,
		Position:    core.Position3D{X: 0.5, Y: 1.1, Z: -2.0},
		Orientation: core.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9},
	}

	out := RowToSample(SampleToRow(7, in))

	if out != in {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}
