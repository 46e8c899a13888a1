package trajectory

import (
	"math"
	"strings"
	"testing"

	"github.com/vexlab/svr-debug/pkg/core"
)

func s(idx uint32, class core.DeviceClass, x, y, z float64) core.PoseSample {
	return core.PoseSample{
		DeviceIndex: idx,
		Class:       class,
		Position:    core.Position3D{X: x, Y: y, Z: z},
	}
}

func TestSummarize_GroupsByDevice(t *testing.T) {
	samples := []core.PoseSample{
		s(2, core.ClassController, 0, 1, 0),
		s(1, core.ClassController, 0, 1, 0),
		s(2, core.ClassController, 1, 1, 0),
	}

	sums := Summarize(samples)

	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}
	// ordered by device index
	if sums[0].DeviceIndex != 1 || sums[1].DeviceIndex != 2 {
		t.Errorf("summaries out of order: %v", sums)
	}
	if sums[1].Samples != 2 {
		t.Errorf("expected 2 samples for device 2, got %d", sums[1].Samples)
	}
}

func TestSummarize_PathLength(t *testing.T) {
	// square path on the ground plane: 3 legs of 1m each
	samples := []core.PoseSample{
		s(1, core.ClassTracker, 0, 1, 0),
		s(1, core.ClassTracker, 1, 1, 0),
		s(1, core.ClassTracker, 1, 1, 1),
		s(1, core.ClassTracker, 0, 1, 1),
	}

	sums := Summarize(samples)
	if len(sums) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(sums))
	}
	if math.Abs(sums[0].PathLength-3.0) > 1e-9 {
		t.Errorf("expected path length 3.0, got %v", sums[0].PathLength)
	}
}

func TestSummarize_HeightBounds(t *testing.T) {
	samples := []core.PoseSample{
		s(1, core.ClassController, 0, 0.8, 0),
		s(1, core.ClassController, 0, 1.6, 0),
		s(1, core.ClassController, 0, 1.1, 0),
	}

	sums := Summarize(samples)
	if sums[0].MinY != 0.8 || sums[0].MaxY != 1.6 {
		t.Errorf("unexpected height bounds: [%v..%v]", sums[0].MinY, sums[0].MaxY)
	}
}

func TestSummarize_SingleSampleHasZeroPath(t *testing.T) {
	sums := Summarize([]core.PoseSample{s(4, core.ClassBaseStation, 2, 2.5, -1)})

	if sums[0].PathLength != 0 {
		t.Errorf("single sample should have zero path length, got %v", sums[0].PathLength)
	}
	if !strings.Contains(sums[0].String(), "base_station 4") {
		t.Errorf("unexpected string form: %s", sums[0].String())
	}
}
