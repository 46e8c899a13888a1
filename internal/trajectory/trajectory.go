// Package trajectory summarizes recorded pose samples per device: number of
// samples, traveled path length and the horizontal bounding box. The summary
// is logged after each CSV export so a quick sanity check of a capture does
// not require opening the file.
package trajectory

import (
	"fmt"
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/vexlab/svr-debug/pkg/core"
)

// Summary describes the recorded path of one device.
type Summary struct {
	DeviceIndex uint32
	Class       core.DeviceClass
	Samples     int
	// PathLength is the traveled XZ ground-plane distance in meters.
	PathLength float64
	// Envelope is the axis-aligned XZ bounding box of the path, valid when
	// Samples >= 1.
	Envelope geom.Envelope
	// MinY/MaxY bound the vertical (height) axis separately since the
	// LineString works on the ground plane.
	MinY, MaxY float64
}

// String renders a one-line log form of the summary.
func (s Summary) String() string {
	lo, hi, ok := s.Envelope.MinMaxXYs()
	if !ok {
		return fmt.Sprintf("%s %d: %d samples", s.Class, s.DeviceIndex, s.Samples)
	}
	return fmt.Sprintf("%s %d: %d samples, %.2fm path, x[%.2f..%.2f] y[%.2f..%.2f] z[%.2f..%.2f]",
		s.Class, s.DeviceIndex, s.Samples, s.PathLength,
		lo.X, hi.X, s.MinY, s.MaxY, lo.Y, hi.Y)
}

// Summarize groups samples by device index and computes one Summary per
// device, ordered by device index.
func Summarize(samples []core.PoseSample) []Summary {
	byDevice := make(map[uint32][]core.PoseSample)
	for _, s := range samples {
		byDevice[s.DeviceIndex] = append(byDevice[s.DeviceIndex], s)
	}

	out := make([]Summary, 0, len(byDevice))
	for idx, devSamples := range byDevice {
		out = append(out, summarizeDevice(idx, devSamples))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeviceIndex < out[j].DeviceIndex
	})
	return out
}

func summarizeDevice(idx uint32, samples []core.PoseSample) Summary {
	sum := Summary{
		DeviceIndex: idx,
		Class:       samples[0].Class,
		Samples:     len(samples),
		MinY:        math.Inf(1),
		MaxY:        math.Inf(-1),
	}

	// Ground-plane coordinate sequence: X east, Z forward (stored as geom Y).
	flat := make([]float64, 0, len(samples)*2)
	for _, s := range samples {
		flat = append(flat, s.Position.X, s.Position.Z)
		if s.Position.Y < sum.MinY {
			sum.MinY = s.Position.Y
		}
		if s.Position.Y > sum.MaxY {
			sum.MaxY = s.Position.Y
		}
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	ls := geom.NewLineString(seq)
	sum.Envelope = ls.Envelope()
	if len(samples) >= 2 {
		sum.PathLength = ls.Length()
	}
	return sum
}
