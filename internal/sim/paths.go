package sim

import (
	"math"

	"github.com/vexlab/svr-debug/pkg/core"
)

// PathFunc maps seconds-since-start to a pose.
type PathFunc func(elapsed float64) core.Pose

// Static holds a device at a fixed pose.
func Static(pose core.Pose) PathFunc {
	return func(float64) core.Pose { return pose }
}

// Circle walks a flat circle of the given radius at the given height,
// completing one lap per period. Orientation faces along the path.
func Circle(radius, height, period float64) PathFunc {
	return func(elapsed float64) core.Pose {
		angle := 2 * math.Pi * elapsed / period
		return core.Pose{
			Position: core.Position3D{
				X: radius * math.Cos(angle),
				Y: height,
				Z: radius * math.Sin(angle),
			},
			Orientation: yawQuaternion(-angle),
		}
	}
}

// FigureEight traces a lissajous figure-eight around the origin, the sort of
// motion a hand controller makes during a tracking sweep.
func FigureEight(width, height, period float64) PathFunc {
	return func(elapsed float64) core.Pose {
		t := 2 * math.Pi * elapsed / period
		return core.Pose{
			Position: core.Position3D{
				X: width * math.Sin(t),
				Y: height + 0.1*math.Sin(2*t),
				Z: 0.3 * math.Sin(2*t),
			},
			Orientation: core.IdentityQuaternion,
		}
	}
}

// Bob oscillates vertically around a rest height, like a seated user.
func Bob(restHeight, amplitude, period float64) PathFunc {
	return func(elapsed float64) core.Pose {
		return core.Pose{
			Position: core.Position3D{
				Y: restHeight + amplitude*math.Sin(2*math.Pi*elapsed/period),
			},
			Orientation: core.IdentityQuaternion,
		}
	}
}

func yawQuaternion(angle float64) core.Quaternion {
	half := angle / 2
	return core.Quaternion{
		Y: math.Sin(half),
		W: math.Cos(half),
	}
}
