package renderer

import (
	"math"

	"github.com/ivlev/story2video/internal/easing"
	"github.com/ivlev/story2video/internal/story"
)

// minSegment guards against division by zero for keyframes sharing a time
const minSegment = 1e-6

// Pose represents a character placement at a specific moment
type Pose struct {
	X           float64 // Normalized center X
	Y           float64 // Normalized center Y
	Scale       float64 // 1.0 = sprite size
	RotationDeg float64 // Counter-clockwise
	Opacity     float64 // 0..1
}

// DefaultPose is used for tracks without keyframes: centered, unscaled, opaque.
var DefaultPose = Pose{X: 0.5, Y: 0.5, Scale: 1.0, RotationDeg: 0.0, Opacity: 1.0}

// PoseOf returns the pose stored in a keyframe
func PoseOf(kf story.Keyframe) Pose {
	return Pose{X: kf.X, Y: kf.Y, Scale: kf.Scale, RotationDeg: kf.RotationDeg, Opacity: kf.Opacity}
}

// Interpolate calculates the pose at a given scene time. Keyframes must be
// sorted by time. Each segment is eased with the curve of its destination
// keyframe.
func Interpolate(keyframes []story.Keyframe, currentTime float64) Pose {
	if len(keyframes) == 0 {
		return DefaultPose
	}

	// If before first keyframe, use first keyframe
	if currentTime <= keyframes[0].Time {
		return PoseOf(keyframes[0])
	}

	// If after last keyframe, use last keyframe
	last := keyframes[len(keyframes)-1]
	if currentTime >= last.Time {
		return PoseOf(last)
	}

	// Find surrounding keyframes
	for i := 1; i < len(keyframes); i++ {
		prevKf, nextKf := keyframes[i-1], keyframes[i]
		if prevKf.Time <= currentTime && currentTime <= nextKf.Time {
			u := (currentTime - prevKf.Time) / math.Max(minSegment, nextKf.Time-prevKf.Time)
			e := easing.Apply(nextKf.Easing, u)
			return lerpPose(PoseOf(prevKf), PoseOf(nextKf), e)
		}
	}

	return PoseOf(last)
}

func lerpPose(a, b Pose, t float64) Pose {
	return Pose{
		X:           lerp(a.X, b.X, t),
		Y:           lerp(a.Y, b.Y, t),
		Scale:       lerp(a.Scale, b.Scale, t),
		RotationDeg: lerp(a.RotationDeg, b.RotationDeg, t),
		Opacity:     lerp(a.Opacity, b.Opacity, t),
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
