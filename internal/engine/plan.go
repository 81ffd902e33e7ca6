package engine

import (
	"fmt"
	"math"

	"github.com/ivlev/story2video/internal/story"
)

// FrameJob identifies one output frame
type FrameJob struct {
	Index int     // Global frame number across all scenes
	Scene int     // Scene index
	Local int     // Frame number within the scene
	T     float64 // Scene time in seconds
}

// FrameCount returns the number of frames a scene of duration seconds gets
func FrameCount(duration float64, fps int) int {
	return int(math.Ceil(duration * float64(fps)))
}

// FrameTime maps frame f of count onto [0, duration]. The last frame lands
// exactly on the scene end.
func FrameTime(f, count int, duration float64) float64 {
	return float64(f) / math.Max(1, float64(count-1)) * duration
}

// Plan lists every frame of the story in output order
func Plan(s *story.Story, fps int) []FrameJob {
	var jobs []FrameJob
	index := 0
	for si, sc := range s.Scenes {
		count := FrameCount(sc.DurationSeconds, fps)
		for f := 0; f < count; f++ {
			jobs = append(jobs, FrameJob{
				Index: index,
				Scene: si,
				Local: f,
				T:     FrameTime(f, count, sc.DurationSeconds),
			})
			index++
		}
	}
	return jobs
}

// FrameName is the file name of global frame index
func FrameName(index int) string {
	return fmt.Sprintf("frame_%06d.png", index)
}
