package planner

import (
	"context"
	"fmt"

	"github.com/ivlev/story2video/internal/easing"
	"github.com/ivlev/story2video/internal/story"
)

// Offline plans without any network access. Every character walks from the
// left third to the right and back once per scene.
type Offline struct {
	Easing easing.Kind
}

func NewOffline() *Offline {
	return &Offline{Easing: easing.InOutQuad}
}

func (o *Offline) Story(_ context.Context, req StoryRequest) (*story.Story, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	scenes := make([]story.Scene, req.Scenes)
	for i := range scenes {
		scenes[i] = story.Scene{
			Title:            fmt.Sprintf("Scene %d", i+1),
			Description:      "Characters move left-right.",
			DurationSeconds:  req.SecondsPerScene,
			BackgroundPrompt: "soft gradient",
		}
	}

	s := &story.Story{
		Title:      "Offline Demo",
		Synopsis:   req.Prompt,
		Characters: append([]string(nil), req.Characters...),
		Scenes:     scenes,
	}
	s.Normalize()
	return s, nil
}

func (o *Offline) Motion(_ context.Context, s *story.Story, _ int) error {
	for i, sc := range s.Scenes {
		tracks := make([]story.MotionTrack, 0, len(s.Characters))
		for _, name := range s.Characters {
			tracks = append(tracks, story.MotionTrack{
				Character: name,
				Keyframes: o.pingPong(sc.DurationSeconds),
			})
		}
		s.AttachTracks(i, tracks)
	}
	return nil
}

// pingPong returns keyframes at the start, middle and end of a scene
func (o *Offline) pingPong(duration float64) []story.Keyframe {
	kind := o.Easing
	if kind == "" {
		kind = easing.InOutQuad
	}
	points := []struct{ t, x float64 }{
		{0, 0.2},
		{duration * 0.5, 0.8},
		{duration, 0.2},
	}
	kfs := make([]story.Keyframe, len(points))
	for i, p := range points {
		kf := story.NewKeyframe(p.t, p.x, 0.5)
		kf.Easing = kind
		kfs[i] = kf
	}
	return kfs
}
