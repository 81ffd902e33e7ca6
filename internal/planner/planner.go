package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ivlev/story2video/internal/story"
)

// Planner writes the story outline and the motion of every character
type Planner interface {
	Story(ctx context.Context, req StoryRequest) (*story.Story, error)
	Motion(ctx context.Context, s *story.Story, fps int) error
}

// StoryRequest describes the story to plan
type StoryRequest struct {
	Prompt          string
	Characters      []string
	Scenes          int
	SecondsPerScene float64
}

// motionResponse mirrors the JSON skeleton of the motion prompt. Keyframes
// stay raw so one malformed keyframe only spoils its own track.
type motionResponse struct {
	Scenes []struct {
		Tracks []struct {
			Character string            `json:"character"`
			Keyframes []json.RawMessage `json:"keyframes"`
		} `json:"tracks"`
	} `json:"scenes"`
}

// holdKeyframe is used for tracks that arrive without usable keyframes
func holdKeyframe() story.Keyframe {
	return story.NewKeyframe(0, 0.5, 0.5)
}

// mergeMotion attaches planned tracks to the scenes of s by index. Tracks for
// characters outside the cast are dropped; scenes missing from the response
// get no tracks.
func mergeMotion(s *story.Story, resp motionResponse) {
	for i := range s.Scenes {
		var tracks []story.MotionTrack
		if i < len(resp.Scenes) {
			for _, rt := range resp.Scenes[i].Tracks {
				if !s.HasCharacter(rt.Character) {
					log.Printf("[!] Scene %d: dropping track for unknown character %q", i, rt.Character)
					continue
				}
				tracks = append(tracks, story.MotionTrack{
					Character: rt.Character,
					Keyframes: decodeKeyframes(rt.Keyframes),
				})
			}
		}
		s.AttachTracks(i, tracks)
	}
}

func decodeKeyframes(raw []json.RawMessage) []story.Keyframe {
	kfs := make([]story.Keyframe, 0, len(raw))
	for _, r := range raw {
		var kf story.Keyframe
		if err := json.Unmarshal(r, &kf); err != nil {
			kfs = kfs[:0]
			break
		}
		kfs = append(kfs, kf)
	}
	if len(kfs) == 0 {
		return []story.Keyframe{holdKeyframe()}
	}
	return kfs
}

// checkRequest validates a story request
func checkRequest(req StoryRequest) error {
	if req.Scenes <= 0 {
		return fmt.Errorf("scene count must be positive, got %d", req.Scenes)
	}
	if req.SecondsPerScene <= 0 {
		return fmt.Errorf("scene length must be positive, got %.3f", req.SecondsPerScene)
	}
	if len(req.Characters) == 0 {
		return fmt.Errorf("no characters to plan for")
	}
	return nil
}
