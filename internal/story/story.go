package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/story2video/internal/easing"
)

var ErrInvalidStory = errors.New("invalid story")

// Story is an ordered sequence of scenes played by a fixed cast
type Story struct {
	Title      string   `yaml:"title" json:"title"`
	Synopsis   string   `yaml:"synopsis" json:"synopsis"`
	Characters []string `yaml:"characters" json:"characters"`
	Scenes     []Scene  `yaml:"scenes" json:"scenes"`
}

// Scene is one time segment of a story. Scene time restarts at 0.
type Scene struct {
	Title            string        `yaml:"title" json:"title"`
	Description      string        `yaml:"description" json:"description"`
	DurationSeconds  float64       `yaml:"duration_seconds" json:"duration_seconds"`
	BackgroundPrompt string        `yaml:"background_prompt,omitempty" json:"background_prompt,omitempty"`
	Tracks           []MotionTrack `yaml:"tracks,omitempty" json:"tracks,omitempty"`
}

// MotionTrack binds a list of keyframes to one character
type MotionTrack struct {
	Character string     `yaml:"character" json:"character"`
	Keyframes []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Keyframe is an explicit pose anchored at a scene-relative time
type Keyframe struct {
	Time        float64     `yaml:"time" json:"time"`                 // Seconds from scene start
	X           float64     `yaml:"x" json:"x"`                       // Normalized, 0 = left
	Y           float64     `yaml:"y" json:"y"`                       // Normalized, 0 = top
	Scale       float64     `yaml:"scale" json:"scale"`               // 1.0 = sprite size
	RotationDeg float64     `yaml:"rotation_deg" json:"rotation_deg"` // Counter-clockwise
	Opacity     float64     `yaml:"opacity" json:"opacity"`
	Easing      easing.Kind `yaml:"easing" json:"easing"` // Curve used to arrive at this keyframe
}

// CharacterAsset points at the sprite image for one character
type CharacterAsset struct {
	Name      string `yaml:"name" json:"name"`
	ImagePath string `yaml:"image_path" json:"image_path"`
}

// NewKeyframe returns a keyframe at the given time and position with default
// scale, rotation, opacity and easing.
func NewKeyframe(time, x, y float64) Keyframe {
	k := defaultKeyframe()
	k.Time, k.X, k.Y = time, x, y
	return k.Normalize()
}

func defaultKeyframe() Keyframe {
	return Keyframe{X: 0.5, Y: 0.5, Scale: 1.0, Opacity: 1.0, Easing: easing.Linear}
}

// Normalize clamps position and opacity into [0,1] and fills defaults.
func (k Keyframe) Normalize() Keyframe {
	k.X = clamp01(k.X)
	k.Y = clamp01(k.Y)
	k.Opacity = clamp01(k.Opacity)
	if k.Time < 0 {
		k.Time = 0
	}
	if k.Scale <= 0 {
		k.Scale = 1.0
	}
	if k.Easing == "" {
		k.Easing = easing.Linear
	}
	return k
}

func (k *Keyframe) UnmarshalYAML(value *yaml.Node) error {
	type plain Keyframe
	raw := plain(defaultKeyframe())
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*k = Keyframe(raw).Normalize()
	return nil
}

func (k *Keyframe) UnmarshalJSON(data []byte) error {
	type plain Keyframe
	raw := plain(defaultKeyframe())
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*k = Keyframe(raw).Normalize()
	return nil
}

// Sorted returns a copy of the keyframes ordered by time. Keyframes sharing a
// time keep their original order.
func (m MotionTrack) Sorted() []Keyframe {
	out := make([]Keyframe, len(m.Keyframes))
	copy(out, m.Keyframes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// SetTracks replaces the scene's tracks. A character appearing more than once
// keeps the position of its first track and the keyframes of its last.
func (s *Scene) SetTracks(tracks []MotionTrack) {
	out := make([]MotionTrack, 0, len(tracks))
	index := make(map[string]int, len(tracks))
	for _, t := range tracks {
		kfs := make([]Keyframe, len(t.Keyframes))
		for i, kf := range t.Keyframes {
			kfs[i] = kf.Normalize()
		}
		t.Keyframes = kfs
		if i, ok := index[t.Character]; ok {
			out[i] = t
			continue
		}
		index[t.Character] = len(out)
		out = append(out, t)
	}
	s.Tracks = out
}

// Track returns the scene's track for character, if any.
func (s *Scene) Track(character string) (MotionTrack, bool) {
	for _, t := range s.Tracks {
		if t.Character == character {
			return t, true
		}
	}
	return MotionTrack{}, false
}

// HasCharacter reports whether name belongs to the cast.
func (s *Story) HasCharacter(name string) bool {
	for _, c := range s.Characters {
		if c == name {
			return true
		}
	}
	return false
}

// AttachTracks sets the tracks of one scene. Tracks for characters outside the
// cast are dropped.
func (s *Story) AttachTracks(sceneIndex int, tracks []MotionTrack) {
	if sceneIndex < 0 || sceneIndex >= len(s.Scenes) {
		return
	}
	kept := make([]MotionTrack, 0, len(tracks))
	for _, t := range tracks {
		if s.HasCharacter(t.Character) {
			kept = append(kept, t)
		}
	}
	s.Scenes[sceneIndex].SetTracks(kept)
}

// Normalize deduplicates the cast and re-applies the track rules to every scene.
func (s *Story) Normalize() {
	seen := make(map[string]bool, len(s.Characters))
	cast := make([]string, 0, len(s.Characters))
	for _, c := range s.Characters {
		if seen[c] {
			continue
		}
		seen[c] = true
		cast = append(cast, c)
	}
	s.Characters = cast
	for i := range s.Scenes {
		s.AttachTracks(i, s.Scenes[i].Tracks)
	}
}

// Validate checks the invariants the renderer relies on.
func (s *Story) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("%w: no scenes", ErrInvalidStory)
	}
	for i, sc := range s.Scenes {
		if sc.DurationSeconds <= 0 {
			return fmt.Errorf("%w: scene %d has duration %.3fs", ErrInvalidStory, i, sc.DurationSeconds)
		}
	}
	return nil
}

// TotalDuration is the sum of all scene durations in seconds.
func (s *Story) TotalDuration() float64 {
	total := 0.0
	for _, sc := range s.Scenes {
		total += sc.DurationSeconds
	}
	return total
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
