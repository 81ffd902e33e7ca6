package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ivlev/story2video/internal/easing"
	"github.com/ivlev/story2video/internal/story"
)

const (
	storySystem  = "You are a story and motion planner for 2D animations. You must return compact JSON that strictly follows the requested schema."
	motionSystem = "You are an animation motion planner. You must return strictly valid JSON with numeric values, not text."
)

type storySkeleton struct {
	Title      string          `json:"title"`
	Synopsis   string          `json:"synopsis"`
	Characters []string        `json:"characters"`
	Scenes     []sceneSkeleton `json:"scenes"`
}

type sceneSkeleton struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	DurationSeconds  float64       `json:"duration_seconds"`
	BackgroundPrompt string        `json:"background_prompt"`
	Tracks           []interface{} `json:"tracks"`
}

type sceneBrief struct {
	SceneIndex      int     `json:"scene_index"`
	DurationSeconds float64 `json:"duration_seconds"`
	Description     string  `json:"description"`
}

func indentJSON(v interface{}) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// StoryPrompt asks for a story outline without motion
func StoryPrompt(req StoryRequest) string {
	skeleton := storySkeleton{
		Title:      "string",
		Synopsis:   "string",
		Characters: []string{"string"},
		Scenes: []sceneSkeleton{{
			Title:            "string",
			Description:      "string",
			DurationSeconds:  req.SecondsPerScene,
			BackgroundPrompt: "string",
			Tracks:           []interface{}{},
		}},
	}

	var b strings.Builder
	b.WriteString("Create a short story outline suitable for a 2D animation.\n")
	fmt.Fprintf(&b, "User prompt: %s\n", req.Prompt)
	fmt.Fprintf(&b, "Characters (fixed assets, do not invent new ones): %s\n", strings.Join(req.Characters, ", "))
	fmt.Fprintf(&b, "Number of scenes: %d. Each scene duration: %.2f seconds.\n", req.Scenes, req.SecondsPerScene)
	b.WriteString("Important constraints:\n")
	b.WriteString("- Only use the provided characters list.\n")
	b.WriteString("- Keep text concise.\n")
	b.WriteString("- Provide a creative 'background_prompt' for each scene that an external image generator can use.\n")
	b.WriteString("- Do not include motion tracks; those are generated later.\n")
	b.WriteString("Return JSON matching this skeleton (values filled in):\n")
	b.WriteString(indentJSON(skeleton))
	return b.String()
}

// MotionPrompt asks for keyframes of every character in every scene of s
func MotionPrompt(s *story.Story, fps int) string {
	skeleton := map[string]interface{}{
		"scenes": []interface{}{
			map[string]interface{}{
				"tracks": []story.MotionTrack{{
					Character: "string",
					Keyframes: []story.Keyframe{story.NewKeyframe(0, 0.5, 0.5)},
				}},
			},
		},
	}

	briefs := make([]sceneBrief, len(s.Scenes))
	for i, sc := range s.Scenes {
		briefs[i] = sceneBrief{SceneIndex: i, DurationSeconds: sc.DurationSeconds, Description: sc.Description}
	}

	kinds := make([]string, 0, len(easing.Kinds()))
	for _, k := range easing.Kinds() {
		kinds = append(kinds, string(k))
	}

	var b strings.Builder
	b.WriteString("Plan motion keyframes for each scene of a 2D animation.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use only the characters provided.\n")
	b.WriteString("- Coordinates x,y are normalized in [0,1], (0,0) top-left, (1,1) bottom-right.\n")
	b.WriteString("- Include at least 3-5 keyframes per character per scene for smooth motion.\n")
	b.WriteString("- Spread keyframes across the entire scene duration.\n")
	fmt.Fprintf(&b, "- Use easing {%s}.\n", strings.Join(kinds, ", "))
	fmt.Fprintf(&b, "- Target FPS is %d, but return times in seconds.\n", fps)
	b.WriteString("- Avoid sudden jumps; keep motion subtle and readable.\n")
	b.WriteString("- Keep opacity between 0 and 1.\n")
	b.WriteString("Return JSON matching this skeleton (values filled in):\n")
	b.WriteString(indentJSON(skeleton))
	b.WriteString("\nHere are the scene briefs:\n")
	b.WriteString(indentJSON(briefs))
	fmt.Fprintf(&b, "\nCharacters: %s", strings.Join(s.Characters, ", "))
	return b.String()
}
