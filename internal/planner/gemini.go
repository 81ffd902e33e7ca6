package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/story"
)

var ErrNoAPIKey = errors.New("gemini API key required")

const defaultStoryTitle = "AI 2D Animation"

// Gemini plans stories with the Gemini generateContent REST API. A failing
// primary model is retried once on the fallback model.
type Gemini struct {
	APIKey        string
	Model         string
	FallbackModel string
	Endpoint      string
	HTTP          *http.Client
}

func NewGemini(cfg config.PlannerConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	def := config.Default().Planner
	g := &Gemini{
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
		Endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
		HTTP:          &http.Client{Timeout: 120 * time.Second},
	}
	if g.Model == "" {
		g.Model = def.Model
	}
	if g.FallbackModel == "" {
		g.FallbackModel = def.FallbackModel
	}
	if g.Endpoint == "" {
		g.Endpoint = def.Endpoint
	}
	return g, nil
}

type storyResponse struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
	Scenes   []struct {
		Title            string `json:"title"`
		Description      string `json:"description"`
		BackgroundPrompt string `json:"background_prompt"`
	} `json:"scenes"`
}

func (g *Gemini) Story(ctx context.Context, req StoryRequest) (*story.Story, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var resp storyResponse
	if err := g.generateJSON(ctx, StoryPrompt(req), storySystem, &resp); err != nil {
		return nil, fmt.Errorf("story: %w", err)
	}

	scenes := resp.Scenes
	if len(scenes) > req.Scenes {
		scenes = scenes[:req.Scenes]
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("story: model returned no scenes")
	}

	s := &story.Story{
		Title:      resp.Title,
		Synopsis:   resp.Synopsis,
		Characters: append([]string(nil), req.Characters...),
	}
	if s.Title == "" {
		s.Title = defaultStoryTitle
	}
	for _, sc := range scenes {
		s.Scenes = append(s.Scenes, story.Scene{
			Title:            sc.Title,
			Description:      sc.Description,
			DurationSeconds:  req.SecondsPerScene,
			BackgroundPrompt: sc.BackgroundPrompt,
		})
	}
	s.Normalize()
	return s, nil
}

func (g *Gemini) Motion(ctx context.Context, s *story.Story, fps int) error {
	var resp motionResponse
	if err := g.generateJSON(ctx, MotionPrompt(s, fps), motionSystem, &resp); err != nil {
		return fmt.Errorf("motion: %w", err)
	}
	mergeMotion(s, resp)
	return nil
}

// generateJSON asks the primary model, then the fallback, and decodes the
// first answer that parses into out.
func (g *Gemini) generateJSON(ctx context.Context, prompt, system string, out interface{}) error {
	primaryErr := g.generateWith(ctx, g.Model, prompt, system, out)
	if primaryErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log.Printf("[!] Primary model %s failed, trying fallback %s: %v", g.Model, g.FallbackModel, primaryErr)
	fallbackErr := g.generateWith(ctx, g.FallbackModel, prompt, system, out)
	if fallbackErr == nil {
		return nil
	}
	return fmt.Errorf("gemini generation failed: %w; fallback error: %v", primaryErr, fallbackErr)
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) generateWith(ctx context.Context, model, prompt, system string, out interface{}) error {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
		},
	}
	if system != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.Endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s returned %d: %s", model, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return fmt.Errorf("parse response structure: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return errors.New("empty response from model")
	}

	text := stripFences(gr.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parse model JSON: %w", err)
	}
	return nil
}

// stripFences removes a markdown code block around the model answer
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
