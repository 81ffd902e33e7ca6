package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// Config holds every setting of a render run. Zero values of optional fields
// mean "use the default"; see Default.
type Config struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
	Preset      string `yaml:"preset,omitempty"`
	OutputDir   string `yaml:"output_dir"`
	OutputVideo string `yaml:"output_video,omitempty"`

	Background    string `yaml:"background"`
	BackgroundDir string `yaml:"background_dir,omitempty"`
	PDFPath       string `yaml:"pdf_path,omitempty"`
	DPI           int    `yaml:"dpi"`

	Workers      int    `yaml:"workers"`
	VideoEncoder string `yaml:"video_encoder,omitempty"`
	Quality      int    `yaml:"quality"`
	Debug        bool   `yaml:"debug"`
	ShowStats    bool   `yaml:"show_stats"`

	AssetsDir       string  `yaml:"assets_dir"`
	StoryDir        string  `yaml:"story_dir"`
	Scenes          int     `yaml:"scenes"`
	SecondsPerScene float64 `yaml:"seconds_per_scene"`
	Offline         bool    `yaml:"offline"`

	Planner PlannerConfig `yaml:"planner"`
	MQTT    MQTTConfig    `yaml:"mqtt"`

	BuildVersion string `yaml:"-"`
}

type PlannerConfig struct {
	APIKey        string `yaml:"-"` // only from the environment or flags
	Model         string `yaml:"model"`
	FallbackModel string `yaml:"fallback_model"`
	Endpoint      string `yaml:"endpoint"`
}

// MQTTConfig enables job status messages when Broker is set
type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Presets maps aspect ratio names to output sizes
var Presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
}

func Default() Config {
	return Config{
		Width:           1280,
		Height:          720,
		FPS:             24,
		OutputDir:       "./frames",
		Background:      "gradient",
		BackgroundDir:   "./backgrounds",
		DPI:             150,
		AssetsDir:       "./assets",
		StoryDir:        "./stories",
		Scenes:          3,
		SecondsPerScene: 3.0,
		Planner: PlannerConfig{
			Model:         "gemini-2.5-flash",
			FallbackModel: "gemini-1.5-flash-latest",
			Endpoint:      "https://generativelanguage.googleapis.com/v1beta",
		},
		MQTT: MQTTConfig{
			Topic:    "story2video/jobs",
			ClientID: "story2video",
		},
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// ApplyPreset sets width and height from a named aspect ratio
func (c *Config) ApplyPreset(name string) error {
	size, ok := Presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
	}
	c.Preset = name
	c.Width, c.Height = size[0], size[1]
	return nil
}

// Validate checks the values the renderer cannot work without. The background
// selector is resolved later by the background package. Planner settings are
// checked by ValidatePlan.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	case c.OutputDir == "":
		return fmt.Errorf("%w: empty output dir", ErrInvalid)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	return nil
}

// ValidatePlan checks the settings used to plan a new story
func (c Config) ValidatePlan() error {
	switch {
	case c.Scenes <= 0:
		return fmt.Errorf("%w: scenes %d", ErrInvalid, c.Scenes)
	case c.SecondsPerScene <= 0:
		return fmt.Errorf("%w: seconds per scene %.3f", ErrInvalid, c.SecondsPerScene)
	}
	return nil
}

// Save writes the config as YAML
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
