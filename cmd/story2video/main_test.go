package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/story2video/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags("run", nil, nil)
	require.NoError(t, err)

	want := config.Default()
	assert.Equal(t, want.Width, cfg.Width)
	assert.Equal(t, want.FPS, cfg.FPS)
	assert.Equal(t, want.Background, cfg.Background)
	assert.Equal(t, buildVersion, cfg.BuildVersion)
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 12\nbackground: image_dir\nworkers: 3\n"), 0644))

	var prompt string
	cfg, err := parseFlags("run", []string{"-config", path, "-fps", "30", "-prompt", "hello"}, func(fs *flag.FlagSet) {
		fs.StringVar(&prompt, "prompt", prompt, "")
	})
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.FPS, "explicit flag wins")
	assert.Equal(t, "image_dir", cfg.Background, "file value kept")
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "hello", prompt)
}

func TestParseFlagsPreset(t *testing.T) {
	cfg, err := parseFlags("render", []string{"-preset", "9:16"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 720, cfg.Width)
	assert.Equal(t, 1280, cfg.Height)

	_, err = parseFlags("render", []string{"-preset", "21:9"}, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunRejectsPlanSettings(t *testing.T) {
	err := runCmd(context.Background(), []string{"-offline", "-config", writeConfig(t, "scenes: 0\n")})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestParseFlagsInvalid(t *testing.T) {
	_, err := parseFlags("render", []string{"-fps", "0"}, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestAutoVideoPath(t *testing.T) {
	p := autoVideoPath("Offline Demo")
	assert.Equal(t, "output", filepath.Dir(p))
	assert.True(t, strings.HasPrefix(filepath.Base(p), "Offline_Demo_"))
	assert.Equal(t, ".mp4", filepath.Ext(p))

	assert.True(t, strings.HasPrefix(filepath.Base(autoVideoPath("  ")), "story_"))

	// Separators from a generated title must not create directories
	for _, title := range []string{"Up/Down", `Back\Slash`, "../escape"} {
		p := autoVideoPath(title)
		assert.Equal(t, "output", filepath.Dir(p), title)
		assert.NotContains(t, filepath.Base(p), "/", title)
		assert.NotContains(t, filepath.Base(p), `\`, title)
	}
	assert.True(t, strings.HasPrefix(filepath.Base(autoVideoPath("Up/Down")), "Up_Down_"))
}
