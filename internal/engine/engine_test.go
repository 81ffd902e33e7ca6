package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/story2video/internal/assets"
	"github.com/ivlev/story2video/internal/background"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/story"
)

func TestFrameCountAndTime(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		fps      int
		want     []float64
	}{
		{"two seconds at one fps", 2, 1, []float64{0, 2}},
		{"one second at two fps", 1, 2, []float64{0, 1}},
		{"partial frame rounds up", 0.5, 1, []float64{0}},
		{"four frames", 2, 2, []float64{0, 2.0 / 3, 4.0 / 3, 2}},
		{"partial last frame", 1.5, 2, []float64{0, 0.75, 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := FrameCount(tt.duration, tt.fps)
			require.Equal(t, len(tt.want), count)
			for f, want := range tt.want {
				assert.InDelta(t, want, FrameTime(f, count, tt.duration), 1e-12)
			}
		})
	}
}

func TestPlanNumbersAcrossScenes(t *testing.T) {
	s := &story.Story{Scenes: []story.Scene{
		{DurationSeconds: 1},
		{DurationSeconds: 0.5},
	}}

	jobs := Plan(s, 4)
	require.Len(t, jobs, 6)
	for i, j := range jobs {
		assert.Equal(t, i, j.Index)
	}
	assert.Equal(t, FrameJob{Index: 3, Scene: 0, Local: 3, T: 1}, jobs[3])
	assert.Equal(t, FrameJob{Index: 4, Scene: 1, Local: 0, T: 0}, jobs[4])
	assert.Equal(t, FrameJob{Index: 5, Scene: 1, Local: 1, T: 0.5}, jobs[5])
	assert.Equal(t, "frame_000042.png", FrameName(42))
}

type fakeEncoder struct {
	paths []string
	fps   int
	err   error
}

func (f *fakeEncoder) EncodeFrames(_ context.Context, framePaths []string, _ string, fps int) error {
	f.paths = append([]string(nil), framePaths...)
	f.fps = fps
	return f.err
}

func testSetup(t *testing.T) (config.Config, []story.CharacterAsset) {
	t.Helper()
	dir := t.TempDir()
	chars, err := assets.WriteSampleAssets(filepath.Join(dir, "assets"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Width, cfg.Height = 64, 36
	cfg.FPS = 2
	cfg.Workers = 2
	cfg.OutputDir = filepath.Join(dir, "frames")
	return cfg, chars
}

func decode(t *testing.T, path string) *image.RGBA {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, img.At(x, y))
			}
		}
	}
	return rgba
}

func TestRenderSingleKeyframeHolds(t *testing.T) {
	cfg, chars := testSetup(t)
	s := &story.Story{
		Characters: []string{"alice"},
		Scenes: []story.Scene{{
			DurationSeconds: 1,
			Tracks: []story.MotionTrack{{
				Character: "alice",
				Keyframes: []story.Keyframe{story.NewKeyframe(0, 0.5, 0.5)},
			}},
		}},
	}

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "frame_000000.png"),
		filepath.Join(cfg.OutputDir, "frame_000001.png"),
	}, res.Frames)

	first, second := decode(t, res.Frames[0]), decode(t, res.Frames[1])
	assert.Equal(t, image.Rect(0, 0, 64, 36), first.Bounds())
	// t=0 and t=1 share the background phase and the pose, so frames match
	assert.Equal(t, first.Pix, second.Pix)
	// The sprite is larger than the canvas and centered on it
	assert.Equal(t, color.RGBA{R: 255, G: 80, B: 80, A: 255}, first.RGBAAt(32, 18))
}

func TestRenderNumbersAcrossScenes(t *testing.T) {
	cfg, chars := testSetup(t)
	cfg.FPS = 3
	s := &story.Story{
		Characters: []string{"alice", "bob"},
		Scenes: []story.Scene{
			{DurationSeconds: 1},
			{DurationSeconds: 1},
		},
	}
	s.AttachTracks(0, []story.MotionTrack{{Character: "bob"}})
	s.AttachTracks(1, []story.MotionTrack{{Character: "alice", Keyframes: []story.Keyframe{
		story.NewKeyframe(0, 0.2, 0.5),
		story.NewKeyframe(1, 0.8, 0.5),
	}}})

	var mu sync.Mutex
	var calls [][2]int
	r := NewRenderer(cfg, nil)
	r.Progress = func(done, total int) {
		mu.Lock()
		calls = append(calls, [2]int{done, total})
		mu.Unlock()
	}

	res, err := r.Render(context.Background(), s, chars)
	require.NoError(t, err)
	require.Len(t, res.Frames, 6)
	for i, p := range res.Frames {
		assert.Equal(t, FrameName(i), filepath.Base(p))
		assert.FileExists(t, p)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 6, "no temp files left behind")

	require.Len(t, calls, 6)
	assert.Equal(t, [2]int{6, 6}, calls[len(calls)-1])
}

func TestRenderUnknownBackground(t *testing.T) {
	for _, selector := range []string{"starfield", ""} {
		t.Run("selector "+selector, func(t *testing.T) {
			cfg, chars := testSetup(t)
			cfg.Background = selector
			s := &story.Story{Characters: []string{"alice"}, Scenes: []story.Scene{{DurationSeconds: 1}}}

			_, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
			assert.True(t, errors.Is(err, background.ErrUnknownProvider))

			matches, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "frame_*.png"))
			assert.Empty(t, matches)
		})
	}
}

func TestRenderWithRenderFieldsOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Width: 64, Height: 36, FPS: 2, OutputDir: dir, Background: "gradient"}
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 1}}}

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, nil)
	require.NoError(t, err)
	require.Len(t, res.Frames, 2)
	for _, p := range res.Frames {
		assert.FileExists(t, p)
	}
}

func smallKeyframe(x float64) story.Keyframe {
	kf := story.NewKeyframe(0, x, 0.5)
	kf.Scale = 0.05
	return kf
}

func TestRenderAppliesCastAndLastTrackWins(t *testing.T) {
	cfg, chars := testSetup(t)
	// Built in code, bypassing AttachTracks
	s := &story.Story{
		Characters: []string{"alice"},
		Scenes: []story.Scene{{
			DurationSeconds: 0.5,
			Tracks: []story.MotionTrack{
				{Character: "bob", Keyframes: []story.Keyframe{smallKeyframe(0.15)}},
				{Character: "alice", Keyframes: []story.Keyframe{smallKeyframe(0.85)}},
				{Character: "alice", Keyframes: []story.Keyframe{smallKeyframe(0.5)}},
			},
		}},
	}

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	require.NoError(t, err)
	require.Len(t, res.Frames, 1)

	img := decode(t, res.Frames[0])
	flat := color.RGBA{R: 25, G: 45, B: 75, A: 255}
	assert.Greater(t, img.RGBAAt(32, 18).R, uint8(200), "last alice track drawn")
	assert.Equal(t, flat, img.RGBAAt(9, 18), "bob is not in the cast")
	assert.Equal(t, flat, img.RGBAAt(54, 18), "earlier alice track replaced")

	// The story is left as it was
	assert.Len(t, s.Scenes[0].Tracks, 3)
}

func TestRenderSkipsTrackWithoutSprite(t *testing.T) {
	cfg, chars := testSetup(t)
	s := &story.Story{
		Characters: []string{"carol"},
		Scenes: []story.Scene{{
			DurationSeconds: 0.5,
			Tracks:          []story.MotionTrack{{Character: "carol"}},
		}},
	}

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	require.NoError(t, err)
	require.Len(t, res.Frames, 1)

	// Gradient only: scene 0 at t=0 is flat
	img := decode(t, res.Frames[0])
	assert.Equal(t, color.RGBA{R: 25, G: 45, B: 75, A: 255}, img.RGBAAt(32, 18))
}

func TestRenderMissingSpriteFile(t *testing.T) {
	cfg, _ := testSetup(t)
	s := &story.Story{Characters: []string{"ghost"}, Scenes: []story.Scene{{DurationSeconds: 1}}}
	chars := []story.CharacterAsset{{Name: "ghost", ImagePath: filepath.Join(t.TempDir(), "ghost.png")}}

	_, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	assert.Error(t, err)
}

func TestRenderInvalidInput(t *testing.T) {
	cfg, chars := testSetup(t)

	_, err := NewRenderer(cfg, nil).Render(context.Background(), &story.Story{}, chars)
	assert.True(t, errors.Is(err, story.ErrInvalidStory))

	cfg.FPS = 0
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 1}}}
	_, err = NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestRenderCancelled(t *testing.T) {
	cfg, chars := testSetup(t)
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 2}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(cfg, nil).Render(ctx, s, chars)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRenderVideo(t *testing.T) {
	cfg, chars := testSetup(t)
	cfg.OutputVideo = filepath.Join(t.TempDir(), "out.mp4")
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 1}}}

	t.Run("encoded", func(t *testing.T) {
		enc := &fakeEncoder{}
		res, err := NewRenderer(cfg, enc).Render(context.Background(), s, chars)
		require.NoError(t, err)
		assert.Equal(t, res.Frames, enc.paths)
		assert.Equal(t, 2, enc.fps)
		assert.Equal(t, cfg.OutputVideo, res.Video)
		assert.NoError(t, res.VideoErr)
	})

	t.Run("encoder failure keeps frames", func(t *testing.T) {
		enc := &fakeEncoder{err: errors.New("ffmpeg missing")}
		res, err := NewRenderer(cfg, enc).Render(context.Background(), s, chars)
		require.NoError(t, err)
		assert.Len(t, res.Frames, 2)
		assert.Empty(t, res.Video)
		assert.EqualError(t, res.VideoErr, "ffmpeg missing")
	})
}

func TestRenderVideoWithoutEncoder(t *testing.T) {
	cfg, chars := testSetup(t)
	cfg.OutputVideo = filepath.Join(t.TempDir(), "out.mp4")
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 0.5}}}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	require.NoError(t, err)
	assert.Empty(t, res.Video)
	assert.Contains(t, buf.String(), "[!] No video encoder configured")
	assert.NoFileExists(t, cfg.OutputVideo)
}

func TestRenderDebugStamp(t *testing.T) {
	cfg, chars := testSetup(t)
	cfg.Width, cfg.Height = 320, 180
	cfg.Debug = true
	cfg.ShowStats = true
	s := &story.Story{Scenes: []story.Scene{{DurationSeconds: 0.5}}}

	res, err := NewRenderer(cfg, nil).Render(context.Background(), s, chars)
	require.NoError(t, err)
	require.Len(t, res.Frames, 1)

	img := decode(t, res.Frames[0])
	// QR quiet zone in the bottom-right corner
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(320-9, 180-9))
	assert.Contains(t, res.Stats.Report("test"), "Frames: 1")
}
