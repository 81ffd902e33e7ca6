package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/story2video/internal/assets"
	"github.com/ivlev/story2video/internal/background"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/renderer"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/system"
	"github.com/ivlev/story2video/internal/video"
)

// ProgressFunc is called after every finished frame
type ProgressFunc func(done, total int)

// Renderer turns a story into numbered PNG frames and, optionally, a video
type Renderer struct {
	Config   config.Config
	Encoder  video.Encoder // used only when Config.OutputVideo is set
	Progress ProgressFunc
}

// Result of a render pass
type Result struct {
	Frames   []string // Frame paths in playback order
	Video    string   // Encoded video path, empty if none was written
	VideoErr error    // Encoder failure; frames are still valid
	Stats    Stats
}

type Stats struct {
	Frames   int
	Render   time.Duration
	Encode   time.Duration
	Total    time.Duration
	Host     system.HostStats
	Workers  int
	Provider string
}

// track is a character track prepared for rendering
type track struct {
	name      string
	sprite    *image.RGBA
	keyframes []story.Keyframe
}

func NewRenderer(cfg config.Config, enc video.Encoder) *Renderer {
	return &Renderer{Config: cfg, Encoder: enc}
}

// Render produces every frame of s. It fails before writing any frame when
// the configuration, the story, the background selector or a sprite is
// invalid.
func (r *Renderer) Render(ctx context.Context, s *story.Story, chars []story.CharacterAsset) (*Result, error) {
	startTime := time.Now()
	cfg := r.Config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	provider, err := background.New(cfg.Background, background.Options{
		Dir:     cfg.BackgroundDir,
		PDFPath: cfg.PDFPath,
		DPI:     cfg.DPI,
	})
	if err != nil {
		return nil, err
	}
	defer background.Close(provider)

	sprites, err := assets.LoadSprites(chars)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	tracks := prepareTracks(s, sprites)
	jobs := Plan(s, cfg.FPS)

	workers := cfg.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}

	fmt.Println("--- [STORY RENDER] ---")
	fmt.Printf("[*] Story: %q | Scenes: %d | Frames: %d\n", s.Title, len(s.Scenes), len(jobs))
	fmt.Printf("[*] Resolution: %dx%d @ %d FPS | Background: %s | Workers: %d\n",
		cfg.Width, cfg.Height, cfg.FPS, cfg.Background, workers)
	fmt.Println("----------------------")

	pool := system.NewCanvasPool(cfg.Width, cfg.Height)
	frames := make([]string, len(jobs))

	var mu sync.Mutex
	done := 0

	renderStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(cfg.OutputDir, FrameName(job.Index))
			if err := r.renderFrame(pool, provider, s, tracks[job.Scene], job, path); err != nil {
				return fmt.Errorf("frame %d: %w", job.Index, err)
			}
			frames[job.Index] = path

			mu.Lock()
			done++
			if r.Progress != nil {
				r.Progress(done, len(jobs))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop may stop early without any worker failing
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Frames: frames}
	res.Stats = Stats{
		Frames:   len(frames),
		Render:   time.Since(renderStart),
		Workers:  workers,
		Provider: cfg.Background,
	}

	switch {
	case cfg.OutputVideo == "":
	case r.Encoder == nil:
		log.Printf("[!] No video encoder configured, %s not written", cfg.OutputVideo)
	default:
		encodeStart := time.Now()
		fmt.Printf("[*] Encoding video: %s\n", cfg.OutputVideo)
		if err := r.Encoder.EncodeFrames(ctx, frames, cfg.OutputVideo, cfg.FPS); err != nil {
			log.Printf("[!] Video encoding failed, frames are kept: %v", err)
			res.VideoErr = err
		} else {
			res.Video = cfg.OutputVideo
		}
		res.Stats.Encode = time.Since(encodeStart)
	}

	res.Stats.Total = time.Since(startTime)
	if cfg.ShowStats {
		res.Stats.Host = system.ReadHostStats()
		fmt.Print(res.Stats.Report(cfg.BuildVersion))
	}
	return res, nil
}

func (r *Renderer) renderFrame(pool *system.CanvasPool, provider background.Provider, s *story.Story, tracks []track, job FrameJob, path string) error {
	canvas := pool.Get()
	defer pool.Put(canvas)

	cb := canvas.Bounds()
	bg := provider.Frame(job.Scene, job.T, cb.Dx(), cb.Dy(), &s.Scenes[job.Scene])
	draw.Draw(canvas, cb, bg, bg.Bounds().Min, draw.Src)

	for _, tr := range tracks {
		pose := renderer.Interpolate(tr.keyframes, job.T)
		renderer.Composite(canvas, tr.sprite, pose)
	}

	if r.Config.Debug {
		if err := renderer.Stamp(canvas, renderer.StampLabel(job.Scene, job.Index, job.T)); err != nil {
			return err
		}
	}

	return writePNG(path, canvas)
}

// prepareTracks applies the cast and one-track-per-character rules to a copy
// of every scene, sorts each track once and drops the ones without a sprite.
// The story itself is not modified.
func prepareTracks(s *story.Story, sprites assets.Sprites) [][]track {
	out := make([][]track, len(s.Scenes))
	for i, sc := range s.Scenes {
		cast := make([]story.MotionTrack, 0, len(sc.Tracks))
		for _, mt := range sc.Tracks {
			if !s.HasCharacter(mt.Character) {
				log.Printf("[!] Scene %d: %q is not in the cast, track skipped", i, mt.Character)
				continue
			}
			cast = append(cast, mt)
		}
		var scene story.Scene
		scene.SetTracks(cast)

		for _, mt := range scene.Tracks {
			sprite, ok := sprites[mt.Character]
			if !ok {
				log.Printf("[!] Scene %d: no sprite for %q, track skipped", i, mt.Character)
				continue
			}
			out[i] = append(out[i], track{name: mt.Character, sprite: sprite, keyframes: mt.Sorted()})
		}
	}
	return out
}

// Report formats the performance summary
func (s Stats) Report(build string) string {
	fps := 0.0
	if s.Total > 0 {
		fps = float64(s.Frames) / s.Total.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d | Workers: %d | Background: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %s\n"+
			"----------------------------\n",
		build, s.Frames, s.Workers, s.Provider, s.Total.Seconds(), s.Render.Seconds(), s.Encode.Seconds(), fps, s.Host,
	)
}
