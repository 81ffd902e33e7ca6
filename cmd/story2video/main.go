package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/ivlev/story2video/internal/assets"
	"github.com/ivlev/story2video/internal/background"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/engine"
	"github.com/ivlev/story2video/internal/job"
	"github.com/ivlev/story2video/internal/notify"
	"github.com/ivlev/story2video/internal/planner"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/system"
	"github.com/ivlev/story2video/internal/video"
)

var buildVersion = "dev"

const usage = `Usage: story2video <command> [flags]

Commands:
  run            plan a story from a prompt and render it
  render         render an existing story file
  sample-assets  write placeholder character sprites

Run "story2video <command> -h" for the flags of a command.
`

func main() {
	mqtt.ERROR = log.New(os.Stdout, "[!] mqtt: ", 0)

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[!] Failed to read .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(ctx, os.Args[2:])
	case "render":
		err = renderCmd(ctx, os.Args[2:])
	case "sample-assets":
		err = sampleAssetsCmd(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("[-] Error: %v", err)
	}
}

// bindFlags registers the shared render flags on fs, defaulting to cfg
func bindFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Output width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Output height")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Frames per second")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Size preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory to write PNG frames")
	fs.StringVar(&cfg.OutputVideo, "video", cfg.OutputVideo, "Optional mp4 path; frames are encoded with ffmpeg")
	fs.StringVar(&cfg.Background, "background", cfg.Background, "Background provider: "+strings.Join(background.Selectors(), ", "))
	fs.StringVar(&cfg.BackgroundDir, "background-dir", cfg.BackgroundDir, "Image directory for the image_dir background")
	fs.StringVar(&cfg.PDFPath, "pdf", cfg.PDFPath, "PDF document for the pdf background")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "Render resolution of PDF pages")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel frame workers (0 = all CPUs)")
	fs.StringVar(&cfg.VideoEncoder, "encoder", cfg.VideoEncoder, "ffmpeg video encoder (empty = detect)")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "Video quality (0 = auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Stamp scene, frame and time onto every frame")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Print a performance report")
	fs.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Directory with character PNGs named by character")
	fs.StringVar(&cfg.StoryDir, "story-dir", cfg.StoryDir, "Directory where planned stories are saved")
	fs.StringVar(&cfg.MQTT.Broker, "mqtt", cfg.MQTT.Broker, "MQTT broker URL for job status messages")
}

// parseFlags reads -config first, then applies the command line on top of the
// file so explicit flags win.
func parseFlags(name string, args []string, extra func(fs *flag.FlagSet)) (config.Config, error) {
	var configPath string
	newSet := func(cfg *config.Config) *flag.FlagSet {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.StringVar(&configPath, "config", configPath, "YAML config file")
		bindFlags(fs, cfg)
		if extra != nil {
			extra(fs)
		}
		return fs
	}

	cfg := config.Default()
	if err := newSet(&cfg).Parse(args); err != nil {
		return cfg, err
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		if err := newSet(&cfg).Parse(args); err != nil {
			return cfg, err
		}
	}

	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return cfg, err
		}
	}
	cfg.BuildVersion = buildVersion
	return cfg, cfg.Validate()
}

func runCmd(ctx context.Context, args []string) error {
	var prompt, apiKey string
	var offline bool
	var scenes int
	var seconds float64
	cfg, err := parseFlags("run", args, func(fs *flag.FlagSet) {
		fs.StringVar(&prompt, "prompt", prompt, "High-level story prompt")
		fs.BoolVar(&offline, "offline", offline, "Run without calling Gemini (stub motions)")
		fs.StringVar(&apiKey, "api-key", apiKey, "Google API key; otherwise uses GOOGLE_API_KEY")
		fs.IntVar(&scenes, "scenes", scenes, "Number of scenes (0 = from config)")
		fs.Float64Var(&seconds, "seconds-per-scene", seconds, "Scene duration in seconds (0 = from config)")
	})
	if err != nil {
		return err
	}
	if scenes > 0 {
		cfg.Scenes = scenes
	}
	if seconds > 0 {
		cfg.SecondsPerScene = seconds
	}
	if err := cfg.ValidatePlan(); err != nil {
		return err
	}
	cfg.Offline = cfg.Offline || offline
	cfg.Planner.APIKey = apiKey
	if cfg.Planner.APIKey == "" {
		cfg.Planner.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	system.InitResourceLimits()

	chars, err := assets.Discover(cfg.AssetsDir)
	if err != nil {
		return fmt.Errorf("%w. Run \"story2video sample-assets\" or add PNGs to %s", err, cfg.AssetsDir)
	}
	fmt.Printf("[*] Characters: %s\n", strings.Join(assets.Names(chars), ", "))

	var p planner.Planner
	if cfg.Offline {
		fmt.Println("[*] Offline mode: stub story and motions")
		p = planner.NewOffline()
	} else {
		g, err := planner.NewGemini(cfg.Planner)
		if err != nil {
			return fmt.Errorf("%w. Set GOOGLE_API_KEY or use -offline", err)
		}
		p = g
	}

	if prompt == "" {
		prompt = "A short friendly story with the given characters."
	}
	fmt.Println("[*] Planning story...")
	s, err := p.Story(ctx, planner.StoryRequest{
		Prompt:          prompt,
		Characters:      assets.Names(chars),
		Scenes:          cfg.Scenes,
		SecondsPerScene: cfg.SecondsPerScene,
	})
	if err != nil {
		return fmt.Errorf("plan story: %w", err)
	}
	fmt.Println("[*] Planning motion...")
	if err := p.Motion(ctx, s, cfg.FPS); err != nil {
		return fmt.Errorf("plan motion: %w", err)
	}

	if err := os.MkdirAll(cfg.StoryDir, 0755); err != nil {
		return fmt.Errorf("create story dir: %w", err)
	}
	storyPath := story.GenerateStoryPath(cfg.StoryDir)
	if err := story.WriteStory(s, storyPath); err != nil {
		return err
	}
	fmt.Printf("[*] Story saved: %s\n", storyPath)

	return render(ctx, cfg, s, chars)
}

func renderCmd(ctx context.Context, args []string) error {
	var storyPath string
	cfg, err := parseFlags("render", args, func(fs *flag.FlagSet) {
		fs.StringVar(&storyPath, "story", storyPath, "Story YAML to render (default: latest in -story-dir)")
	})
	if err != nil {
		return err
	}

	if storyPath == "" {
		latest, err := story.FindLatestStory(cfg.StoryDir)
		if err != nil {
			return fmt.Errorf("%w. Run \"story2video run\" first", err)
		}
		storyPath = latest
		fmt.Printf("[*] Selected story: %s\n", storyPath)
	}

	s, err := story.ReadStory(storyPath)
	if err != nil {
		return err
	}

	system.InitResourceLimits()

	chars, err := assets.Discover(cfg.AssetsDir)
	if err != nil {
		return err
	}
	return render(ctx, cfg, s, chars)
}

func sampleAssetsCmd(args []string) error {
	fs := flag.NewFlagSet("sample-assets", flag.ContinueOnError)
	dir := fs.String("assets", config.Default().AssetsDir, "Directory to write the sprites into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	chars, err := assets.WriteSampleAssets(*dir)
	if err != nil {
		return err
	}
	for _, c := range chars {
		fmt.Printf("[+++] Wrote %s\n", c.ImagePath)
	}
	return nil
}

// render runs the engine as a tracked job so status changes reach the
// configured broker.
func render(ctx context.Context, cfg config.Config, s *story.Story, chars []story.CharacterAsset) error {
	if cfg.OutputVideo == "auto" {
		cfg.OutputVideo = autoVideoPath(s.Title)
	}

	var enc video.Encoder
	if cfg.OutputVideo != "" {
		codec := cfg.VideoEncoder
		if codec == "" {
			codec = system.GetBestH264Encoder()
			if codec != system.SoftwareEncoder {
				fmt.Printf("[*] Hardware acceleration detected: %s\n", codec)
			}
		}
		quality := cfg.Quality
		if quality == 0 {
			quality = video.DefaultQuality(codec)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
			return fmt.Errorf("create video dir: %w", err)
		}
		enc = &video.FFmpegEncoder{Binary: "ffmpeg", Codec: codec, Quality: quality}
	}

	var n notify.Notifier = notify.Nop{}
	if cfg.MQTT.Broker != "" {
		m, err := notify.NewMQTT(cfg.MQTT)
		if err != nil {
			log.Printf("[!] MQTT disabled: %v", err)
		} else {
			fmt.Printf("[*] Publishing job status to %s (%s)\n", cfg.MQTT.Broker, cfg.MQTT.Topic)
			n = m
		}
	}
	jobs := job.NewManager(n)
	defer jobs.Close()

	r := engine.NewRenderer(cfg, enc)
	id, err := jobs.Submit(ctx, func(ctx context.Context, progress func(done, total int)) (job.Output, error) {
		r.Progress = func(done, total int) {
			progress(done, total)
			if done%cfg.FPS == 0 || done == total {
				fmt.Printf("[>] Ready: %d/%d\n", done, total)
			}
		}
		res, err := r.Render(ctx, s, chars)
		if err != nil {
			return job.Output{}, err
		}
		return job.Output{Frames: res.Frames, Video: res.Video}, nil
	})
	if err != nil {
		return err
	}

	j, err := jobs.Wait(ctx, id)
	if err != nil {
		return err
	}
	if j.Status != job.Done {
		return fmt.Errorf("job %s: %s", j.ID, j.Message)
	}

	fmt.Printf("[+++] %s: %d frames in %s\n", j.Message, len(j.Frames), cfg.OutputDir)
	if j.Video != "" {
		fmt.Printf("[+++] Video: %s\n", j.Video)
	}
	return nil
}

// titleReplacer keeps a story title inside a single file name
var titleReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// autoVideoPath names the video after the story title and the current time
func autoVideoPath(title string) string {
	clean := titleReplacer.Replace(strings.TrimSpace(title))
	if clean == "" {
		clean = "story"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", clean, timestamp))
}
