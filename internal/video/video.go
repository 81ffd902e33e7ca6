package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"os/exec"
	"strconv"

	"golang.org/x/image/draw"
)

var ErrNoFrames = errors.New("no frames to encode")

// Encoder turns an ordered list of frame images into a video file
type Encoder interface {
	EncodeFrames(ctx context.Context, framePaths []string, outputPath string, fps int) error
}

// FFmpegEncoder pipes decoded frames to an ffmpeg subprocess as raw RGBA
type FFmpegEncoder struct {
	Binary  string // default "ffmpeg"
	Codec   string // default libx264
	Quality int    // CRF for libx264, CQ for nvenc, Q*100 kbit/s for videotoolbox
}

// DefaultQuality returns a sensible quality setting for codec
func DefaultQuality(codec string) int {
	switch codec {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func (e *FFmpegEncoder) EncodeFrames(ctx context.Context, framePaths []string, outputPath string, fps int) error {
	if len(framePaths) == 0 {
		return ErrNoFrames
	}

	first, err := decodeFrame(framePaths[0])
	if err != nil {
		return err
	}
	size := first.Bounds().Size()

	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, e.buildArgs(size.X, size.Y, fps, outputPath)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	writeErr := e.writeFrames(ctx, stdin, first, framePaths, size)
	stdin.Close()
	waitErr := cmd.Wait()

	if writeErr != nil {
		return fmt.Errorf("write raw error: %w", writeErr)
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", waitErr, out.String())
	}
	return nil
}

func (e *FFmpegEncoder) writeFrames(ctx context.Context, w io.Writer, first image.Image, framePaths []string, size image.Point) error {
	if err := writeRawRGBA(w, first); err != nil {
		return err
	}
	for _, p := range framePaths[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := decodeFrame(p)
		if err != nil {
			return err
		}
		if img.Bounds().Size() != size {
			return fmt.Errorf("frame %s is %v, expected %v", p, img.Bounds().Size(), size)
		}
		if err := writeRawRGBA(w, img); err != nil {
			return err
		}
	}
	return nil
}

func (e *FFmpegEncoder) buildArgs(width, height, fps int, outputPath string) []string {
	codec := e.Codec
	if codec == "" {
		codec = "libx264"
	}
	quality := e.Quality
	if quality <= 0 {
		quality = DefaultQuality(codec)
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "-",
		// yuv420p needs even dimensions
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", codec,
	}

	switch codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", strconv.Itoa(quality))
	default: // libx264
		args = append(args, "-crf", strconv.Itoa(quality), "-preset", "medium")
	}

	return append(args, outputPath)
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
