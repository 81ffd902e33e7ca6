package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		enc     FFmpegEncoder
		quality []string
	}{
		{"default codec", FFmpegEncoder{}, []string{"-c:v", "libx264", "-crf", "23", "-preset", "medium"}},
		{"nvenc", FFmpegEncoder{Codec: "h264_nvenc", Quality: 30}, []string{"-c:v", "h264_nvenc", "-cq", "30"}},
		{"videotoolbox", FFmpegEncoder{Codec: "h264_videotoolbox"}, []string{"-c:v", "h264_videotoolbox", "-b:v", "7500k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.enc.buildArgs(64, 48, 24, "out.mp4")
			assert.Equal(t, "-y", args[0])
			assert.Subset(t, args, []string{"-video_size", "64x48", "-framerate", "24"})
			assert.Equal(t, "out.mp4", args[len(args)-1])

			tail := args[len(args)-1-len(tt.quality) : len(args)-1]
			assert.Equal(t, tt.quality, tail)
		})
	}
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 2, 4, 3))
	img.SetNRGBA(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, img))
	assert.Equal(t, []byte{10, 20, 30, 255, 1, 2, 3, 255}, buf.Bytes())
}

func TestEncodeFramesErrors(t *testing.T) {
	enc := &FFmpegEncoder{}
	err := enc.EncodeFrames(context.Background(), nil, "out.mp4", 24)
	assert.True(t, errors.Is(err, ErrNoFrames))

	err = enc.EncodeFrames(context.Background(), []string{filepath.Join(t.TempDir(), "missing.png")}, "out.mp4", 24)
	assert.Error(t, err)
}

func TestEncodeFramesMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame_000000.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	enc := &FFmpegEncoder{Binary: filepath.Join(t.TempDir(), "no-such-ffmpeg")}
	err = enc.EncodeFrames(context.Background(), []string{path}, filepath.Join(t.TempDir(), "out.mp4"), 24)
	assert.Error(t, err)
}
