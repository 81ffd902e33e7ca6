package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/ivlev/story2video/internal/story"
)

const sampleSize = 512

// samples are the placeholder characters written by WriteSampleAssets
var samples = []struct {
	name  string
	color color.RGBA
}{
	{"alice", color.RGBA{R: 255, G: 80, B: 80, A: 255}},
	{"bob", color.RGBA{R: 80, G: 160, B: 255, A: 255}},
}

// WriteSampleAssets writes two placeholder sprites, a filled circle each on a
// transparent square, into dir.
func WriteSampleAssets(dir string) ([]story.CharacterAsset, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}

	var out []story.CharacterAsset
	for _, s := range samples {
		path := filepath.Join(dir, s.name+".png")
		if err := writePNG(path, circle(sampleSize, image.Rect(32, 32, 480, 480), s.color)); err != nil {
			return nil, err
		}
		out = append(out, story.CharacterAsset{Name: s.name, ImagePath: path})
	}
	return out, nil
}

// circle draws an ellipse filling bounds on a transparent size×size image
func circle(size int, bounds image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx := float64(bounds.Min.X+bounds.Max.X) / 2
	cy := float64(bounds.Min.Y+bounds.Max.Y) / 2
	rx := float64(bounds.Dx()) / 2
	ry := float64(bounds.Dy()) / 2

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			dy := (float64(y) + 0.5 - cy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
