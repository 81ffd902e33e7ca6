package background

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"

	"github.com/ivlev/story2video/internal/story"
)

// Neutral is the flat color used when a provider has nothing to show
var Neutral = color.RGBA{R: 32, G: 32, B: 32, A: 255}

// Provider produces the background for one frame. Frame is called from
// several workers at once and must return an image of exactly width×height
// that the caller treats as read-only.
type Provider interface {
	Frame(sceneIndex int, t float64, width, height int, scene *story.Scene) image.Image
}

// Close releases provider resources if it holds any
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Flat returns a width×height image filled with c
func Flat(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// wrap maps a scene index onto [0, n)
func wrap(i, n int) int {
	return ((i % n) + n) % n
}
