package background

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ivlev/story2video/internal/story"
)

// palette holds the base colors, picked per scene
var palette = []colorful.Color{
	rgb(30, 30, 60),
	rgb(20, 60, 90),
	rgb(60, 20, 80),
	rgb(10, 90, 80),
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Gradient renders a vertical two-color gradient. Colors depend on the scene
// index and drift with the fractional second of scene time.
type Gradient struct{}

func NewGradient() *Gradient {
	return &Gradient{}
}

func (g *Gradient) Frame(sceneIndex int, t float64, width, height int, _ *story.Scene) image.Image {
	c1 := palette[wrap(sceneIndex, len(palette))]
	c2 := palette[wrap(sceneIndex+1, len(palette))]

	frac := math.Mod(t, 1.0)
	if frac < 0 {
		frac += 1.0
	}
	alpha := 0.5 + 0.5*frac
	top := c1.BlendRgb(c2, alpha)
	bottom := c2.BlendRgb(c1, alpha)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	denom := math.Max(1, float64(height-1))
	for y := 0; y < height; y++ {
		r, gr, b := top.BlendRgb(bottom, float64(y)/denom).RGB255()
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < len(row); x += 4 {
			row[x+0] = r
			row[x+1] = gr
			row[x+2] = b
			row[x+3] = 0xff
		}
	}
	return img
}
