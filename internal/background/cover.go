package background

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Cover scales src so it fills width×height while keeping its aspect ratio,
// then crops the overflow evenly from both sides. Transparent areas of src
// end up black; the result is opaque.
func Cover(src image.Image, width, height int) *image.RGBA {
	dst := Flat(width, height, color.RGBA{A: 255})
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}

	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	scale := math.Max(float64(width)/sw, float64(height)/sh)
	nw := int(math.Round(sw * scale))
	nh := int(math.Round(sh * scale))
	if nw < width {
		nw = width
	}
	if nh < height {
		nh = height
	}

	// Scale into a rectangle centered over dst; Scale clips it to dst bounds
	left := (nw - width) / 2
	top := (nh - height) / 2
	dr := image.Rect(-left, -top, nw-left, nh-top)
	draw.CatmullRom.Scale(dst, dr, src, sb, draw.Over, nil)
	return dst
}
