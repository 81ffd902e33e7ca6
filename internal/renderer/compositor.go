package renderer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// minRotation is the smallest rotation, in degrees, that is actually applied
const minRotation = 0.001

// Composite draws sprite onto canvas at the given pose and returns canvas.
// The sprite is scaled, rotated about its center and faded on a private copy;
// the shared source is only read.
func Composite(canvas *image.RGBA, sprite *image.RGBA, pose Pose) *image.RGBA {
	sp := TransformSprite(sprite, pose)

	cb := canvas.Bounds()
	w, h := sp.Bounds().Dx(), sp.Bounds().Dy()
	px := int(math.Floor(pose.X*float64(cb.Dx()) - float64(w)/2))
	py := int(math.Floor(pose.Y*float64(cb.Dy()) - float64(h)/2))

	// draw clips the destination rectangle to the canvas
	dst := image.Rect(px, py, px+w, py+h).Add(cb.Min)
	draw.Draw(canvas, dst, sp, sp.Bounds().Min, draw.Over)
	return canvas
}

// TransformSprite returns a new image holding sprite after the scale,
// rotation and opacity of pose have been applied, in that order.
func TransformSprite(sprite *image.RGBA, pose Pose) *image.RGBA {
	sp := scaleSprite(sprite, pose.Scale)
	if math.Abs(pose.RotationDeg) > minRotation {
		sp = rotateSprite(sp, pose.RotationDeg)
	}
	if pose.Opacity < 1.0 {
		fade(sp, pose.Opacity)
	}
	return sp
}

// scaleSprite resamples src to floor(size*scale), at least one pixel per side
func scaleSprite(src *image.RGBA, scale float64) *image.RGBA {
	sb := src.Bounds()
	w := int(math.Floor(float64(sb.Dx()) * scale))
	h := int(math.Floor(float64(sb.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// rotateSprite rotates src counter-clockwise by deg degrees about its center.
// The result is large enough to hold every corner of the rotated image.
func rotateSprite(src *image.RGBA, deg float64) *image.RGBA {
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())

	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)

	// Bounding box of the rotated rectangle; rounding noise is trimmed so that
	// right angles do not grow by a pixel.
	bw := math.Abs(sw*cos) + math.Abs(sh*sin)
	bh := math.Abs(sw*sin) + math.Abs(sh*cos)
	dw := int(math.Ceil(bw - 1e-9))
	dh := int(math.Ceil(bh - 1e-9))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	// Source to destination: move source center to origin, rotate, move to
	// destination center. With y pointing down, a visual counter-clockwise
	// turn is x' = x·cos + y·sin, y' = -x·sin + y·cos.
	scx := float64(sb.Min.X) + sw/2
	scy := float64(sb.Min.Y) + sh/2
	dcx, dcy := float64(dw)/2, float64(dh)/2
	s2d := f64.Aff3{
		cos, sin, dcx - (cos*scx + sin*scy),
		-sin, cos, dcy - (-sin*scx + cos*scy),
	}

	draw.BiLinear.Transform(dst, s2d, src, sb, draw.Over, nil)
	return dst
}

// fade multiplies the alpha of every pixel by opacity. Pixels are stored
// premultiplied, so the color channels scale with it.
func fade(img *image.RGBA, opacity float64) {
	if opacity < 0 {
		opacity = 0
	}
	for i := range img.Pix {
		img.Pix[i] = uint8(float64(img.Pix[i]) * opacity)
	}
}
