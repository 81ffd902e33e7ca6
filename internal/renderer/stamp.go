package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const stampMargin = 8

// StampLabel formats the text written by Stamp for one frame
func StampLabel(sceneIndex, frameIndex int, t float64) string {
	return fmt.Sprintf("scene=%d frame=%06d t=%.3f", sceneIndex, frameIndex, t)
}

// Stamp writes a debug label onto the canvas: the text in the top-left corner
// and the same text as a QR code in the bottom-right corner, so encoded video
// can be checked frame by frame.
func Stamp(canvas *image.RGBA, label string) error {
	cb := canvas.Bounds()

	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()
	box := image.Rect(0, 0, textW+2*stampMargin, face.Height+stampMargin).Add(cb.Min)
	draw.Draw(canvas, box, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, A: 255}),
		Face: face,
		Dot:  fixed.P(cb.Min.X+stampMargin, cb.Min.Y+face.Ascent+stampMargin/2),
	}
	d.DrawString(label)

	qr, err := qrcode.New(label, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	size := cb.Dx()
	if cb.Dy() < size {
		size = cb.Dy()
	}
	size /= 5
	code := qr.Image(size)
	qb := code.Bounds()
	at := image.Pt(cb.Max.X-qb.Dx()-stampMargin, cb.Max.Y-qb.Dy()-stampMargin)
	draw.Draw(canvas, qb.Sub(qb.Min).Add(at), code, qb.Min, draw.Src)
	return nil
}
