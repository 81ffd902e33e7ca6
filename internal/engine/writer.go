package engine

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
)

var pngEncoder = &png.Encoder{CompressionLevel: png.BestSpeed}

// writePNG encodes img next to path and renames it into place, so a reader
// never sees a partly written frame.
func writePNG(path string, img image.Image) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.png")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err = pngEncoder.Encode(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
