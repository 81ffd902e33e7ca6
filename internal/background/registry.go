package background

import (
	"errors"
	"fmt"
)

const (
	SelectorGradient = "gradient"
	SelectorImageDir = "image_dir"
	SelectorPDF      = "pdf"

	defaultDir = "./backgrounds"
	defaultDPI = 150
)

var ErrUnknownProvider = errors.New("unknown background provider")

// Options carries the provider specific parameters
type Options struct {
	Dir     string // image_dir: directory with background images
	PDFPath string // pdf: document whose pages are used as backgrounds
	DPI     int    // pdf: render resolution
}

// Selectors lists the accepted provider names
func Selectors() []string {
	return []string{SelectorGradient, SelectorImageDir, SelectorPDF}
}

// New creates a provider based on the specified selector
func New(selector string, opts Options) (Provider, error) {
	switch selector {
	case SelectorGradient:
		return NewGradient(), nil
	case SelectorImageDir:
		dir := opts.Dir
		if dir == "" {
			dir = defaultDir
		}
		return NewImageDir(dir)
	case SelectorPDF:
		if opts.PDFPath == "" {
			return nil, fmt.Errorf("pdf background requires a document path")
		}
		dpi := opts.DPI
		if dpi <= 0 {
			dpi = defaultDPI
		}
		return NewPDF(opts.PDFPath, dpi)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, selector)
	}
}
