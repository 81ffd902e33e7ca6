package background

import (
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/story2video/internal/story"
)

// PDF uses the pages of a document as scene backgrounds. Pages are rendered
// on first use and cached; fitz documents are not safe for concurrent use so
// every access goes through mu.
type PDF struct {
	path  string
	dpi   int
	pages int

	mu    sync.Mutex
	doc   *fitz.Document
	cache map[frameKey]image.Image
}

func NewPDF(path string, dpi int) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &PDF{
		path:  path,
		dpi:   dpi,
		pages: doc.NumPage(),
		doc:   doc,
		cache: make(map[frameKey]image.Image),
	}, nil
}

// PageCount returns the number of pages in the document
func (p *PDF) PageCount() int {
	return p.pages
}

func (p *PDF) Frame(sceneIndex int, _ float64, width, height int, _ *story.Scene) image.Image {
	if p.pages == 0 {
		return Flat(width, height, Neutral)
	}
	key := frameKey{wrap(sceneIndex, p.pages), width, height}

	p.mu.Lock()
	defer p.mu.Unlock()
	if img, ok := p.cache[key]; ok {
		return img
	}

	page, err := p.doc.ImageDPI(key.index, float64(p.dpi))
	if err != nil {
		log.Printf("[!] Page %d of %s: %v", key.index, p.path, err)
		img := Flat(width, height, Neutral)
		p.cache[key] = img
		return img
	}
	img := Cover(page, width, height)
	p.cache[key] = img
	return img
}

func (p *PDF) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Close()
}
