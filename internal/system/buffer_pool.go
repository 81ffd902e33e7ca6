package system

import (
	"image"
	"sync"
)

// CanvasPool recycles frame canvases of one size to reduce GC pressure. A
// canvas handed out by Get belongs to the caller until it is returned with Put;
// its previous content is undefined.
type CanvasPool struct {
	rect image.Rectangle
	pool sync.Pool
}

func NewCanvasPool(width, height int) *CanvasPool {
	p := &CanvasPool{rect: image.Rect(0, 0, width, height)}
	p.pool.New = func() interface{} {
		return image.NewRGBA(p.rect)
	}
	return p
}

func (p *CanvasPool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// Put returns a canvas. Canvases of another size are dropped.
func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	p.pool.Put(img)
}
