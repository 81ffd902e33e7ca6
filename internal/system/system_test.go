package system

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{"videotoolbox first", " V....D h264_nvenc\n V....D h264_videotoolbox\n", "h264_videotoolbox"},
		{"nvenc", " V....D libx264\n V....D h264_nvenc\n", "h264_nvenc"},
		{"software fallback", " V....D libx264\n", SoftwareEncoder},
		{"empty", "", SoftwareEncoder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickEncoder(tt.listing))
		})
	}
}

func TestCanvasPool(t *testing.T) {
	p := NewCanvasPool(64, 32)

	a := p.Get()
	assert.Equal(t, image.Rect(0, 0, 64, 32), a.Bounds())

	b := p.Get()
	assert.NotSame(t, a, b)

	p.Put(a)
	p.Put(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	p.Put(nil)

	c := p.Get()
	assert.Equal(t, image.Rect(0, 0, 64, 32), c.Bounds())
}

func TestHostStats(t *testing.T) {
	s := ReadHostStats()
	assert.GreaterOrEqual(t, s.CPUs, 1)
	assert.Contains(t, s.String(), "cpus=")
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
