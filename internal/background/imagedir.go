package background

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ivlev/story2video/internal/story"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

type frameKey struct {
	index, width, height int
}

// ImageDir cycles through the images of a directory, one per scene
type ImageDir struct {
	dir   string
	paths []string

	mu    sync.Mutex
	cache map[frameKey]image.Image
}

// NewImageDir scans dir once. A missing directory is created and yields
// neutral frames.
func NewImageDir(dir string) (*ImageDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create background dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read background dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return &ImageDir{dir: dir, paths: paths, cache: make(map[frameKey]image.Image)}, nil
}

// Len returns the number of usable images
func (d *ImageDir) Len() int {
	return len(d.paths)
}

func (d *ImageDir) Frame(sceneIndex int, _ float64, width, height int, _ *story.Scene) image.Image {
	if len(d.paths) == 0 {
		return Flat(width, height, Neutral)
	}
	key := frameKey{wrap(sceneIndex, len(d.paths)), width, height}

	d.mu.Lock()
	defer d.mu.Unlock()
	if img, ok := d.cache[key]; ok {
		return img
	}

	src, err := decodeFile(d.paths[key.index])
	if err != nil {
		log.Printf("[!] Background %s: %v", d.paths[key.index], err)
		img := Flat(width, height, Neutral)
		d.cache[key] = img
		return img
	}
	img := Cover(src, width, height)
	d.cache[key] = img
	return img
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
