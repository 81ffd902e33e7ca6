package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/story2video/internal/story"
)

var ErrNoAssets = errors.New("no PNG character assets found")

// Sprites maps a character name to its decoded sprite. Sprites are shared by
// all render workers and must not be modified.
type Sprites map[string]*image.RGBA

// LoadSprites decodes every asset once. A missing or unreadable file fails the
// whole load.
func LoadSprites(assets []story.CharacterAsset) (Sprites, error) {
	sprites := make(Sprites, len(assets))
	for _, a := range assets {
		img, err := loadRGBA(a.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("sprite %q: %w", a.Name, err)
		}
		sprites[a.Name] = img
	}
	return sprites, nil
}

func loadRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba, nil
}

// Discover lists the PNG files of dir as character assets named after the
// file stem, sorted by file name.
func Discover(dir string) ([]story.CharacterAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("assets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".png" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAssets, dir)
	}

	out := make([]story.CharacterAsset, 0, len(names))
	for _, n := range names {
		out = append(out, story.CharacterAsset{
			Name:      strings.TrimSuffix(n, filepath.Ext(n)),
			ImagePath: filepath.Join(dir, n),
		})
	}
	return out, nil
}

// Names returns the character names of assets in order
func Names(assets []story.CharacterAsset) []string {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return names
}
