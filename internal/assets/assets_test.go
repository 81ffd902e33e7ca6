package assets

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/story2video/internal/story"
)

func TestWriteSampleAssetsAndDiscover(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")

	written, err := WriteSampleAssets(dir)
	require.NoError(t, err)
	require.Len(t, written, 2)

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, written, found)
	assert.Equal(t, []string{"alice", "bob"}, Names(found))

	sprites, err := LoadSprites(found)
	require.NoError(t, err)
	require.Len(t, sprites, 2)

	alice := sprites["alice"]
	assert.Equal(t, 512, alice.Bounds().Dx())
	assert.Equal(t, 512, alice.Bounds().Dy())
	assert.Equal(t, color.RGBA{R: 255, G: 80, B: 80, A: 255}, alice.RGBAAt(256, 256))
	assert.Equal(t, color.RGBA{}, alice.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, alice.RGBAAt(40, 40))
	assert.Equal(t, color.RGBA{R: 80, G: 160, B: 255, A: 255}, sprites["bob"].RGBAAt(256, 40))
}

func TestDiscoverSkipsNonPNG(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteSampleAssets(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0755))

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDiscoverErrors(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	_, err = Discover(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoAssets))
}

func TestLoadSpritesFailsOnMissingFile(t *testing.T) {
	_, err := LoadSprites([]story.CharacterAsset{{Name: "ghost", ImagePath: filepath.Join(t.TempDir(), "ghost.png")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoadSpritesFailsOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := LoadSprites([]story.CharacterAsset{{Name: "bad", ImagePath: path}})
	assert.Error(t, err)
}
