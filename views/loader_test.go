package views

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/meshgen/types"
)

func writeImage(t *testing.T, path string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(f, img, nil))
	case ".gif":
		require.NoError(t, gif.Encode(f, img, nil))
	default:
		t.Fatalf("unsupported test image extension: %s", path)
	}
	return path
}

func sidePaths(t *testing.T, dir string) map[Side]string {
	t.Helper()
	paths := make(map[Side]string)
	for _, side := range Order() {
		paths[side] = writeImage(t, filepath.Join(dir, string(side)+".png"))
	}
	return paths
}

func TestLoad_AllSides(t *testing.T) {
	dir := t.TempDir()
	paths := sidePaths(t, dir)

	set, err := Load(paths)
	require.NoError(t, err)

	images := set.Images()
	require.Len(t, images, 6)
	for i, side := range Order() {
		assert.Equal(t, side, images[i].Side)
		assert.Equal(t, FormatPNG, images[i].Format)
		assert.Equal(t, paths[side], images[i].Path)
		assert.NotEmpty(t, images[i].Base64())
		assert.Positive(t, images[i].FileSize)
	}
	assert.Equal(t, paths[SideFront], set.Paths()["front"])
}

func TestLoad_SameFileForEverySide(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, filepath.Join(dir, "only.jpeg"))

	paths := make(map[Side]string)
	for _, side := range Order() {
		paths[side] = path
	}

	set, err := Load(paths)
	require.NoError(t, err)
	assert.Len(t, set.Images(), 6)
	assert.Equal(t, FormatJPEG, set.Get(SideBottom).Format)
}

func TestLoad_MissingSide(t *testing.T) {
	dir := t.TempDir()
	paths := sidePaths(t, dir)
	delete(paths, SideTop)

	_, err := Load(paths)
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingInput, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "top")
}

func TestLoad_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	paths := sidePaths(t, dir)
	paths[SideLeft] = filepath.Join(dir, "does-not-exist.png")

	_, err := Load(paths)
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingInput, types.GetErrorCode(err))
}

func TestLoad_RejectsBadBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty file", data: nil},
		{name: "not an image", data: []byte("six sides of plain text, no pixels")},
		{name: "png magic only", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := sidePaths(t, dir)
			bad := filepath.Join(dir, "bad.png")
			require.NoError(t, os.WriteFile(bad, tt.data, 0o644))
			paths[SideFront] = bad

			_, err := Load(paths)
			require.Error(t, err)
			assert.Equal(t, types.ErrUnsupportedFormat, types.GetErrorCode(err))
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "pos_x.jpeg"))
	writeImage(t, filepath.Join(dir, "neg_x.jpg"))
	writeImage(t, filepath.Join(dir, "pos_y.png"))
	writeImage(t, filepath.Join(dir, "neg_y.jpeg"))
	writeImage(t, filepath.Join(dir, "pos_z.png"))
	writeImage(t, filepath.Join(dir, "neg_z.jpeg"))

	set, err := LoadDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "pos_x.jpeg"), set.Get(SideRight).Path)
	assert.Equal(t, filepath.Join(dir, "neg_x.jpg"), set.Get(SideLeft).Path)
	assert.Equal(t, filepath.Join(dir, "pos_y.png"), set.Get(SideTop).Path)
	assert.Equal(t, filepath.Join(dir, "neg_y.jpeg"), set.Get(SideBottom).Path)
	assert.Equal(t, filepath.Join(dir, "pos_z.png"), set.Get(SideFront).Path)
	assert.Equal(t, filepath.Join(dir, "neg_z.jpeg"), set.Get(SideBack).Path)
}

func TestLoadDirectory_MissingView(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "pos_x.jpeg"))

	_, err := LoadDirectory(dir)
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingInput, types.GetErrorCode(err))
}

func TestSniffFormat(t *testing.T) {
	webp := []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'}

	tests := []struct {
		name   string
		data   []byte
		want   Format
		wantOK bool
	}{
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, want: FormatPNG, wantOK: true},
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, want: FormatJPEG, wantOK: true},
		{name: "gif", data: []byte("GIF89a\x00\x00"), want: FormatGIF, wantOK: true},
		{name: "webp", data: webp, want: FormatWebP, wantOK: true},
		{name: "unknown", data: []byte("BM000000"), wantOK: false},
		{name: "too short", data: []byte{0x89, 0x50}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sniffFormat(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, "image/"+string(tt.want), got.MediaType())
			}
		})
	}
}
