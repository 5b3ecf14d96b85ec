package views

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/BaSui01/meshgen/types"
)

// Load reads all six side images. Every side must map to a readable,
// decodable image file; the same file may back more than one side.
// Nothing is sent anywhere until a Load has fully succeeded.
func Load(paths map[Side]string) (*Set, error) {
	images := make(map[Side]SideImage, len(Order()))
	for _, side := range Order() {
		path, ok := paths[side]
		if !ok || path == "" {
			return nil, types.NewError(types.ErrMissingInput,
				fmt.Sprintf("no %s image given", side))
		}
		img, err := loadSideImage(side, path)
		if err != nil {
			return nil, err
		}
		images[side] = img
	}
	return &Set{images: images}, nil
}

// viewFiles maps the axis-aligned render names used by capture tooling
// to sides: pos_x is the right side, pos_z the front, pos_y the top.
var viewFiles = map[string]Side{
	"pos_x": SideRight,
	"neg_x": SideLeft,
	"pos_y": SideTop,
	"neg_y": SideBottom,
	"pos_z": SideFront,
	"neg_z": SideBack,
}

// LoadDirectory loads a set from a directory of axis-named view files
// (pos_x.jpeg, neg_x.jpeg, ...), trying the extensions .jpeg, .jpg and
// .png for each view.
func LoadDirectory(dir string) (*Set, error) {
	paths := make(map[Side]string, len(viewFiles))
	for name, side := range viewFiles {
		path, err := findViewFile(dir, name)
		if err != nil {
			return nil, err
		}
		paths[side] = path
	}
	return Load(paths)
}

func findViewFile(dir, name string) (string, error) {
	for _, ext := range []string{".jpeg", ".jpg", ".png"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", types.NewError(types.ErrMissingInput,
		fmt.Sprintf("no %s view image in %s", name, dir))
}

func loadSideImage(side Side, path string) (SideImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SideImage{}, types.NewError(types.ErrMissingInput,
			fmt.Sprintf("failed to read %s image %s", side, path)).WithCause(err)
	}

	format, ok := sniffFormat(data)
	if !ok {
		return SideImage{}, types.NewError(types.ErrUnsupportedFormat,
			fmt.Sprintf("%s image %s is not a supported image format", side, path))
	}

	// The header must actually decode; a correct magic number alone is
	// not proof of an image.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return SideImage{}, types.NewError(types.ErrUnsupportedFormat,
			fmt.Sprintf("%s image %s cannot be decoded", side, path)).WithCause(err)
	}

	return SideImage{
		Side:     side,
		Path:     path,
		Format:   format,
		Data:     data,
		FileSize: int64(len(data)),
	}, nil
}

// sniffFormat detects the image format from magic bytes.
func sniffFormat(data []byte) (Format, bool) {
	if len(data) < 8 {
		return "", false
	}

	// PNG magic bytes
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return FormatPNG, true
	}

	// JPEG magic bytes
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return FormatJPEG, true
	}

	// GIF magic bytes
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return FormatGIF, true
	}

	// WebP magic bytes
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return FormatWebP, true
	}

	return "", false
}
