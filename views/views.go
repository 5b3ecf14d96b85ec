// Package views loads the six side photographs of an object.
package views

import "encoding/base64"

// Side identifies one of the six photographed sides.
type Side string

const (
	SideFront  Side = "front"
	SideBack   Side = "back"
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Order returns the sides in their canonical order. Prompt assembly and
// metadata both follow this order, so identical inputs always produce
// an identical request.
func Order() []Side {
	return []Side{SideFront, SideBack, SideLeft, SideRight, SideTop, SideBottom}
}

// Format is an image format accepted by the vision model.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
)

// MediaType returns the MIME type for the format.
func (f Format) MediaType() string {
	return "image/" + string(f)
}

// SideImage is one loaded side photograph.
type SideImage struct {
	Side     Side
	Path     string
	Format   Format
	Data     []byte
	FileSize int64
}

// Base64 returns the raw bytes encoded for the wire.
func (s SideImage) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// Set holds all six side images. A Set is only ever constructed
// complete; partial sets never exist.
type Set struct {
	images map[Side]SideImage
}

// Images returns the six images in canonical order.
func (s *Set) Images() []SideImage {
	out := make([]SideImage, 0, len(s.images))
	for _, side := range Order() {
		out = append(out, s.images[side])
	}
	return out
}

// Get returns the image for one side.
func (s *Set) Get(side Side) SideImage {
	return s.images[side]
}

// Paths returns the source path of every side, keyed by side name.
func (s *Set) Paths() map[string]string {
	out := make(map[string]string, len(s.images))
	for side, img := range s.images {
		out[string(side)] = img.Path
	}
	return out
}
