package txd

import (
	"fmt"
	"image"
	"image/draw"
)

// transparentAlphaLimit is the alpha below which a pixel counts as transparent.
const transparentAlphaLimit = 253

// RasterImage is a named RGBA8 image, row-major and top-down.
type RasterImage struct {
	Name   string
	Pix    []byte
	Width  int
	Height int
}

// Source is one texture handed to Build. AlphaRequired selects DXT3 over DXT1.
type Source struct {
	Image         *RasterImage
	AlphaRequired bool
}

// NewRasterImage converts img into a non-premultiplied RGBA8 raster.
func NewRasterImage(name string, img image.Image) *RasterImage {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	return &RasterImage{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// validate checks that the pixel buffer covers the declared dimensions.
func (r *RasterImage) validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrInvalidImage)
	}
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %q: %dx%d", ErrInvalidImage, r.Name, r.Width, r.Height)
	}
	if len(r.Pix) < r.Width*r.Height*4 {
		return fmt.Errorf("%w: %q: %d bytes for %dx%d", ErrInvalidImage, r.Name, len(r.Pix), r.Width, r.Height)
	}

	return nil
}

// flipped returns a bottom-up copy of the pixels.
func (r *RasterImage) flipped() []byte {
	stride := r.Width * 4
	out := make([]byte, stride*r.Height)
	for y := 0; y < r.Height; y++ {
		src := r.Pix[y*stride : (y+1)*stride]
		copy(out[(r.Height-1-y)*stride:], src)
	}

	return out
}

// NRGBA wraps the pixels as an image without copying.
func (r *RasterImage) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// HasTransparentPixels reports whether any pixel has alpha below 253 (0.99).
func HasTransparentPixels(r *RasterImage) bool {
	if r == nil {
		return false
	}
	n := r.Width * r.Height * 4
	if n > len(r.Pix) {
		n = len(r.Pix) &^ 3
	}
	for i := 3; i < n; i += 4 {
		if r.Pix[i] < transparentAlphaLimit {
			return true
		}
	}

	return false
}
