package txd

import (
	"fmt"

	"github.com/woozymasta/bcn"
)

// MipLevel is one compressed mip level.
type MipLevel struct {
	Data   []byte
	Width  int
	Height int
}

// TextureNative is one D3D9 texture entry of a dictionary.
type TextureNative struct {
	Name    string
	Mipmaps []MipLevel
	Format  bcn.Format
	Width   int
	Height  int
}

// Depth returns the bit depth stored for the native's format.
func (t *TextureNative) Depth() int {
	info, err := nativeFormatInfo(t.Format)
	if err != nil {
		return 0
	}

	return int(info.Depth)
}

// Dictionary is an ordered list of texture natives.
type Dictionary struct {
	Natives []*TextureNative
}

// CompressTexture runs the built-in pipeline for one image: flip to
// bottom-up, build the mip chain and block compress every level.
func CompressTexture(img *RasterImage, format bcn.Format) (*TextureNative, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	return compressPixels(img.Name, img.flipped(), img.Width, img.Height, format)
}

// compressPixels compresses an already flipped pixel snapshot.
func compressPixels(name string, pix []byte, width, height int, format bcn.Format) (*TextureNative, error) {
	if formatBlockSize(format) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	chain := BuildMipChain(pix, width, height)
	native := &TextureNative{
		Name:    name,
		Format:  format,
		Width:   chain[0].Width,
		Height:  chain[0].Height,
		Mipmaps: make([]MipLevel, 0, len(chain)),
	}
	for i, level := range chain {
		data, err := EncodeLevel(level.Pix, level.Width, level.Height, format)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: mipmap %d: %v", ErrCompressTexture, name, i, err)
		}
		native.Mipmaps = append(native.Mipmaps, MipLevel{Data: data, Width: level.Width, Height: level.Height})
	}

	return native, nil
}

// validate checks format, dimensions and mip payload sizes.
func (t *TextureNative) validate() error {
	if len(t.Mipmaps) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyMipmaps, t.Name)
	}
	if formatBlockSize(t.Format) == 0 {
		return fmt.Errorf("%w: %q: %s", ErrInvalidFormat, t.Name, t.Format)
	}

	for i, mip := range t.Mipmaps {
		expected := expectedDataLength(t.Format, mip.Width, mip.Height)
		if len(mip.Data) != expected {
			return fmt.Errorf("%w: %q: mipmap %d: expected %d, got %d", ErrMipmapSizeMismatch, t.Name, i, expected, len(mip.Data))
		}
	}

	return nil
}
