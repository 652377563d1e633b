package txd

import (
	"fmt"

	"github.com/woozymasta/bcn"
)

// RenderWare raster constants for D3D9 texture natives.
const (
	platformD3D9 = 9

	rasterFormat565  = 0x0200
	rasterFormat8888 = 0x0500
	rasterMipmap     = 0x8000

	rasterTypeTexture = 4

	filterLinear = 0x02
	addressWrap  = 0x01

	d3dFormatDXT1 = 0x08
	d3dFormatDXT3 = 0x09
)

// formatInfo describes how a block format is stored in a texture native.
type formatInfo struct {
	FourCC       [4]byte
	RasterFormat uint32
	Depth        uint8
	D3DFormat    uint8
}

func nativeFormatInfo(format bcn.Format) (formatInfo, error) {
	switch format {
	case bcn.FormatDXT1:
		return formatInfo{
			FourCC:       [4]byte{'D', 'X', 'T', '1'},
			RasterFormat: rasterFormat565 | rasterMipmap,
			Depth:        16,
			D3DFormat:    d3dFormatDXT1,
		}, nil
	case bcn.FormatDXT3:
		return formatInfo{
			FourCC:       [4]byte{'D', 'X', 'T', '3'},
			RasterFormat: rasterFormat8888 | rasterMipmap,
			Depth:        32,
			D3DFormat:    d3dFormatDXT3,
		}, nil
	default:
		return formatInfo{}, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

// formatFromFourCC maps a native fourCC back to its block format.
func formatFromFourCC(fourCC [4]byte) bcn.Format {
	switch string(fourCC[:]) {
	case "DXT1":
		return bcn.FormatDXT1
	case "DXT3":
		return bcn.FormatDXT3
	default:
		return bcn.FormatUnknown
	}
}

// filterFlags packs linear filtering with wrap addressing on U and V.
func filterFlags() uint32 {
	return filterLinear | addressWrap<<8 | addressWrap<<12
}

func detectFormat(header *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) (bcn.Format, string) {
	if dx10 != nil {
		format := mapDxgiFormat(dx10.DXGIFormat)
		return format, fmt.Sprintf("DXGI %d", dx10.DXGIFormat)
	}

	pf := header.PixelFormat
	if (pf.Flags & bcn.DDSPFFourCC) != 0 {
		fourCCStr := intToFourCC(pf.FourCC)
		switch fourCCStr {
		case "DXT1":
			return bcn.FormatDXT1, fourCCStr
		case "DXT2", "DXT3":
			return bcn.FormatDXT3, fourCCStr
		default:
			return bcn.FormatUnknown, fourCCStr
		}
	}

	return bcn.FormatUnknown, "UNKNOWN"
}

func mapDxgiFormat(dxgiFormat uint32) bcn.Format {
	switch dxgiFormat {
	case 71, 72: // BC1_UNORM, BC1_UNORM_SRGB
		return bcn.FormatDXT1
	case 74, 75: // BC2_UNORM, BC2_UNORM_SRGB
		return bcn.FormatDXT3
	default:
		return bcn.FormatUnknown
	}
}

func intToFourCC(value uint32) string {
	return string([]byte{
		byte(value & 0xff),
		byte((value >> 8) & 0xff),
		byte((value >> 16) & 0xff),
		byte((value >> 24) & 0xff),
	})
}

func makeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

func formatBlockSize(format bcn.Format) int {
	switch format {
	case bcn.FormatDXT1:
		return 8
	case bcn.FormatDXT3:
		return 16
	default:
		return 0
	}
}

// expectedDataLength returns the payload size of one level, -1 for
// unsupported formats.
func expectedDataLength(format bcn.Format, width, height int) int {
	blockSize := formatBlockSize(format)
	if blockSize == 0 {
		return -1
	}

	blocksW := max(1, (width+3)/4)
	blocksH := max(1, (height+3)/4)
	return blocksW * blocksH * blockSize
}

func enfusionReserved1() [11]uint32 {
	return [11]uint32{
		0,
		0x31464e45, // "ENF1"
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
}

// makeDDSHeader builds a DDS header for a DXT1 or DXT3 mip chain.
// enfusion tags the header the way EDDS readers expect.
func makeDDSHeader(width, height, mipMapCount uint32, format bcn.Format, enfusion bool) (*bcn.DDSHeader, error) {
	flags := uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat | bcn.DDSFlagLinearSize)
	caps := uint32(bcn.DDSCapsTexture)
	if mipMapCount > 1 {
		flags |= bcn.DDSFlagMipmapCount
		caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: mipMapCount,
		Caps:        caps,
	}
	if enfusion {
		hdr.Reserved1 = enfusionReserved1()
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	hdr.PixelFormat.Flags = bcn.DDSPFFourCC

	switch format {
	case bcn.FormatDXT1:
		hdr.PixelFormat.FourCC = makeFourCC('D', 'X', 'T', '1')
	case bcn.FormatDXT3:
		hdr.PixelFormat.FourCC = makeFourCC('D', 'X', 'T', '3')
	default:
		return nil, ErrInvalidFormat
	}

	linearSize := expectedDataLength(format, int(width), int(height))
	size, err := u32FromInt(linearSize)
	if err != nil {
		return nil, err
	}
	hdr.PitchOrLinearSize = size

	return hdr, nil
}
