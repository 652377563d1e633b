package txd

import (
	"encoding/binary"

	"github.com/woozymasta/bcn"
)

// Block is 16 RGBA8 texels of one 4x4 block in row-major order.
type Block [64]byte

// EncodeBlockDXT1 compresses the RGB channels of b into an 8-byte DXT1 block.
//
// Endpoints are the texels of lowest and highest luma. color0 is kept
// numerically above color1 so decoders use the four-color palette, and the
// palette is built from the quantized endpoints exactly as a decoder sees them.
func EncodeBlockDXT1(b *Block) [8]byte {
	minIdx, maxIdx := 0, 0
	minLum, maxLum := luma(b, 0), luma(b, 0)
	for i := 1; i < 16; i++ {
		l := luma(b, i)
		if l < minLum {
			minLum, minIdx = l, i
		}
		if l > maxLum {
			maxLum, maxIdx = l, i
		}
	}

	color0 := to565(b[maxIdx*4], b[maxIdx*4+1], b[maxIdx*4+2])
	color1 := to565(b[minIdx*4], b[minIdx*4+1], b[minIdx*4+2])
	if color0 < color1 {
		color0, color1 = color1, color0
	}

	var palette [4][3]float64
	palette[0] = from565(color0)
	palette[1] = from565(color1)
	for c := 0; c < 3; c++ {
		palette[2][c] = (2*palette[0][c] + palette[1][c]) / 3
		palette[3][c] = (palette[0][c] + 2*palette[1][c]) / 3
	}

	var indices uint32
	for i := 0; i < 16; i++ {
		r, g, bl := float64(b[i*4]), float64(b[i*4+1]), float64(b[i*4+2])
		best, bestDist := 0, 0.0
		for p := 0; p < 4; p++ {
			dr, dg, db := r-palette[p][0], g-palette[p][1], bl-palette[p][2]
			dist := dr*dr + dg*dg + db*db
			if p == 0 || dist < bestDist {
				best, bestDist = p, dist
			}
		}
		indices |= uint32(best) << (i * 2)
	}

	var out [8]byte
	binary.LittleEndian.PutUint16(out[0:], color0)
	binary.LittleEndian.PutUint16(out[2:], color1)
	binary.LittleEndian.PutUint32(out[4:], indices)
	return out
}

// EncodeBlockDXT3 compresses b into a 16-byte DXT3 block: 4-bit alpha per
// texel (low nibble first) followed by the DXT1 color block.
func EncodeBlockDXT3(b *Block) [16]byte {
	var alpha uint64
	for i := 0; i < 16; i++ {
		alpha |= uint64(quantize(b[i*4+3], 15)) << (i * 4)
	}

	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:], alpha)
	color := EncodeBlockDXT1(b)
	copy(out[8:], color[:])
	return out
}

// EncodeLevel compresses one mip level, padding it to whole blocks first.
func EncodeLevel(pix []byte, width, height int, format bcn.Format) ([]byte, error) {
	blockSize := formatBlockSize(format)
	if blockSize == 0 {
		return nil, ErrInvalidFormat
	}

	pix, pw, ph := padToBlocks(pix, width, height)
	out := make([]byte, 0, (pw/4)*(ph/4)*blockSize)

	var blk Block
	for by := 0; by < ph; by += 4 {
		for bx := 0; bx < pw; bx += 4 {
			for row := 0; row < 4; row++ {
				src := ((by+row)*pw + bx) * 4
				copy(blk[row*16:row*16+16], pix[src:src+16])
			}
			if format == bcn.FormatDXT3 {
				enc := EncodeBlockDXT3(&blk)
				out = append(out, enc[:]...)
			} else {
				enc := EncodeBlockDXT1(&blk)
				out = append(out, enc[:]...)
			}
		}
	}

	return out, nil
}

func luma(b *Block, i int) float64 {
	return float64(b[i*4])*0.299 + float64(b[i*4+1])*0.587 + float64(b[i*4+2])*0.114
}

// quantize maps v in [0,255] to [0,levels] rounding to nearest.
func quantize(v byte, levels int) int {
	q := int(float64(v)/255*float64(levels) + 0.5)
	return min(max(q, 0), levels)
}

func to565(r, g, b byte) uint16 {
	return uint16(quantize(r, 31)<<11 | quantize(g, 63)<<5 | quantize(b, 31))
}

func from565(c uint16) [3]float64 {
	return [3]float64{
		float64((c>>11)&0x1f) * 255 / 31,
		float64((c>>5)&0x3f) * 255 / 63,
		float64(c&0x1f) * 255 / 31,
	}
}
