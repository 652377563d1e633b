package txd

// Level is one uncompressed RGBA8 mip level.
type Level struct {
	Pix    []byte
	Width  int
	Height int
}

// BuildMipChain pads pix to whole 4x4 blocks and box-filters it down to 1x1.
// The returned chain always starts at the padded base and ends with exactly
// one 1x1 level. Sides shorter than one block are left as is; they are
// padded per level when encoded.
func BuildMipChain(pix []byte, width, height int) []Level {
	pw, ph := width, height
	if pw >= 4 {
		pw = alignBlock(pw)
	}
	if ph >= 4 {
		ph = alignBlock(ph)
	}
	pix = padTo(pix, width, height, pw, ph)
	width, height = pw, ph

	levels := make([]Level, 0, mipMapCount(width, height))
	cur := Level{Pix: pix, Width: width, Height: height}
	for {
		levels = append(levels, cur)
		if cur.Width == 1 && cur.Height == 1 {
			return levels
		}
		cur = downsample(cur)
	}
}

// mipMapCount calculates the number of mipmap levels for a given width and height.
func mipMapCount(width, height int) int {
	count := 1
	for width > 1 || height > 1 {
		count++
		width = mipDimension(width, 1)
		height = mipDimension(height, 1)
	}

	return count
}

// mipDimension calculates the dimension of a mipmap level.
func mipDimension(base, level int) int {
	result := base >> level
	if result < 1 {
		return 1
	}

	return result
}

// downsample halves a level with a 2x2 box filter, or a 2-tap filter once
// one side has reached 1.
func downsample(src Level) Level {
	w := mipDimension(src.Width, 1)
	h := mipDimension(src.Height, 1)
	out := make([]byte, w*h*4)
	stride := src.Width * 4

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 4
			switch {
			case src.Width > 1 && src.Height > 1:
				p00 := (2*y)*stride + (2*x)*4
				p01 := p00 + 4
				p10 := p00 + stride
				p11 := p10 + 4
				for c := 0; c < 4; c++ {
					sum := int(src.Pix[p00+c]) + int(src.Pix[p01+c]) + int(src.Pix[p10+c]) + int(src.Pix[p11+c])
					out[o+c] = byte((sum + 2) / 4)
				}
			case src.Width > 1:
				p0 := (2 * x) * 4
				for c := 0; c < 4; c++ {
					out[o+c] = byte((int(src.Pix[p0+c]) + int(src.Pix[p0+4+c]) + 1) / 2)
				}
			default:
				p0 := (2 * y) * stride
				for c := 0; c < 4; c++ {
					out[o+c] = byte((int(src.Pix[p0+c]) + int(src.Pix[p0+stride+c]) + 1) / 2)
				}
			}
		}
	}

	return Level{Pix: out, Width: w, Height: h}
}

// alignBlock rounds n up to a multiple of 4.
func alignBlock(n int) int {
	return (n + 3) &^ 3
}

// padToBlocks grows pix to multiples of 4.
func padToBlocks(pix []byte, width, height int) ([]byte, int, int) {
	pw, ph := alignBlock(width), alignBlock(height)
	return padTo(pix, width, height, pw, ph), pw, ph
}

// padTo grows pix to pw x ph by replicating the last column, the last row and
// the last pixel into the corner. Input of the target size is returned as is.
func padTo(pix []byte, width, height, pw, ph int) []byte {
	if pw == width && ph == height {
		return pix
	}

	out := make([]byte, pw*ph*4)
	for y := 0; y < ph; y++ {
		sy := min(y, height-1)
		for x := 0; x < pw; x++ {
			sx := min(x, width-1)
			copy(out[(y*pw+x)*4:(y*pw+x)*4+4], pix[(sy*width+sx)*4:])
		}
	}

	return out
}
