package txd

import (
	"bytes"
	"testing"
)

func TestBuildMipChainDimensions(t *testing.T) {
	t.Parallel()

	type dim struct{ w, h int }
	tests := []struct {
		name string
		w, h int
		want []dim
	}{
		{name: "8x8", w: 8, h: 8, want: []dim{{8, 8}, {4, 4}, {2, 2}, {1, 1}}},
		{name: "16x4", w: 16, h: 4, want: []dim{{16, 4}, {8, 2}, {4, 1}, {2, 1}, {1, 1}}},
		{name: "4x16", w: 4, h: 16, want: []dim{{4, 16}, {2, 8}, {1, 4}, {1, 2}, {1, 1}}},
		{name: "12x4", w: 12, h: 4, want: []dim{{12, 4}, {6, 2}, {3, 1}, {1, 1}}},
		{name: "1x1", w: 1, h: 1, want: []dim{{1, 1}}},
		{name: "2x2", w: 2, h: 2, want: []dim{{2, 2}, {1, 1}}},
		{name: "6x5-padded", w: 6, h: 5, want: []dim{{8, 8}, {4, 4}, {2, 2}, {1, 1}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			chain := BuildMipChain(make([]byte, tc.w*tc.h*4), tc.w, tc.h)
			if len(chain) != len(tc.want) {
				t.Fatalf("levels = %d, want %d", len(chain), len(tc.want))
			}
			for i, lvl := range chain {
				if lvl.Width != tc.want[i].w || lvl.Height != tc.want[i].h {
					t.Fatalf("level %d = %dx%d, want %dx%d", i, lvl.Width, lvl.Height, tc.want[i].w, tc.want[i].h)
				}
				if len(lvl.Pix) != lvl.Width*lvl.Height*4 {
					t.Fatalf("level %d has %d bytes", i, len(lvl.Pix))
				}
			}
		})
	}
}

func TestBuildMipChainHalvingProperty(t *testing.T) {
	t.Parallel()

	for w := 4; w <= 64; w += 4 {
		for h := 4; h <= 64; h += 12 {
			chain := BuildMipChain(make([]byte, w*h*4), w, h)
			if len(chain) != mipMapCount(w, h) {
				t.Fatalf("%dx%d: %d levels, mipMapCount says %d", w, h, len(chain), mipMapCount(w, h))
			}

			ones := 0
			for i, lvl := range chain {
				if lvl.Width == 1 && lvl.Height == 1 {
					ones++
				}
				if i == 0 {
					continue
				}
				prev := chain[i-1]
				if lvl.Width != max(1, prev.Width/2) || lvl.Height != max(1, prev.Height/2) {
					t.Fatalf("%dx%d: level %d is %dx%d after %dx%d", w, h, i, lvl.Width, lvl.Height, prev.Width, prev.Height)
				}
			}
			last := chain[len(chain)-1]
			if ones != 1 || last.Width != 1 || last.Height != 1 {
				t.Fatalf("%dx%d: chain must end in exactly one 1x1 level", w, h)
			}
		}
	}
}

func TestBuildMipChainBoxFilter(t *testing.T) {
	t.Parallel()

	// 2x2 -> 1x1: channel sums 0+1+1+1=3 rounds to 1, 0+0+0+1 rounds to 0,
	// 10+20+30+41=101 rounds to 25, 255*4 stays 255.
	pix := []byte{
		0, 0, 10, 255, 1, 0, 20, 255,
		1, 0, 30, 255, 1, 1, 41, 255,
	}
	chain := BuildMipChain(pix, 2, 2)
	if len(chain) != 2 {
		t.Fatalf("levels = %d, want 2", len(chain))
	}
	want := []byte{1, 0, 25, 255}
	if !bytes.Equal(chain[1].Pix, want) {
		t.Fatalf("1x1 = %v, want %v", chain[1].Pix, want)
	}
}

func TestBuildMipChainTwoTapFilter(t *testing.T) {
	t.Parallel()

	pix := []byte{
		10, 0, 0, 255, 21, 0, 0, 255, 100, 0, 0, 255, 200, 0, 0, 255,
	}
	chain := BuildMipChain(pix, 4, 1)
	if len(chain) != 3 {
		t.Fatalf("levels = %d, want 3", len(chain))
	}
	if got := []byte{chain[1].Pix[0], chain[1].Pix[4]}; !bytes.Equal(got, []byte{16, 150}) {
		t.Fatalf("2x1 red = %v, want [16 150]", got)
	}
	if chain[2].Pix[0] != 83 {
		t.Fatalf("1x1 red = %d, want 83", chain[2].Pix[0])
	}
}

func TestPadToBlocksReplicatesEdges(t *testing.T) {
	t.Parallel()

	const w, h = 3, 2
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4] = byte(i + 1)
	}

	out, pw, ph := padToBlocks(pix, w, h)
	if pw != 4 || ph != 4 {
		t.Fatalf("padded to %dx%d, want 4x4", pw, ph)
	}

	want := []byte{
		1, 2, 3, 3,
		4, 5, 6, 6,
		4, 5, 6, 6,
		4, 5, 6, 6,
	}
	for i, v := range want {
		if out[i*4] != v {
			t.Fatalf("texel %d = %d, want %d", i, out[i*4], v)
		}
	}
}

func TestPadToBlocksAlignedIsNoop(t *testing.T) {
	t.Parallel()

	pix := make([]byte, 8*4*4)
	out, pw, ph := padToBlocks(pix, 8, 4)
	if pw != 8 || ph != 4 || &out[0] != &pix[0] {
		t.Fatalf("aligned input must be returned unchanged")
	}
}
