package txd

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"
)

// benchImage builds a deterministic image with mixed low and high frequencies.
func benchImage(width, height int, alpha bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := uint8(255)
			if alpha {
				a = uint8((x + y) & 0xff) //nolint:gosec // bounded by mask
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*7 + y*3) & 0xff),        //nolint:gosec // bounded by mask
				G: uint8((x*13 + y*5) & 0xff),       //nolint:gosec // bounded by mask
				B: uint8((x ^ y ^ (x >> 2)) & 0xff), //nolint:gosec // bounded by mask
				A: a,
			})
		}
	}
	return img
}

func benchEncodeLevel(b *testing.B, format bcn.Format) {
	b.Helper()

	img := benchImage(1024, 1024, format == bcn.FormatDXT3)
	b.ReportAllocs()
	b.SetBytes(int64(len(img.Pix)))
	b.ResetTimer()

	for b.Loop() {
		if _, err := EncodeLevel(img.Pix, 1024, 1024, format); err != nil {
			b.Fatalf("EncodeLevel: %v", err)
		}
	}
}

func BenchmarkEncodeLevelDXT1(b *testing.B) {
	benchEncodeLevel(b, bcn.FormatDXT1)
}

func BenchmarkEncodeLevelDXT3(b *testing.B) {
	benchEncodeLevel(b, bcn.FormatDXT3)
}

func BenchmarkBuildMipChain(b *testing.B) {
	img := benchImage(1024, 1024, false)
	b.ReportAllocs()
	b.SetBytes(int64(len(img.Pix)))
	b.ResetTimer()

	for b.Loop() {
		_ = BuildMipChain(img.Pix, 1024, 1024)
	}
}

// BenchmarkReferenceEncoderDXT1 measures the bcn encoder on the same input
// for comparison with the built-in one.
func BenchmarkReferenceEncoderDXT1(b *testing.B) {
	img := benchImage(1024, 1024, false)
	opts := &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast}
	b.ReportAllocs()
	b.SetBytes(int64(len(img.Pix)))
	b.ResetTimer()

	for b.Loop() {
		for i, mip := range bcn.GenerateMipmaps(img, false) {
			if _, _, _, err := bcn.EncodeImageWithOptions(mip, bcn.FormatDXT1, opts); err != nil {
				b.Fatalf("EncodeImageWithOptions (mipmap %d): %v", i, err)
			}
		}
	}
}

func BenchmarkBuildAndWrite(b *testing.B) {
	src := make([]Source, 16)
	for i := range src {
		src[i] = Source{
			Image:         NewRasterImage("tex", benchImage(256, 256, i%2 == 1)),
			AlphaRequired: i%2 == 1,
		}
	}
	path := filepath.Join(b.TempDir(), "bench.txd")

	b.ReportAllocs()
	b.SetBytes(int64(len(src) * 256 * 256 * 4))
	b.ResetTimer()

	for b.Loop() {
		res, err := Build(context.Background(), src, nil)
		if err != nil {
			b.Fatalf("Build: %v", err)
		}
		if err := res.Dictionary.WriteFile(path); err != nil {
			b.Fatalf("WriteFile: %v", err)
		}
	}
}

func BenchmarkWriteEDDS(b *testing.B) {
	native, err := CompressTexture(NewRasterImage("bench", benchImage(1024, 1024, false)), bcn.FormatDXT1)
	if err != nil {
		b.Fatalf("CompressTexture: %v", err)
	}
	path := filepath.Join(b.TempDir(), "bench.edds")

	b.ReportAllocs()
	b.SetBytes(int64(len(native.Mipmaps[0].Data)))
	b.ResetTimer()

	for b.Loop() {
		if err := WriteEDDS(path, native); err != nil {
			b.Fatalf("WriteEDDS: %v", err)
		}
	}
}
