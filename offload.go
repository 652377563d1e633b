package txd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/woozymasta/bcn"
)

const (
	// DefaultToolTimeout bounds a single nvcompress attempt.
	DefaultToolTimeout = 60 * time.Second

	ddsMagic      = "DDS "
	ddsDX10Size   = 20
	ddsFourCCDX10 = "DX10"
)

// commandRunner runs an external command to completion.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	msg := strings.TrimSpace(string(out))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("%v: %s", err, msg)
}

// Offloader compresses DXT1 textures with NVIDIA Texture Tools.
type Offloader struct {
	runner   commandRunner
	toolPath string
	timeout  time.Duration
}

// ToolName returns the nvcompress executable name for the current OS.
func ToolName() string {
	if runtime.GOOS == "windows" {
		return "nvcompress.exe"
	}

	return "nvcompress"
}

// NewOffloader checks that toolDir exists and holds nvcompress.
func NewOffloader(toolDir string) (*Offloader, error) {
	if toolDir == "" {
		return nil, fmt.Errorf("%w: no directory configured", ErrToolDirMissing)
	}
	st, err := os.Stat(toolDir)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrToolDirMissing, toolDir)
	}

	toolPath := filepath.Join(toolDir, ToolName())
	st, err = os.Stat(toolPath)
	if err != nil || st.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrToolMissing, toolPath)
	}

	return &Offloader{
		runner:   execRunner{},
		toolPath: toolPath,
		timeout:  DefaultToolTimeout,
	}, nil
}

// Compress flips img to bottom-up and compresses it as DXT1 with nvcompress.
func (o *Offloader) Compress(ctx context.Context, img *RasterImage) (*TextureNative, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	return o.compressPixels(ctx, img.Name, img.flipped(), img.Width, img.Height)
}

// compressPixels writes the snapshot to a temporary PNG, runs nvcompress with
// CUDA and then with -nocuda, and parses the first valid DDS it produces.
func (o *Offloader) compressPixels(ctx context.Context, name string, pix []byte, width, height int) (*TextureNative, error) {
	dir, err := os.MkdirTemp("", "txd-nvtt-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteTempImage, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	input := filepath.Join(dir, "input.png")
	output := filepath.Join(dir, "output.dds")
	raster := &RasterImage{Name: name, Pix: pix, Width: width, Height: height}
	if err := writePNG(input, raster); err != nil {
		return nil, err
	}

	attempts := [][]string{
		{"-bc1", "-mipmap", input, output},
		{"-nocuda", "-bc1", "-mipmap", input, output},
	}

	var errs []error
	for _, args := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = os.Remove(output)

		native, err := o.attempt(ctx, name, width, height, output, args)
		if err == nil {
			return native, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%w: %q: %w", ErrToolFailed, name, errors.Join(errs...))
}

func (o *Offloader) attempt(ctx context.Context, name string, width, height int, output string, args []string) (*TextureNative, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.runner.Run(runCtx, o.toolPath, args...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadToolOutput, err)
	}

	native, err := parseToolOutput(name, data)
	if err != nil {
		return nil, err
	}
	if native.Width != width || native.Height != height {
		return nil, fmt.Errorf("%w: %dx%d, want %dx%d", ErrToolOutputFormat, native.Width, native.Height, width, height)
	}

	return native, nil
}

func writePNG(path string, img *RasterImage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTempImage, err)
	}

	if err := png.Encode(f, img.NRGBA()); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %v", ErrWriteTempImage, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTempImage, err)
	}

	return nil
}

// parseToolOutput converts a DXT1 DDS file into a texture native.
func parseToolOutput(name string, data []byte) (*TextureNative, error) {
	if len(data) < len(ddsMagic) || string(data[:len(ddsMagic)]) != ddsMagic {
		return nil, ErrToolOutputMagic
	}

	r := bytes.NewReader(data)
	header, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDDSHeaderRead, err)
	}

	offset := len(ddsMagic) + int(bcn.DDSHeaderSize)
	var dx10 *bcn.DDSHeaderDX10
	if intToFourCC(header.PixelFormat.FourCC) == ddsFourCCDX10 {
		if dx10, err = bcn.ReadDDSHeaderDX10(r, header); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDDSDX10Read, err)
		}
		offset += ddsDX10Size
	}

	format, label := detectFormat(header, dx10)
	if format != bcn.FormatDXT1 {
		return nil, fmt.Errorf("%w: %s", ErrToolOutputFormat, label)
	}

	width, height := int(header.Width), int(header.Height)
	if width <= 0 || height <= 0 || offset > len(data) {
		return nil, fmt.Errorf("%w: %dx%d", ErrToolOutputTruncated, width, height)
	}

	mipCount := int(header.MipMapCount)
	if mipCount == 0 {
		mipCount = 1
	}
	if limit := mipMapCount(width, height); mipCount > limit {
		return nil, fmt.Errorf("%w: %d mipmaps for %dx%d, at most %d", ErrToolOutputFormat, mipCount, width, height, limit)
	}

	native := &TextureNative{
		Name:    name,
		Format:  format,
		Width:   width,
		Height:  height,
		Mipmaps: make([]MipLevel, 0, mipCount),
	}

	payload := data[offset:]
	for i := 0; i < mipCount; i++ {
		w := mipDimension(native.Width, i)
		h := mipDimension(native.Height, i)
		size := expectedDataLength(format, alignBlock(w), alignBlock(h))
		if size > len(payload) {
			return nil, fmt.Errorf("%w: mipmap %d: need %d bytes, have %d", ErrToolOutputTruncated, i, size, len(payload))
		}
		native.Mipmaps = append(native.Mipmaps, MipLevel{Data: payload[:size:size], Width: w, Height: h})
		payload = payload[size:]
	}

	return native, nil
}
