package txd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/bcn"
)

const enfusionTag = 0x31464e45 // "ENF1"

// WriteDDS exports a native as a DDS file, largest mip first.
func WriteDDS(path string, t *TextureNative) error {
	return writeDump(path, t, false)
}

// WriteEDDS exports a native as an Enfusion EDDS file with LZ4 mip blocks.
func WriteEDDS(path string, t *TextureNative) error {
	return writeDump(path, t, true)
}

func writeDump(path string, t *TextureNative, enfusion bool) error {
	if err := t.validate(); err != nil {
		return err
	}

	w32, err := u32FromInt(t.Width)
	if err != nil {
		return err
	}
	h32, err := u32FromInt(t.Height)
	if err != nil {
		return err
	}
	mip32, err := u32FromInt(len(t.Mipmaps))
	if err != nil {
		return err
	}
	header, err := makeDDSHeader(w32, h32, mip32, t.Format, enfusion)
	if err != nil {
		return err
	}

	var blocks []*eddsBlock
	if enfusion {
		blocks = make([]*eddsBlock, len(t.Mipmaps))
		for i, mip := range t.Mipmaps {
			if blocks[i], err = packBlock(mip.Data); err != nil {
				return fmt.Errorf("%w: mipmap %d", err, i)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()
	bw := bufio.NewWriter(f)

	if err := bcn.WriteDDSMagic(bw); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSMagic, err)
	}
	if err := bcn.WriteDDSHeader(bw, header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSHeader, err)
	}

	if enfusion {
		// EDDS stores the block table and the bodies smallest level first.
		for i := len(blocks) - 1; i >= 0; i-- {
			size, err := i32FromInt(blocks[i].size())
			if err != nil {
				return err
			}
			var entry [8]byte
			copy(entry[:4], blocks[i].magic)
			binary.LittleEndian.PutUint32(entry[4:], uint32(size)) // #nosec G115 -- non-negative int32.
			if _, err := bw.Write(entry[:]); err != nil {
				return fmt.Errorf("%w: mipmap %d: %v", ErrWriteBlock, i, err)
			}
		}
		for i := len(blocks) - 1; i >= 0; i-- {
			if err := writeBlockBody(bw, blocks[i]); err != nil {
				return fmt.Errorf("mipmap %d: %w", i, err)
			}
		}
	} else {
		for i, mip := range t.Mipmaps {
			if _, err := bw.Write(mip.Data); err != nil {
				return fmt.Errorf("%w: mipmap %d: %v", ErrWriteFile, i, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}

	return nil
}

// ReadDump reads a DDS or EDDS file written by WriteDDS or WriteEDDS.
// The native is named after the file.
func ReadDump(path string) (*TextureNative, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()
	r := bufio.NewReader(f)

	header, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDDSHeaderRead, err)
	}
	dx10, err := bcn.ReadDDSHeaderDX10(r, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDDSDX10Read, err)
	}

	format, label := detectFormat(header, dx10)
	if formatBlockSize(format) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, label)
	}

	if header.Width == 0 || header.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, header.Width, header.Height)
	}
	mipCount := 1
	if (header.Caps&bcn.DDSCapsMipmap) != 0 && header.MipMapCount > 0 {
		mipCount = int(header.MipMapCount)
	}
	if limit := mipMapCount(int(header.Width), int(header.Height)); mipCount > limit {
		return nil, fmt.Errorf("%w: %d for %dx%d, at most %d", ErrInvalidMipMapCount, mipCount, header.Width, header.Height, limit)
	}

	base := filepath.Base(path)
	native := &TextureNative{
		Name:    strings.TrimSuffix(base, filepath.Ext(base)),
		Format:  format,
		Width:   int(header.Width),
		Height:  int(header.Height),
		Mipmaps: make([]MipLevel, mipCount),
	}
	for i := range native.Mipmaps {
		native.Mipmaps[i].Width = mipDimension(native.Width, i)
		native.Mipmaps[i].Height = mipDimension(native.Height, i)
	}

	if header.Reserved1[1] == enfusionTag {
		err = readEDDSBlocks(r, native)
	} else {
		for i := range native.Mipmaps {
			mip := &native.Mipmaps[i]
			if mip.Data, err = readExactly(r, int64(expectedDataLength(format, mip.Width, mip.Height))); err != nil {
				err = fmt.Errorf("%w: mipmap %d: %v", ErrChunkTruncated, i, err)
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return native, nil
}

func readEDDSBlocks(r io.Reader, native *TextureNative) error {
	n := len(native.Mipmaps)
	magics := make([]string, n)
	sizes := make([]int, n)
	// table and bodies run from the smallest level to the largest
	for k := 0; k < n; k++ {
		var entry [8]byte
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return fmt.Errorf("%w: block table %d: %v", ErrChunkTruncated, k, err)
		}
		size := int32(binary.LittleEndian.Uint32(entry[4:])) // #nosec G115 -- signed in the format.
		if size < 0 {
			return fmt.Errorf("%w: block table %d: size %d", ErrChunkTruncated, k, size)
		}
		magics[n-1-k] = string(entry[:4])
		sizes[n-1-k] = int(size)
	}

	for k := n - 1; k >= 0; k-- {
		body, err := readExactly(r, int64(sizes[k]))
		if err != nil {
			return fmt.Errorf("%w: mipmap %d: %v", ErrChunkTruncated, k, err)
		}
		mip := &native.Mipmaps[k]
		data, err := unpackBlock(magics[k], body, expectedDataLength(native.Format, mip.Width, mip.Height))
		if err != nil {
			return fmt.Errorf("mipmap %d: %w", k, err)
		}
		mip.Data = data
	}

	return nil
}
