package txd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ReadFile reads a texture dictionary file.
func ReadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadDictionary(bufio.NewReader(f))
}

// ReadDictionary parses a D3D9 texture dictionary with DXT1/DXT3 natives.
func ReadDictionary(r io.Reader) (*Dictionary, error) {
	outer, err := expectChunk(r, ChunkTextureDictionary)
	if err != nil {
		return nil, err
	}
	body, err := readChunkPayload(r, outer)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(body)

	h, err := expectChunk(br, ChunkStruct)
	if err != nil {
		return nil, err
	}
	dictStruct, err := readChunkPayload(br, h)
	if err != nil {
		return nil, err
	}
	if len(dictStruct) < 4 {
		return nil, fmt.Errorf("%w: dictionary struct of %d bytes", ErrChunkTruncated, len(dictStruct))
	}
	count := int(binary.LittleEndian.Uint16(dictStruct))

	dict := &Dictionary{Natives: make([]*TextureNative, 0, count)}
	for i := 0; i < count; i++ {
		h, err := expectChunk(br, ChunkTextureNative)
		if err != nil {
			return nil, fmt.Errorf("native %d: %w", i, err)
		}
		payload, err := readChunkPayload(br, h)
		if err != nil {
			return nil, fmt.Errorf("native %d: %w", i, err)
		}
		native, err := readNative(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("native %d: %w", i, err)
		}
		dict.Natives = append(dict.Natives, native)
	}

	if _, err := expectChunk(br, ChunkExtension); err != nil {
		return nil, err
	}

	return dict, nil
}

func readNative(r *bytes.Reader) (*TextureNative, error) {
	h, err := expectChunk(r, ChunkStruct)
	if err != nil {
		return nil, err
	}
	s, err := readChunkPayload(r, h)
	if err != nil {
		return nil, err
	}
	if len(s) < nativeStructSize {
		return nil, fmt.Errorf("%w: struct of %d bytes", ErrInvalidNative, len(s))
	}
	if platform := binary.LittleEndian.Uint32(s[0:]); platform != platformD3D9 {
		return nil, fmt.Errorf("%w: platform %d", ErrInvalidNative, platform)
	}

	var fourCC [4]byte
	copy(fourCC[:], s[76:80])
	native := &TextureNative{
		Name:   decodeName(s[8 : 8+nameFieldSize]),
		Format: formatFromFourCC(fourCC),
		Width:  int(binary.LittleEndian.Uint16(s[80:])),
		Height: int(binary.LittleEndian.Uint16(s[82:])),
	}
	if formatBlockSize(native.Format) == 0 {
		return nil, fmt.Errorf("%w: %q: fourCC %q", ErrInvalidFormat, native.Name, fourCC[:])
	}

	mipCount := int(s[85])
	off := nativeStructSize
	for i := 0; i < mipCount; i++ {
		if off+4 > len(s) {
			return nil, fmt.Errorf("%w: %q: mipmap %d", ErrChunkTruncated, native.Name, i)
		}
		n := int(binary.LittleEndian.Uint32(s[off:]))
		off += 4
		if n > len(s)-off {
			return nil, fmt.Errorf("%w: %q: mipmap %d: %d bytes", ErrChunkTruncated, native.Name, i, n)
		}
		native.Mipmaps = append(native.Mipmaps, MipLevel{
			Data:   s[off : off+n],
			Width:  mipDimension(native.Width, i),
			Height: mipDimension(native.Height, i),
		})
		off += n
	}

	if err := native.validate(); err != nil {
		return nil, err
	}
	if _, err := expectChunk(r, ChunkExtension); err != nil {
		return nil, err
	}

	return native, nil
}
