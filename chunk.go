package txd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// RenderWare chunk ids used by texture dictionaries.
const (
	ChunkStruct            uint32 = 0x01
	ChunkExtension         uint32 = 0x03
	ChunkTextureNative     uint32 = 0x15
	ChunkTextureDictionary uint32 = 0x16

	// Version is the RenderWare library stamp written into every chunk.
	Version uint32 = 0x1803FFFF

	// ChunkHeaderSize is the size of a chunk header in bytes.
	ChunkHeaderSize = 12
)

// ChunkHeader prefixes every chunk. Size excludes the header itself.
type ChunkHeader struct {
	Type    uint32
	Size    uint32
	Version uint32
}

// appendChunkHeader appends a header for a payload of size bytes.
func appendChunkHeader(buf []byte, chunkType uint32, size int) ([]byte, error) {
	s, err := u32FromInt(size)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk 0x%02x: %d bytes", err, chunkType, size)
	}

	buf = binary.LittleEndian.AppendUint32(buf, chunkType)
	buf = binary.LittleEndian.AppendUint32(buf, s)
	buf = binary.LittleEndian.AppendUint32(buf, Version)
	return buf, nil
}

// appendChunk appends a header followed by payload.
func appendChunk(buf []byte, chunkType uint32, payload []byte) ([]byte, error) {
	buf, err := appendChunkHeader(buf, chunkType, len(payload))
	if err != nil {
		return nil, err
	}

	return append(buf, payload...), nil
}

func readChunkHeader(r io.Reader) (ChunkHeader, error) {
	var h ChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return ChunkHeader{}, fmt.Errorf("%w: %v", ErrChunkHeaderRead, err)
	}

	return h, nil
}

// expectChunk reads a header and checks its type.
func expectChunk(r io.Reader, chunkType uint32) (ChunkHeader, error) {
	h, err := readChunkHeader(r)
	if err != nil {
		return ChunkHeader{}, err
	}
	if h.Type != chunkType {
		return ChunkHeader{}, fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrUnexpectedChunk, chunkType, h.Type)
	}

	return h, nil
}

// readChunkPayload reads a whole payload of a chunk.
func readChunkPayload(r io.Reader, h ChunkHeader) ([]byte, error) {
	data, err := readExactly(r, int64(h.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: chunk 0x%02x: %d bytes: %v", ErrChunkTruncated, h.Type, h.Size, err)
	}

	return data, nil
}

// readExactly reads n bytes. The buffer grows with the data actually read,
// so a size declared by a damaged file never drives the allocation.
func readExactly(r io.Reader, n int64) ([]byte, error) {
	if n < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if br, ok := r.(interface{ Len() int }); ok && n > int64(br.Len()) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", io.ErrUnexpectedEOF, n, br.Len())
	}

	data, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", io.ErrUnexpectedEOF, n, len(data))
	}

	return data, nil
}
