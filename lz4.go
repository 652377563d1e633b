package txd

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// BlockMagicCOPY marks an uncompressed EDDS block.
	BlockMagicCOPY = "COPY"
	// BlockMagicLZ4 marks an LZ4 chunk-stream EDDS block.
	BlockMagicLZ4 = "LZ4 "

	// lz4ChunkSize is the Enfusion chunk size and dictionary window.
	lz4ChunkSize = 64 * 1024
	// lz4MinInput is the smallest payload worth compressing.
	lz4MinInput = 1024
	// lz4MaxRatio is the largest compressed/raw ratio kept as LZ4.
	lz4MaxRatio = 0.85

	lz4LastChunk = 0x80
)

// eddsBlock is one mip level body of an EDDS file.
type eddsBlock struct {
	magic   string
	data    []byte
	rawSize int
}

// size is the byte count recorded in the block table.
func (b *eddsBlock) size() int {
	if b.magic == BlockMagicLZ4 {
		return 4 + len(b.data)
	}

	return len(b.data)
}

// packBlock stores data as an LZ4 chunk stream when that saves at least 15%,
// otherwise as COPY.
func packBlock(data []byte) (*eddsBlock, error) {
	if _, err := i32FromInt(len(data)); err != nil {
		return nil, fmt.Errorf("%w: %d bytes", err, len(data))
	}
	plain := &eddsBlock{magic: BlockMagicCOPY, data: data, rawSize: len(data)}
	if len(data) < lz4MinInput {
		return plain, nil
	}

	scratch := make([]byte, lz4.CompressBlockBound(lz4ChunkSize))
	stream := make([]byte, 0, len(data))
	limit := int(float64(len(data)) * lz4MaxRatio)

	for start := 0; start < len(data); start += lz4ChunkSize {
		end := min(start+lz4ChunkSize, len(data))
		n, err := lz4.CompressBlockHC(data[start:end], scratch, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Compress, err)
		}
		if n == 0 || float64(n) > float64(end-start)*lz4MaxRatio {
			return plain, nil
		}
		if n > 0x7fffff {
			return nil, fmt.Errorf("%w: %d", ErrChunkTooLarge, n)
		}

		flags := byte(0)
		if end == len(data) {
			flags = lz4LastChunk
		}
		stream = append(stream, byte(n), byte(n>>8), byte(n>>16), flags)
		stream = append(stream, scratch[:n]...)
		if 4+len(stream) > limit {
			return plain, nil
		}
	}

	return &eddsBlock{magic: BlockMagicLZ4, data: stream, rawSize: len(data)}, nil
}

// writeBlockBody writes a block body; LZ4 bodies carry their raw size first.
func writeBlockBody(w io.Writer, b *eddsBlock) error {
	if b.magic == BlockMagicLZ4 {
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], uint32(b.rawSize)) // #nosec G115 -- checked in packBlock.
		if _, err := w.Write(raw[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteBlock, err)
		}
	}
	if _, err := w.Write(b.data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteBlock, err)
	}

	return nil
}

// unpackBlock inflates a block body read from a file into want bytes.
func unpackBlock(magic string, body []byte, want int) ([]byte, error) {
	switch magic {
	case BlockMagicCOPY:
		if len(body) != want {
			return nil, fmt.Errorf("%w: COPY block: expected %d, got %d", ErrMipmapSizeMismatch, want, len(body))
		}
		return body, nil
	case BlockMagicLZ4:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockMagic, magic)
	}

	if len(body) < 4 {
		return nil, ErrChunkStreamTruncated
	}
	if raw := int(binary.LittleEndian.Uint32(body)); raw != want {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDecodedSizeMismatch, want, raw)
	}
	stream := body[4:]
	// LZ4 inflates a block at most about 255 times.
	if want > 255*len(stream)+lz4ChunkSize {
		return nil, fmt.Errorf("%w: %d bytes from a %d byte stream", ErrDecodedSizeMismatch, want, len(stream))
	}

	out := make([]byte, want)
	n := 0
	for {
		if len(stream) < 4 {
			return nil, fmt.Errorf("%w: need 4 bytes header, have %d", ErrChunkStreamTruncated, len(stream))
		}
		size := int(stream[0]) | int(stream[1])<<8 | int(stream[2])<<16
		last := stream[3]&lz4LastChunk != 0
		stream = stream[4:]
		if size <= 0 || size > len(stream) {
			return nil, fmt.Errorf("%w: chunk of %d bytes, have %d", ErrChunkStreamTruncated, size, len(stream))
		}

		// Each chunk may reference the previous 64 KiB of output.
		dict := out[max(0, n-lz4ChunkSize):n]
		dst := out[n:min(n+lz4ChunkSize, want)]
		m, err := lz4.UncompressBlockWithDict(stream[:size], dst, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Decode, err)
		}
		n += m
		stream = stream[size:]

		if last {
			break
		}
	}

	if n != want || len(stream) != 0 {
		return nil, fmt.Errorf("%w: expected %d, got %d (%d trailing)", ErrDecodedSizeMismatch, want, n, len(stream))
	}

	return out, nil
}
