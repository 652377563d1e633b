package txd

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const (
	nameFieldSize = 32
	// nativeStructSize is the fixed part of a texture native struct.
	nativeStructSize = 4 + 4 + nameFieldSize + nameFieldSize + 4 + 4 + 2 + 2 + 1 + 1 + 1 + 1
)

// MarshalBinary serializes the dictionary. Natives are written in slice order.
func (d *Dictionary) MarshalBinary() ([]byte, error) {
	count, err := u16FromInt(len(d.Natives))
	if err != nil {
		return nil, fmt.Errorf("%w: %d natives", err, len(d.Natives))
	}

	var dictStruct [4]byte
	binary.LittleEndian.PutUint16(dictStruct[0:], count)

	body, err := appendChunk(nil, ChunkStruct, dictStruct[:])
	if err != nil {
		return nil, err
	}
	for _, native := range d.Natives {
		entry, err := marshalNative(native)
		if err != nil {
			return nil, err
		}
		if body, err = appendChunk(body, ChunkTextureNative, entry); err != nil {
			return nil, err
		}
	}
	if body, err = appendChunkHeader(body, ChunkExtension, 0); err != nil {
		return nil, err
	}

	out := make([]byte, 0, ChunkHeaderSize+len(body))
	return appendChunk(out, ChunkTextureDictionary, body)
}

// WriteFile serializes the dictionary to path. The file is written to a
// temporary sibling and renamed into place, so a failed write leaves no
// partial output.
func (d *Dictionary) WriteFile(path string) error {
	data, err := d.MarshalBinary()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}

	return nil
}

// marshalNative returns the payload of a TextureNative chunk: the native
// struct chunk followed by an empty extension chunk.
func marshalNative(t *TextureNative) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	info, err := nativeFormatInfo(t.Format)
	if err != nil {
		return nil, err
	}

	w, err := u16FromInt(t.Width)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: width %d", err, t.Name, t.Width)
	}
	h, err := u16FromInt(t.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: height %d", err, t.Name, t.Height)
	}
	mipCount, err := u8FromInt(len(t.Mipmaps))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %d mipmaps", err, t.Name, len(t.Mipmaps))
	}

	size := nativeStructSize
	for _, mip := range t.Mipmaps {
		size += 4 + len(mip.Data)
	}

	s := make([]byte, 0, size)
	s = binary.LittleEndian.AppendUint32(s, platformD3D9)
	s = binary.LittleEndian.AppendUint32(s, filterFlags())
	name := encodeName(t.Name)
	s = append(s, name[:]...)
	s = append(s, make([]byte, nameFieldSize)...) // mask name
	s = binary.LittleEndian.AppendUint32(s, info.RasterFormat)
	s = append(s, info.FourCC[:]...)
	s = binary.LittleEndian.AppendUint16(s, w)
	s = binary.LittleEndian.AppendUint16(s, h)
	s = append(s, info.Depth, mipCount, rasterTypeTexture, info.D3DFormat)

	for i, mip := range t.Mipmaps {
		n, err := u32FromInt(len(mip.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: mipmap %d", err, t.Name, i)
		}
		s = binary.LittleEndian.AppendUint32(s, n)
		s = append(s, mip.Data...)
	}

	out := make([]byte, 0, 2*ChunkHeaderSize+len(s))
	if out, err = appendChunk(out, ChunkStruct, s); err != nil {
		return nil, err
	}

	return appendChunkHeader(out, ChunkExtension, 0)
}

// encodeName packs name into the fixed 32-byte field: ASCII only, other runes
// replaced with '?', at most 31 characters and NUL padded.
func encodeName(name string) [nameFieldSize]byte {
	var out [nameFieldSize]byte
	n := 0
	for _, r := range name {
		if n == nameFieldSize-1 {
			break
		}
		if r > 0x7f {
			r = '?'
		}
		out[n] = byte(r)
		n++
	}

	return out
}

// decodeName returns the field up to the first NUL.
func decodeName(field []byte) string {
	for i, c := range field {
		if c == 0 {
			return string(field[:i])
		}
	}

	return string(field)
}
