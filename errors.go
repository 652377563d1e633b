package txd

import "errors"

var (
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrInvalidFormat indicates a format other than DXT1 or DXT3.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrEmptyMipmaps indicates a native without mipmap data.
	ErrEmptyMipmaps = errors.New("empty mipmaps")
	// ErrMipmapSizeMismatch indicates mipmap payload size mismatch.
	ErrMipmapSizeMismatch = errors.New("mipmap size mismatch")
	// ErrInvalidImage indicates a raster with no pixels or a short pixel buffer.
	ErrInvalidImage = errors.New("invalid image")
	// ErrEmptyName indicates a texture without a name.
	ErrEmptyName = errors.New("empty texture name")
	// ErrUnalignedSize indicates base dimensions that are not multiples of 4.
	ErrUnalignedSize = errors.New("size is not a multiple of 4")

	// ErrNoTextures indicates an empty input set.
	ErrNoTextures = errors.New("no textures found")
	// ErrNoTexturesProcessed indicates every texture was rejected or failed.
	ErrNoTexturesProcessed = errors.New("no textures could be processed")
	// ErrCompressTexture indicates a compression job failed.
	ErrCompressTexture = errors.New("compress texture failed")

	// ErrToolDirMissing indicates the configured NVTT directory does not exist.
	ErrToolDirMissing = errors.New("NVTT directory not found")
	// ErrToolMissing indicates nvcompress is missing from the NVTT directory.
	ErrToolMissing = errors.New("nvcompress not found")
	// ErrToolFailed indicates nvcompress failed in both attempts.
	ErrToolFailed = errors.New("nvcompress failed")
	// ErrToolOutputMagic indicates the tool output is not a DDS file.
	ErrToolOutputMagic = errors.New("invalid DDS magic in tool output")
	// ErrToolOutputFormat indicates the tool output is not DXT1.
	ErrToolOutputFormat = errors.New("unexpected format in tool output")
	// ErrToolOutputTruncated indicates the tool output lacks mip data.
	ErrToolOutputTruncated = errors.New("tool output truncated")
	// ErrWriteTempImage indicates the temporary PNG could not be written.
	ErrWriteTempImage = errors.New("writing temporary image failed")
	// ErrReadToolOutput indicates the tool output could not be read.
	ErrReadToolOutput = errors.New("reading tool output failed")

	// ErrCreateFile indicates output file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrWriteFile indicates writing the output file failed.
	ErrWriteFile = errors.New("write file failed")
	// ErrOpenFile indicates file open failed.
	ErrOpenFile = errors.New("open file failed")

	// ErrChunkHeaderRead indicates a chunk header could not be read.
	ErrChunkHeaderRead = errors.New("reading chunk header failed")
	// ErrUnexpectedChunk indicates a chunk of the wrong type.
	ErrUnexpectedChunk = errors.New("unexpected chunk type")
	// ErrChunkTruncated indicates a chunk payload shorter than declared.
	ErrChunkTruncated = errors.New("chunk truncated")
	// ErrInvalidNative indicates a malformed texture native struct.
	ErrInvalidNative = errors.New("invalid texture native")

	// ErrWriteDDSMagic indicates DDS magic write failed.
	ErrWriteDDSMagic = errors.New("writing DDS magic failed")
	// ErrWriteDDSHeader indicates DDS header write failed.
	ErrWriteDDSHeader = errors.New("writing DDS header failed")
	// ErrDDSHeaderRead indicates DDS header read failed.
	ErrDDSHeaderRead = errors.New("reading DDS header failed")
	// ErrDDSDX10Read indicates DDS DX10 header read failed.
	ErrDDSDX10Read = errors.New("reading DDS DX10 header failed")
	// ErrInvalidMipMapCount indicates a DDS header declaring more levels than its size allows.
	ErrInvalidMipMapCount = errors.New("invalid mipmap count")
	// ErrWriteBlock indicates an EDDS block write failed.
	ErrWriteBlock = errors.New("writing block failed")
	// ErrLZ4Compress indicates LZ4 compression failed.
	ErrLZ4Compress = errors.New("LZ4 compression failed")
	// ErrLZ4Decode indicates LZ4 decode failed.
	ErrLZ4Decode = errors.New("LZ4 decode failed")
	// ErrChunkTooLarge indicates a compressed chunk exceeds allowed size.
	ErrChunkTooLarge = errors.New("compressed chunk too large")
	// ErrChunkStreamTruncated indicates LZ4 chunk stream is truncated.
	ErrChunkStreamTruncated = errors.New("LZ4 chunk-stream truncated")
	// ErrUnknownBlockMagic indicates an unknown EDDS block magic.
	ErrUnknownBlockMagic = errors.New("unknown block magic")
	// ErrDecodedSizeMismatch indicates decoded size mismatch.
	ErrDecodedSizeMismatch = errors.New("LZ4 decoded size mismatch")
)
