/*
Package txd builds RenderWare texture dictionaries (TXD) for the D3D9
platform from in-memory RGBA images.

Each texture is flipped to bottom-up, padded to 4x4 blocks, reduced to a full
box-filtered mip chain and block compressed as DXT1 (opaque or cutout) or
DXT3 (explicit 4-bit alpha). Build runs compression over a bounded worker
pool in two phases so that every DXT1 native precedes every DXT3 native in
the dictionary, in input order. DXT1 textures can optionally be handed to
NVIDIA Texture Tools (nvcompress) with a per-texture fallback to the
built-in encoder.

The package also reads dictionaries back and exports individual natives as
DDS or LZ4-compressed EDDS files for inspection in other tools.
*/
package txd
