package texture

import "fmt"

// PixelFormat identifies a texel layout by its DXGI_FORMAT value.
type PixelFormat uint32

const (
	FormatUnknown      PixelFormat = 0
	FormatR8G8B8A8     PixelFormat = 28
	FormatR8G8B8A8SRGB PixelFormat = 29
	FormatR8           PixelFormat = 61
	FormatA8           PixelFormat = 65
	FormatBC1          PixelFormat = 71
	FormatBC1SRGB      PixelFormat = 72
	FormatBC2          PixelFormat = 74
	FormatBC2SRGB      PixelFormat = 75
	FormatBC3          PixelFormat = 77
	FormatBC3SRGB      PixelFormat = 78
	FormatBC4          PixelFormat = 80
	FormatBC5          PixelFormat = 83
	FormatB5G6R5       PixelFormat = 85
	FormatB5G5R5A1     PixelFormat = 86
	FormatB8G8R8A8     PixelFormat = 87
	FormatB8G8R8X8     PixelFormat = 88
	FormatB8G8R8A8SRGB PixelFormat = 91
	FormatBC6H         PixelFormat = 95
	FormatBC7          PixelFormat = 98
	FormatBC7SRGB      PixelFormat = 99
)

type formatInfo struct {
	name string
	// blockBytes is the size of one 4x4 block for block-compressed formats.
	blockBytes int
	// bitsPerPixel is set for uncompressed formats.
	bitsPerPixel int
}

var formats = map[PixelFormat]formatInfo{
	FormatR8G8B8A8:     {name: "R8G8B8A8_UNORM", bitsPerPixel: 32},
	FormatR8G8B8A8SRGB: {name: "R8G8B8A8_UNORM_SRGB", bitsPerPixel: 32},
	FormatR8:           {name: "R8_UNORM", bitsPerPixel: 8},
	FormatA8:           {name: "A8_UNORM", bitsPerPixel: 8},
	FormatBC1:          {name: "BC1_UNORM", blockBytes: 8},
	FormatBC1SRGB:      {name: "BC1_UNORM_SRGB", blockBytes: 8},
	FormatBC2:          {name: "BC2_UNORM", blockBytes: 16},
	FormatBC2SRGB:      {name: "BC2_UNORM_SRGB", blockBytes: 16},
	FormatBC3:          {name: "BC3_UNORM", blockBytes: 16},
	FormatBC3SRGB:      {name: "BC3_UNORM_SRGB", blockBytes: 16},
	FormatBC4:          {name: "BC4_UNORM", blockBytes: 8},
	FormatBC5:          {name: "BC5_UNORM", blockBytes: 16},
	FormatB5G6R5:       {name: "B5G6R5_UNORM", bitsPerPixel: 16},
	FormatB5G5R5A1:     {name: "B5G5R5A1_UNORM", bitsPerPixel: 16},
	FormatB8G8R8A8:     {name: "B8G8R8A8_UNORM", bitsPerPixel: 32},
	FormatB8G8R8X8:     {name: "B8G8R8X8_UNORM", bitsPerPixel: 32},
	FormatB8G8R8A8SRGB: {name: "B8G8R8A8_UNORM_SRGB", bitsPerPixel: 32},
	FormatBC6H:         {name: "BC6H_UF16", blockBytes: 16},
	FormatBC7:          {name: "BC7_UNORM", blockBytes: 16},
	FormatBC7SRGB:      {name: "BC7_UNORM_SRGB", blockBytes: 16},
}

func (f PixelFormat) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	if f == FormatUnknown {
		return "UNKNOWN"
	}
	return fmt.Sprintf("DXGI(%d)", uint32(f))
}

func (f PixelFormat) Known() bool {
	_, ok := formats[f]
	return ok
}

func (f PixelFormat) Compressed() bool {
	return formats[f].blockBytes > 0
}

// BlockBytes is the size of one 4x4 block, or 0 for uncompressed formats.
func (f PixelFormat) BlockBytes() int { return formats[f].blockBytes }

// BitsPerPixel is 0 for block-compressed and unknown formats.
func (f PixelFormat) BitsPerPixel() int { return formats[f].bitsPerPixel }

// Historical sizing used when the pixel format cannot be resolved: one byte
// per pixel with a 16 byte floor, which is right for BC2/BC3 only.
const (
	fallbackMinMipSize = 16
)

// MinMipSize is the smallest a single mip level of format can be: one block
// for compressed formats (8 bytes for BC1/BC4, 16 for the rest) and one pixel
// for uncompressed ones. ok is false when the format is unknown and the
// returned floor is only the historical guess.
func MinMipSize(format PixelFormat) (size int, ok bool) {
	info, known := formats[format]
	switch {
	case !known:
		return fallbackMinMipSize, false
	case info.blockBytes > 0:
		return info.blockBytes, true
	default:
		return max(info.bitsPerPixel/8, 1), true
	}
}

// BaseMipSize is the byte size of the largest level of a width x height image.
// ok is false for unknown formats, where width*height is returned.
func BaseMipSize(format PixelFormat, width, height uint32) (size uint64, ok bool) {
	info, known := formats[format]
	switch {
	case !known:
		return uint64(width) * uint64(height), false
	case info.blockBytes > 0:
		blocksWide := max((uint64(width)+3)/4, 1)
		blocksHigh := max((uint64(height)+3)/4, 1)
		return blocksWide * blocksHigh * uint64(info.blockBytes), true
	default:
		return uint64(width) * uint64(height) * uint64(info.bitsPerPixel) / 8, true
	}
}

// MipSizes lists the byte size of the first count levels of a chain. Each
// level is a quarter of the one above it, never smaller than MinMipSize. This
// matches the real chain only while both dimensions halve together, which is
// the case for the square power-of-two textures the game ships. exact is false
// when the format is unknown.
func MipSizes(format PixelFormat, width, height uint32, count uint32) (sizes []uint64, exact bool) {
	size, baseKnown := BaseMipSize(format, width, height)
	floor, floorKnown := MinMipSize(format)
	count = max(count, 1)
	sizes = make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		sizes = append(sizes, size)
		size = max(size/4, uint64(floor))
	}
	return sizes, baseKnown && floorKnown
}
