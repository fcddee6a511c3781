// Package texture decodes DDS texture containers into a mip chain that can
// be written into the game's TGV textures.
//
// Only the container is understood: the decoder locates and sizes every mip
// level and resolves the pixel format, it never decompresses texel data.
package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dmc31a42/WargameModInstaller/internal/binfmt"
)

const (
	formatName = "dds"

	// Magic is "DDS " read as a little-endian uint32.
	Magic uint32 = 0x20534444

	headerSize     = 124
	dx10HeaderSize = 20
)

// Pixel format flags.
const (
	pfAlphaPixels = 0x1
	pfAlpha       = 0x2
	pfFourCC      = 0x4
	pfRGB         = 0x40
	pfLuminance   = 0x20000
)

type PixelFormatHeader struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type Header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       PixelFormatHeader
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type DX10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// Image is a decoded texture container. MipLevels[0] is the largest level.
type Image struct {
	Width     uint32
	Height    uint32
	MipCount  uint32
	Format    PixelFormat
	MipLevels [][]byte
	// FloorAmbiguous is set when the pixel format could not be resolved and
	// level sizes were derived from the one-byte-per-pixel, 16 byte floor
	// fallback. The levels may then be mis-sized for BC1/BC4 data.
	FloorAmbiguous bool
}

func FourCC(code string) uint32 {
	var b [4]byte
	copy(b[:], code)
	return binary.LittleEndian.Uint32(b[:])
}

// DecodeDDS reads a DDS container from data. A header declaring zero mip
// levels is treated as having one. Input shorter than any level requires is
// rejected as a whole.
func DecodeDDS(data []byte) (*Image, error) {
	if len(data) < 4 {
		return nil, binfmt.Truncated(formatName, 0, 4, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != Magic {
		return nil, binfmt.BadMagic(formatName, Magic, magic)
	}
	offset := 4

	if len(data)-offset < headerSize {
		return nil, binfmt.Truncated(formatName, int64(offset), headerSize, len(data)-offset)
	}
	var header Header
	if err := binary.Read(bytes.NewReader(data[offset:offset+headerSize]), binary.LittleEndian, &header); err != nil {
		return nil, &binfmt.FormatError{Format: formatName, Offset: int64(offset), Err: err}
	}
	offset += headerSize

	var dx10 *DX10Header
	if header.PixelFormat.Flags&pfFourCC != 0 && header.PixelFormat.FourCC == FourCC("DX10") {
		if len(data)-offset < dx10HeaderSize {
			return nil, binfmt.Truncated(formatName, int64(offset), dx10HeaderSize, len(data)-offset)
		}
		dx10 = &DX10Header{}
		if err := binary.Read(bytes.NewReader(data[offset:offset+dx10HeaderSize]), binary.LittleEndian, dx10); err != nil {
			return nil, &binfmt.FormatError{Format: formatName, Offset: int64(offset), Err: err}
		}
		offset += dx10HeaderSize
	}

	mipCount := header.MipMapCount
	if mipCount == 0 {
		mipCount = 1
	}

	format := ResolveFormat(header.PixelFormat, dx10)
	img := &Image{
		Width:    header.Width,
		Height:   header.Height,
		MipCount: mipCount,
		Format:   format,
	}

	sizes, exact := MipSizes(format, header.Width, header.Height, min(mipCount, 32))
	img.FloorAmbiguous = !exact

	levels := make([][]byte, 0, len(sizes))
	for i := uint32(0); i < mipCount; i++ {
		mipSize := sizes[min(int(i), len(sizes)-1)]
		remaining := uint64(len(data) - offset)
		if mipSize > remaining {
			return nil, &binfmt.FormatError{
				Format: formatName,
				Offset: int64(offset),
				Err:    fmt.Errorf("%w: mip level %d needs %d bytes, have %d", binfmt.ErrTruncated, i, mipSize, remaining),
			}
		}
		level := make([]byte, mipSize)
		copy(level, data[offset:offset+int(mipSize)])
		levels = append(levels, level)
		offset += int(mipSize)
	}
	img.MipLevels = levels

	return img, nil
}

// ResolveFormat maps a DDS pixel format (and the DX10 extension, when present)
// to a PixelFormat. Unrecognized layouts resolve to FormatUnknown.
func ResolveFormat(pf PixelFormatHeader, dx10 *DX10Header) PixelFormat {
	if dx10 != nil {
		format := PixelFormat(dx10.DXGIFormat)
		if format.Known() {
			return format
		}
		return FormatUnknown
	}

	if pf.Flags&pfFourCC != 0 {
		switch pf.FourCC {
		case FourCC("DXT1"):
			return FormatBC1
		case FourCC("DXT2"), FourCC("DXT3"):
			return FormatBC2
		case FourCC("DXT4"), FourCC("DXT5"):
			return FormatBC3
		case FourCC("ATI1"), FourCC("BC4U"):
			return FormatBC4
		case FourCC("ATI2"), FourCC("BC5U"):
			return FormatBC5
		}
		return FormatUnknown
	}

	switch {
	case pf.Flags&pfRGB != 0:
		return resolveRGB(pf)
	case pf.Flags&pfLuminance != 0 && pf.RGBBitCount == 8 && pf.RBitMask == 0xff:
		return FormatR8
	case pf.Flags&pfAlpha != 0 && pf.RGBBitCount == 8 && pf.ABitMask == 0xff:
		return FormatA8
	}
	return FormatUnknown
}

func resolveRGB(pf PixelFormatHeader) PixelFormat {
	hasAlpha := pf.Flags&pfAlphaPixels != 0
	switch pf.RGBBitCount {
	case 32:
		switch {
		case pf.RBitMask == 0xff && pf.GBitMask == 0xff00 && pf.BBitMask == 0xff0000 && hasAlpha && pf.ABitMask == 0xff000000:
			return FormatR8G8B8A8
		case pf.RBitMask == 0xff0000 && pf.GBitMask == 0xff00 && pf.BBitMask == 0xff && hasAlpha && pf.ABitMask == 0xff000000:
			return FormatB8G8R8A8
		case pf.RBitMask == 0xff0000 && pf.GBitMask == 0xff00 && pf.BBitMask == 0xff && !hasAlpha:
			return FormatB8G8R8X8
		}
	case 16:
		switch {
		case pf.RBitMask == 0xf800 && pf.GBitMask == 0x07e0 && pf.BBitMask == 0x001f:
			return FormatB5G6R5
		case pf.RBitMask == 0x7c00 && pf.GBitMask == 0x03e0 && pf.BBitMask == 0x001f && hasAlpha && pf.ABitMask == 0x8000:
			return FormatB5G5R5A1
		}
	}
	return FormatUnknown
}
