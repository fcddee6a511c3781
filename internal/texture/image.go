package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Rect is a pixel rectangle inside an image.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Tile returns the rectangle covered by the tile at column, row of a grid of
// tileSize square tiles.
func Tile(column, row, tileSize int) Rect {
	return Rect{X: column * tileSize, Y: row * tileSize, Width: tileSize, Height: tileSize}
}

// Contains reports whether r lies fully inside the base level of img.
func (img *Image) Contains(r Rect) bool {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return false
	}
	return uint64(r.X)+uint64(r.Width) <= uint64(img.Width) &&
		uint64(r.Y)+uint64(r.Height) <= uint64(img.Height)
}

// Size is the number of texel bytes across all mip levels.
func (img *Image) Size() int {
	total := 0
	for _, level := range img.MipLevels {
		total += len(level)
	}
	return total
}

var (
	ErrUnsupportedFormat = errors.New("pixel format cannot be encoded")
	ErrMipChain          = errors.New("mip levels do not follow the quarter-size chain")
)

const (
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000
	ddsdLinearSize  = 0x80000

	ddsCapsTexture = 0x1000
	ddsCapsMipMap  = 0x400000
	ddsCapsComplex = 0x8

	pixelFormatSize = 32
)

var legacyFourCC = map[PixelFormat]string{
	FormatBC1: "DXT1",
	FormatBC2: "DXT3",
	FormatBC3: "DXT5",
	FormatBC4: "ATI1",
	FormatBC5: "ATI2",
}

var legacyMasks = map[PixelFormat]PixelFormatHeader{
	FormatR8G8B8A8: {Flags: pfRGB | pfAlphaPixels, RGBBitCount: 32, RBitMask: 0xff, GBitMask: 0xff00, BBitMask: 0xff0000, ABitMask: 0xff000000},
	FormatB8G8R8A8: {Flags: pfRGB | pfAlphaPixels, RGBBitCount: 32, RBitMask: 0xff0000, GBitMask: 0xff00, BBitMask: 0xff, ABitMask: 0xff000000},
	FormatB8G8R8X8: {Flags: pfRGB, RGBBitCount: 32, RBitMask: 0xff0000, GBitMask: 0xff00, BBitMask: 0xff},
	FormatB5G6R5:   {Flags: pfRGB, RGBBitCount: 16, RBitMask: 0xf800, GBitMask: 0x07e0, BBitMask: 0x001f},
	FormatB5G5R5A1: {Flags: pfRGB | pfAlphaPixels, RGBBitCount: 16, RBitMask: 0x7c00, GBitMask: 0x03e0, BBitMask: 0x001f, ABitMask: 0x8000},
	FormatR8:       {Flags: pfLuminance, RGBBitCount: 8, RBitMask: 0xff},
	FormatA8:       {Flags: pfAlpha, RGBBitCount: 8, ABitMask: 0xff},
}

// EncodeDDS writes img as a DDS container DecodeDDS reads back unchanged.
// Level sizes must match MipSizes for the image, otherwise ErrMipChain is
// returned. Formats without a legacy FourCC or bit mask layout get a DX10
// header.
func EncodeDDS(img *Image) ([]byte, error) {
	if !img.Format.Known() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, img.Format)
	}
	if len(img.MipLevels) > 0 {
		sizes, _ := MipSizes(img.Format, img.Width, img.Height, uint32(len(img.MipLevels)))
		for i, level := range img.MipLevels {
			if uint64(len(level)) != sizes[i] {
				return nil, fmt.Errorf("%w: level %d is %d bytes, expected %d", ErrMipChain, i, len(level), sizes[i])
			}
		}
	}

	header := Header{
		Size:        headerSize,
		Flags:       ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat,
		Height:      img.Height,
		Width:       img.Width,
		MipMapCount: uint32(len(img.MipLevels)),
		Caps:        ddsCapsTexture,
	}
	if len(img.MipLevels) > 0 {
		header.PitchOrLinearSize = uint32(len(img.MipLevels[0]))
		header.Flags |= ddsdLinearSize
	}
	if len(img.MipLevels) > 1 {
		header.Flags |= ddsdMipMapCount
		header.Caps |= ddsCapsMipMap | ddsCapsComplex
	}

	var dx10 *DX10Header
	if code, ok := legacyFourCC[img.Format]; ok {
		header.PixelFormat = PixelFormatHeader{Flags: pfFourCC, FourCC: FourCC(code)}
	} else if masks, ok := legacyMasks[img.Format]; ok {
		header.PixelFormat = masks
	} else {
		header.PixelFormat = PixelFormatHeader{Flags: pfFourCC, FourCC: FourCC("DX10")}
		dx10 = &DX10Header{DXGIFormat: uint32(img.Format), ResourceDimension: 3, ArraySize: 1}
	}
	header.PixelFormat.Size = pixelFormatSize

	var buf bytes.Buffer
	buf.Grow(4 + headerSize + dx10HeaderSize + img.Size())
	if err := binary.Write(&buf, binary.LittleEndian, Magic); err != nil {
		return nil, fmt.Errorf("encoding dds magic: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("encoding dds header: %w", err)
	}
	if dx10 != nil {
		if err := binary.Write(&buf, binary.LittleEndian, dx10); err != nil {
			return nil, fmt.Errorf("encoding dds dx10 header: %w", err)
		}
	}
	for _, level := range img.MipLevels {
		buf.Write(level)
	}
	return buf.Bytes(), nil
}
