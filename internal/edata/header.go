// Package edata decodes the fixed header of the game's packed archives.
//
// The header is 65 bytes, little-endian, with no alignment padding:
//
//	magic       uint32   "edat"
//	version     uint32
//	checksumV1  [16]byte MD5
//	skip        byte
//	dictOffset  uint32   observed as 1037
//	dictLength  uint32
//	fileOffset  uint32
//	fileLength  uint32
//	reserved    uint32   observed as 0
//	padding     uint32   observed as 8192
//	checksumV2  [16]byte MD5
//
// The dictionary and file regions themselves are not interpreted here; the
// header only tells a caller where to seek.
package edata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dmc31a42/WargameModInstaller/internal/binfmt"
)

const (
	formatName = "edata header"

	// Magic is "edat" read as a little-endian uint32.
	Magic uint32 = 0x74616465

	HeaderSize = 65

	DefaultDictOffset uint32 = 1037
	DefaultPadding    uint32 = 8192
)

type Header struct {
	Magic      uint32
	Version    uint32
	ChecksumV1 [16]byte
	Skip       byte
	DictOffset uint32
	DictLength uint32
	FileOffset uint32
	FileLength uint32
	Reserved   uint32
	Padding    uint32
	ChecksumV2 [16]byte
}

// Region is a byte range inside an archive.
type Region struct {
	Offset uint32
	Length uint32
}

func (r Region) End() uint64 { return uint64(r.Offset) + uint64(r.Length) }

// Section returns a reader limited to the region.
func (r Region) Section(src io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(src, int64(r.Offset), int64(r.Length))
}

// DecodeHeader parses the first HeaderSize bytes of data. Bytes past the
// header are ignored.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < 4 {
		return nil, binfmt.Truncated(formatName, 0, 4, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != Magic {
		return nil, binfmt.BadMagic(formatName, Magic, magic)
	}
	if len(data) < HeaderSize {
		return nil, binfmt.Truncated(formatName, int64(len(data)), HeaderSize, len(data))
	}

	var h Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, &binfmt.FormatError{Format: formatName, Err: err}
	}
	return &h, nil
}

// ReadHeader reads and decodes the header at the start of r.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, HeaderSize)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading edata header: %w", err)
	}
	return DecodeHeader(buf[:n])
}

func (h *Header) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeHeader(data)
	if err != nil {
		return err
	}
	*h = *decoded
	return nil
}

// MarshalBinary encodes the header exactly as DecodeHeader reads it, so a
// decoded header re-encodes to the original bytes.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("encoding edata header: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *Header) DictionaryRegion() Region {
	return Region{Offset: h.DictOffset, Length: h.DictLength}
}

func (h *Header) FileRegion() Region {
	return Region{Offset: h.FileOffset, Length: h.FileLength}
}

// Validate checks that both regions start after the header and end inside an
// archive of size bytes.
func (h *Header) Validate(size int64) error {
	regions := []struct {
		name   string
		region Region
	}{
		{"dictionary", h.DictionaryRegion()},
		{"file", h.FileRegion()},
	}
	for _, item := range regions {
		if item.region.Offset < HeaderSize {
			return &binfmt.FormatError{
				Format: formatName,
				Offset: int64(item.region.Offset),
				Err:    fmt.Errorf("%w: %s region overlaps header", binfmt.ErrOutOfRange, item.name),
			}
		}
		if size >= 0 && item.region.End() > uint64(size) {
			return &binfmt.FormatError{
				Format: formatName,
				Offset: int64(item.region.Offset),
				Err:    fmt.Errorf("%w: %s region ends at %d, archive is %d bytes", binfmt.ErrOutOfRange, item.name, item.region.End(), size),
			}
		}
	}
	return nil
}
