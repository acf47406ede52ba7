// Package favicon encodes the multi-resolution favicon.ico container.
//
// The container is an ICONDIR header, one ICONDIRENTRY per image and the
// concatenated image payloads. Consumers locate every payload through the
// offset and length recorded in its directory entry. Header, DirEntry and
// Parse read that layout back without decoding any pixels.
package favicon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"
	ico "github.com/sergeymakinen/go-ico"

	"github.com/provide-io/pwakit/pkg/pwa/catalog"
	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
	"github.com/provide-io/pwakit/pkg/pwa/raster"
)

const (
	HeaderSize   = 6
	DirEntrySize = 16

	// TypeIcon is the ICONDIR resource type for .ico files (2 is .cur).
	TypeIcon = 1

	// MaxSide is the largest side a directory entry can describe.
	MaxSide = 256
)

// Header is the ICONDIR record.
type Header struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

// Pack serializes the header to bytes
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Reserved)
	binary.LittleEndian.PutUint16(buf[2:4], h.Type)
	binary.LittleEndian.PutUint16(buf[4:6], h.Count)
	return buf
}

// Unpack deserializes the header from bytes
func (h *Header) Unpack(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("icon header too short: %d bytes", len(data))
	}
	h.Reserved = binary.LittleEndian.Uint16(data[0:2])
	h.Type = binary.LittleEndian.Uint16(data[2:4])
	h.Count = binary.LittleEndian.Uint16(data[4:6])
	return nil
}

// DirEntry is one ICONDIRENTRY record.
type DirEntry struct {
	Width      uint8 // 0 means 256
	Height     uint8 // 0 means 256
	Colors     uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

// Pack serializes the entry to bytes
func (e *DirEntry) Pack() []byte {
	buf := make([]byte, DirEntrySize)
	buf[0] = e.Width
	buf[1] = e.Height
	buf[2] = e.Colors
	buf[3] = e.Reserved
	binary.LittleEndian.PutUint16(buf[4:6], e.Planes)
	binary.LittleEndian.PutUint16(buf[6:8], e.BitCount)
	binary.LittleEndian.PutUint32(buf[8:12], e.BytesInRes)
	binary.LittleEndian.PutUint32(buf[12:16], e.Offset)
	return buf
}

// Unpack deserializes the entry from bytes
func (e *DirEntry) Unpack(data []byte) error {
	if len(data) < DirEntrySize {
		return fmt.Errorf("icon directory entry too short: %d bytes", len(data))
	}
	e.Width = data[0]
	e.Height = data[1]
	e.Colors = data[2]
	e.Reserved = data[3]
	e.Planes = binary.LittleEndian.Uint16(data[4:6])
	e.BitCount = binary.LittleEndian.Uint16(data[6:8])
	e.BytesInRes = binary.LittleEndian.Uint32(data[8:12])
	e.Offset = binary.LittleEndian.Uint32(data[12:16])
	return nil
}

// Side returns the decoded width, mapping the wrapped 0 back to 256.
func (e *DirEntry) Side() int {
	if e.Width == 0 {
		return MaxSide
	}
	return int(e.Width)
}

// Encode builds a favicon.ico holding one image per size, in the order
// given. Sides below 256 are stored as DIBs and 256 as PNG. Every
// size is validated and resized before the container is written, so either
// the whole container is returned or no bytes are.
func Encode(src *image.NRGBA, sizes []uint, logger hclog.Logger) ([]byte, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: favicon needs at least one size", perrors.ErrEncode)
	}
	for _, side := range sizes {
		if side == 0 || side > MaxSide {
			return nil, fmt.Errorf("%w: favicon size %d outside 1..%d", perrors.ErrEncode, side, MaxSide)
		}
	}

	images := make([]image.Image, len(sizes))
	for i, side := range sizes {
		img, err := raster.Resize(src, side)
		if err != nil {
			return nil, fmt.Errorf("favicon %dx%d: %w", side, side, err)
		}
		images[i] = img
	}

	var out bytes.Buffer
	if err := ico.EncodeAll(&out, images); err != nil {
		return nil, fmt.Errorf("%w: favicon: %v", perrors.ErrEncode, err)
	}

	logger.Debug("🖼️ favicon encoded", "images", len(sizes), "bytes", out.Len())
	return out.Bytes(), nil
}

// EncodeDefault encodes the catalog favicon sizes.
func EncodeDefault(src *image.NRGBA, logger hclog.Logger) ([]byte, error) {
	return Encode(src, catalog.FaviconSizes, logger)
}

// Parse reads the directory of an .ico container and checks that every
// recorded payload lies within data.
func Parse(data []byte) ([]DirEntry, error) {
	var header Header
	if err := header.Unpack(data); err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrDecode, err)
	}
	if header.Reserved != 0 || header.Type != TypeIcon {
		return nil, fmt.Errorf("%w: not an icon container (reserved=%d type=%d)",
			perrors.ErrDecode, header.Reserved, header.Type)
	}

	dirEnd := HeaderSize + DirEntrySize*int(header.Count)
	if len(data) < dirEnd {
		return nil, fmt.Errorf("%w: directory of %d entries truncated", perrors.ErrDecode, header.Count)
	}

	entries := make([]DirEntry, header.Count)
	for i := range entries {
		at := HeaderSize + DirEntrySize*i
		if err := entries[i].Unpack(data[at : at+DirEntrySize]); err != nil {
			return nil, fmt.Errorf("%w: %v", perrors.ErrDecode, err)
		}
		start := uint64(entries[i].Offset)
		end := start + uint64(entries[i].BytesInRes)
		if start < uint64(dirEnd) || end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: entry %d payload [%d, %d) outside container of %d bytes",
				perrors.ErrDecode, i, start, end, len(data))
		}
	}
	return entries, nil
}

// Images decodes every image of an .ico container in directory order.
func Images(data []byte) ([]image.Image, error) {
	images, err := ico.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrDecode, err)
	}
	return images, nil
}

// Payload returns the bytes of entry e within data. e must come from Parse.
func Payload(data []byte, e DirEntry) []byte {
	return data[e.Offset : e.Offset+e.BytesInRes]
}
