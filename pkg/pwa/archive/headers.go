package archive

import "encoding/binary"

// Record signatures and fixed sizes of the ZIP structures written here.
const (
	LocalHeaderSignature   = 0x04034b50
	CentralHeaderSignature = 0x02014b50
	EndOfCentralSignature  = 0x06054b50

	LocalHeaderSize   = 30
	CentralHeaderSize = 46
	EndOfCentralSize  = 22

	MethodStored = 0

	// version 1.0 is enough to extract stored entries
	versionNeeded = 10
	// 2.0, MS-DOS attribute compatibility
	versionMadeBy = 20

	flagUTF8 = 0x800

	MaxEntries = 0xFFFF
)

// Offsets of the fields patched on Close, relative to the local header.
const (
	localCRCOffset  = 14
	localSizeOffset = 18
)

// LocalHeader precedes the content of every entry.
type LocalHeader struct {
	Flags            uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             string
}

// Pack serializes the header to bytes
func (h *LocalHeader) Pack() []byte {
	buf := make([]byte, LocalHeaderSize+len(h.Name))
	binary.LittleEndian.PutUint32(buf[0:4], LocalHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], versionNeeded)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], MethodStored)
	binary.LittleEndian.PutUint16(buf[10:12], h.ModifiedTime)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModifiedDate)
	binary.LittleEndian.PutUint32(buf[14:18], h.CRC32)
	binary.LittleEndian.PutUint32(buf[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(h.Name)))
	binary.LittleEndian.PutUint16(buf[28:30], 0) // extra length
	copy(buf[LocalHeaderSize:], h.Name)
	return buf
}

// CentralHeader is the directory record of one entry.
type CentralHeader struct {
	Flags            uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	LocalOffset      uint32
	Name             string
}

// Pack serializes the header to bytes
func (h *CentralHeader) Pack() []byte {
	buf := make([]byte, CentralHeaderSize+len(h.Name))
	binary.LittleEndian.PutUint32(buf[0:4], CentralHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], versionMadeBy)
	binary.LittleEndian.PutUint16(buf[6:8], versionNeeded)
	binary.LittleEndian.PutUint16(buf[8:10], h.Flags)
	binary.LittleEndian.PutUint16(buf[10:12], MethodStored)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModifiedTime)
	binary.LittleEndian.PutUint16(buf[14:16], h.ModifiedDate)
	binary.LittleEndian.PutUint32(buf[16:20], h.CRC32)
	binary.LittleEndian.PutUint32(buf[20:24], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(h.Name)))
	// extra length, comment length, disk number start, internal and
	// external attributes all stay zero
	binary.LittleEndian.PutUint32(buf[42:46], h.LocalOffset)
	copy(buf[CentralHeaderSize:], h.Name)
	return buf
}

// EndOfCentral closes the archive and locates the central directory.
type EndOfCentral struct {
	Entries         uint16
	DirectorySize   uint32
	DirectoryOffset uint32
}

// Pack serializes the record to bytes
func (e *EndOfCentral) Pack() []byte {
	buf := make([]byte, EndOfCentralSize)
	binary.LittleEndian.PutUint32(buf[0:4], EndOfCentralSignature)
	// disk numbers stay zero
	binary.LittleEndian.PutUint16(buf[8:10], e.Entries)
	binary.LittleEndian.PutUint16(buf[10:12], e.Entries)
	binary.LittleEndian.PutUint32(buf[12:16], e.DirectorySize)
	binary.LittleEndian.PutUint32(buf[16:20], e.DirectoryOffset)
	binary.LittleEndian.PutUint16(buf[20:22], 0) // comment length
	return buf
}
