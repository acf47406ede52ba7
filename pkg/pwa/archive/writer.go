// Package archive assembles a ZIP archive of stored (uncompressed) entries
// inside a buffer of fixed capacity.
//
// The writer moves through Empty -> EntryOpen -> Empty ... -> Finalized.
// Room for the central directory is reserved as each entry is opened, so a
// capacity failure is always reported by the Open or Write that overflows and
// never by Finalize.
package archive

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
)

// DefaultCapacity is the buffer size used for one bundle.
const DefaultCapacity = 2 << 20

type entry struct {
	name   string
	flags  uint16
	date   uint16
	clock  uint16
	offset uint32
	size   uint32
	crc    uint32
}

// Writer builds one archive. It is not safe for concurrent use.
type Writer struct {
	buf      []byte
	capacity int
	reserved int // central directory bytes promised to opened entries

	entries   []entry
	names     map[string]struct{}
	current   *entry
	crc       uint32
	finalized bool

	logger hclog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used for entry tracing.
func WithLogger(logger hclog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter allocates a writer with the given capacity in bytes. A
// non-positive capacity selects DefaultCapacity; values beyond the 32-bit
// offsets of the format are clamped.
func NewWriter(capacity int, opts ...Option) *Writer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if uint64(capacity) > math.MaxUint32 {
		capacity = math.MaxUint32
	}

	w := &Writer{
		buf:      make([]byte, 0, capacity),
		capacity: capacity,
		reserved: EndOfCentralSize,
		names:    make(map[string]struct{}),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Cap returns the fixed capacity of the buffer.
func (w *Writer) Cap() int { return w.capacity }

// Names returns the paths of the closed entries in write order.
func (w *Writer) Names() []string {
	names := make([]string, len(w.entries))
	for i, e := range w.entries {
		names[i] = e.name
	}
	return names
}

// available is the number of content bytes that can still be written.
func (w *Writer) available() int {
	return w.capacity - len(w.buf) - w.reserved
}

// entryCost is what opening name consumes besides its content.
func entryCost(name string) int {
	return LocalHeaderSize + CentralHeaderSize + 2*len(name)
}

func (w *Writer) checkOpen(name string) error {
	switch {
	case w.finalized:
		return perrors.ErrFinalized
	case w.current != nil:
		return fmt.Errorf("%w: %q while opening %q", perrors.ErrEntryOpen, w.current.name, name)
	case name == "":
		return perrors.ErrEmptyPath
	case len(name) > math.MaxUint16:
		return fmt.Errorf("%w: path of %d bytes", perrors.ErrProtocol, len(name))
	case len(w.entries) >= MaxEntries:
		return fmt.Errorf("%w: limit is %d", perrors.ErrTooManyEntries, MaxEntries)
	}
	if _, dup := w.names[name]; dup {
		return fmt.Errorf("%w: %s", perrors.ErrDuplicatePath, name)
	}
	return nil
}

// Open starts a new entry. It fails without touching the buffer if an entry
// is already open, the path was used before, or the headers do not fit.
func (w *Writer) Open(name string, modified time.Time) error {
	if err := w.checkOpen(name); err != nil {
		return err
	}
	if cost := entryCost(name); cost > w.available() {
		return fmt.Errorf("%w: %s needs %d header bytes, %d available",
			perrors.ErrCapacityExceeded, name, cost, w.available())
	}
	w.begin(name, modified)
	return nil
}

func (w *Writer) begin(name string, modified time.Time) {
	e := entry{
		name:   name,
		offset: uint32(len(w.buf)),
	}
	if !isASCII(name) && utf8.ValidString(name) {
		e.flags |= flagUTF8
	}
	e.date, e.clock = dosDateTime(modified)

	local := LocalHeader{
		Flags:        e.flags,
		ModifiedTime: e.clock,
		ModifiedDate: e.date,
		Name:         name,
	}
	w.buf = append(w.buf, local.Pack()...)
	w.reserved += CentralHeaderSize + len(name)
	w.current = &e
	w.crc = 0

	w.logger.Trace("📦 entry opened", "path", name, "offset", e.offset)
}

// Write appends p to the open entry. It writes all of p or nothing.
func (w *Writer) Write(p []byte) (int, error) {
	switch {
	case w.finalized:
		return 0, perrors.ErrFinalized
	case w.current == nil:
		return 0, perrors.ErrNoEntryOpen
	case len(p) > w.available():
		return 0, fmt.Errorf("%w: %s: writing %d bytes, %d available",
			perrors.ErrCapacityExceeded, w.current.name, len(p), w.available())
	}

	w.buf = append(w.buf, p...)
	w.crc = crc32.Update(w.crc, crc32.IEEETable, p)
	return len(p), nil
}

// Close seals the open entry, back-patching its checksum and sizes into the
// local header.
func (w *Writer) Close() error {
	switch {
	case w.finalized:
		return perrors.ErrFinalized
	case w.current == nil:
		return perrors.ErrNoEntryOpen
	}

	e := *w.current
	e.crc = w.crc
	e.size = uint32(len(w.buf)) - e.offset - uint32(LocalHeaderSize+len(e.name))

	local := w.buf[e.offset:]
	binary.LittleEndian.PutUint32(local[localCRCOffset:], e.crc)
	binary.LittleEndian.PutUint32(local[localSizeOffset:], e.size)   // compressed
	binary.LittleEndian.PutUint32(local[localSizeOffset+4:], e.size) // uncompressed

	w.entries = append(w.entries, e)
	w.names[e.name] = struct{}{}
	w.current = nil

	w.logger.Trace("📦 entry closed", "path", e.name, "size", e.size, "crc32", fmt.Sprintf("%08x", e.crc))
	return nil
}

// WriteEntry writes a complete entry. When the entry cannot fit, nothing is
// written and the archive is left as it was.
func (w *Writer) WriteEntry(name string, modified time.Time, data []byte) error {
	if err := w.checkOpen(name); err != nil {
		return err
	}
	if need := entryCost(name) + len(data); need > w.available() {
		return fmt.Errorf("%w: %s needs %d bytes, %d available",
			perrors.ErrCapacityExceeded, name, need, w.available())
	}

	w.begin(name, modified)
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

// Finalize writes the central directory and returns the archive bytes in a
// slice whose capacity equals its length. The writer releases its buffer:
// every later call fails with ErrFinalized.
func (w *Writer) Finalize() ([]byte, error) {
	switch {
	case w.finalized:
		return nil, perrors.ErrFinalized
	case w.current != nil:
		return nil, fmt.Errorf("%w: %q not closed", perrors.ErrEntryOpen, w.current.name)
	}

	dirOffset := uint32(len(w.buf))
	for _, e := range w.entries {
		central := CentralHeader{
			Flags:            e.flags,
			ModifiedTime:     e.clock,
			ModifiedDate:     e.date,
			CRC32:            e.crc,
			CompressedSize:   e.size,
			UncompressedSize: e.size,
			LocalOffset:      e.offset,
			Name:             e.name,
		}
		w.buf = append(w.buf, central.Pack()...)
	}

	end := EndOfCentral{
		Entries:         uint16(len(w.entries)),
		DirectorySize:   uint32(len(w.buf)) - dirOffset,
		DirectoryOffset: dirOffset,
	}
	w.buf = append(w.buf, end.Pack()...)

	// exact-size copy so the capacity buffer can be released
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	w.buf = nil
	w.reserved = 0
	w.finalized = true

	w.logger.Debug("📦 archive finalized", "entries", len(w.entries), "bytes", len(out), "capacity", w.capacity)
	return out, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
