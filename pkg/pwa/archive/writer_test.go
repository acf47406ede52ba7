package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
)

var runTime = time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "archive_test",
		Level: hclog.Trace,
	})
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range r.File {
		assert.Equal(t, zip.Store, f.Method, f.Name)
		assert.True(t, f.Modified.Equal(runTime), "%s modified %v", f.Name, f.Modified)

		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc) // verifies the CRC at EOF
		require.NoError(t, err, f.Name)
		require.NoError(t, rc.Close())
		files[f.Name] = content
	}
	return files
}

func TestRoundTrip(t *testing.T) {
	logger := testLogger()
	logger.Info("🧪 Writing archive with mixed entries")

	want := map[string][]byte{
		"app/empty.txt":   {},
		"app/hello.txt":   []byte("hello, world\n"),
		"app/icons/x.bin": bytes.Repeat([]byte{0x00, 0xFF, 0x7F}, 5000),
		"app/näme.txt":    []byte("utf-8 name"),
	}
	order := []string{"app/empty.txt", "app/hello.txt", "app/icons/x.bin", "app/näme.txt"}

	w := NewWriter(DefaultCapacity, WithLogger(logger))
	for _, name := range order {
		require.NoError(t, w.Open(name, runTime))
		// split writes exercise the running checksum
		data := want[name]
		half := len(data) / 2
		_, err := w.Write(data[:half])
		require.NoError(t, err)
		_, err = w.Write(data[half:])
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	assert.Equal(t, order, w.Names())

	data, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, want, readZip(t, data))
}

func TestWriteEntry(t *testing.T) {
	w := NewWriter(0)
	assert.Equal(t, DefaultCapacity, w.Cap())

	require.NoError(t, w.WriteEntry("a.txt", runTime, []byte("a")))
	require.NoError(t, w.WriteEntry("b.txt", runTime, []byte("bb")))

	data, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a.txt": []byte("a"), "b.txt": []byte("bb")}, readZip(t, data))
}

func TestDuplicatePathLeavesBufferUntouched(t *testing.T) {
	w := NewWriter(4096)
	require.NoError(t, w.WriteEntry("dup.txt", runTime, []byte("first")))
	before := w.Len()

	err := w.Open("dup.txt", runTime)
	assert.True(t, errors.Is(err, perrors.ErrDuplicatePath), "got %v", err)
	assert.True(t, errors.Is(err, perrors.ErrProtocol))
	assert.Equal(t, before, w.Len())

	err = w.WriteEntry("dup.txt", runTime, []byte("second"))
	assert.True(t, errors.Is(err, perrors.ErrDuplicatePath))
	assert.Equal(t, before, w.Len())

	data, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"dup.txt": []byte("first")}, readZip(t, data))
}

func TestCapacityExceeded(t *testing.T) {
	const capacity = 512

	t.Run("write", func(t *testing.T) {
		w := NewWriter(capacity)
		require.NoError(t, w.Open("big.bin", runTime))
		_, err := w.Write([]byte("kept"))
		require.NoError(t, err)
		before := w.Len()

		n, err := w.Write(make([]byte, capacity))
		assert.Zero(t, n)
		assert.True(t, errors.Is(err, perrors.ErrCapacityExceeded), "got %v", err)
		assert.Equal(t, before, w.Len())

		// the entry is still usable after the failed write
		require.NoError(t, w.Close())
		data, err := w.Finalize()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(data), capacity)
		assert.Equal(t, map[string][]byte{"big.bin": []byte("kept")}, readZip(t, data))
	})

	t.Run("write entry", func(t *testing.T) {
		w := NewWriter(capacity)
		require.NoError(t, w.WriteEntry("small.txt", runTime, []byte("ok")))
		before := w.Len()

		err := w.WriteEntry("big.bin", runTime, make([]byte, capacity))
		assert.True(t, errors.Is(err, perrors.ErrCapacityExceeded), "got %v", err)
		assert.Equal(t, before, w.Len())
		assert.Equal(t, []string{"small.txt"}, w.Names())

		// the failed path was never recorded
		require.NoError(t, w.WriteEntry("big.bin", runTime, []byte("fits")))
	})

	t.Run("open", func(t *testing.T) {
		w := NewWriter(EndOfCentralSize + entryCost("a") - 1)
		err := w.Open("a", runTime)
		assert.True(t, errors.Is(err, perrors.ErrCapacityExceeded), "got %v", err)
		assert.Zero(t, w.Len())
	})

	t.Run("exact fit", func(t *testing.T) {
		payload := []byte("0123456789")
		w := NewWriter(EndOfCentralSize + entryCost("a") + len(payload))
		require.NoError(t, w.WriteEntry("a", runTime, payload))

		data, err := w.Finalize()
		require.NoError(t, err)
		assert.Len(t, data, w.Cap())
	})
}

func TestProtocolViolations(t *testing.T) {
	testCases := []struct {
		name string
		run  func(w *Writer) error
		want error
	}{
		{
			name: "write without entry",
			run: func(w *Writer) error {
				_, err := w.Write([]byte("x"))
				return err
			},
			want: perrors.ErrNoEntryOpen,
		},
		{
			name: "close without entry",
			run:  func(w *Writer) error { return w.Close() },
			want: perrors.ErrNoEntryOpen,
		},
		{
			name: "open while open",
			run: func(w *Writer) error {
				if err := w.Open("a", runTime); err != nil {
					return err
				}
				return w.Open("b", runTime)
			},
			want: perrors.ErrEntryOpen,
		},
		{
			name: "empty path",
			run:  func(w *Writer) error { return w.Open("", runTime) },
			want: perrors.ErrEmptyPath,
		},
		{
			name: "finalize while open",
			run: func(w *Writer) error {
				if err := w.Open("a", runTime); err != nil {
					return err
				}
				_, err := w.Finalize()
				return err
			},
			want: perrors.ErrEntryOpen,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run(NewWriter(4096))
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Equal(t, perrors.KindProtocol, perrors.KindOf(err))
		})
	}
}

func TestOperationsAfterFinalize(t *testing.T) {
	w := NewWriter(4096)
	require.NoError(t, w.WriteEntry("a", runTime, []byte("a")))
	_, err := w.Finalize()
	require.NoError(t, err)

	_, err = w.Finalize()
	assert.True(t, errors.Is(err, perrors.ErrFinalized))
	assert.True(t, errors.Is(w.Open("b", runTime), perrors.ErrFinalized))
	_, err = w.Write([]byte("b"))
	assert.True(t, errors.Is(err, perrors.ErrFinalized))
	assert.True(t, errors.Is(w.Close(), perrors.ErrFinalized))
}

func TestFinalizeReturnsExactSlice(t *testing.T) {
	w := NewWriter(DefaultCapacity)
	require.NoError(t, w.WriteEntry("app/a.txt", runTime, []byte("hello")))
	data, err := w.Finalize()
	require.NoError(t, err)

	assert.Equal(t, len(data), cap(data))

	// appending to the result never reaches into a shared buffer
	grown := append(data, 'x')
	assert.Equal(t, []byte("hello"), readZip(t, data)["app/a.txt"])
	assert.Len(t, grown, len(data)+1)
}

func TestEmptyArchive(t *testing.T) {
	data, err := NewWriter(64).Finalize()
	require.NoError(t, err)
	assert.Len(t, data, EndOfCentralSize)
	assert.Empty(t, readZip(t, data))
}

func TestDirectoryOffsetsMatchLocalHeaders(t *testing.T) {
	w := NewWriter(8192)
	names := []string{"f/one", "f/two/deeper.txt", "f/three"}
	for i, name := range names {
		require.NoError(t, w.WriteEntry(name, runTime, bytes.Repeat([]byte{byte(i)}, 100*(i+1))))
	}
	data, err := w.Finalize()
	require.NoError(t, err)

	le := binary.LittleEndian
	end := data[len(data)-EndOfCentralSize:]
	require.Equal(t, uint32(EndOfCentralSignature), le.Uint32(end[0:4]))
	require.Equal(t, uint16(len(names)), le.Uint16(end[8:10]))
	require.Equal(t, uint16(len(names)), le.Uint16(end[10:12]))

	dirSize := le.Uint32(end[12:16])
	pos := int(le.Uint32(end[16:20]))
	assert.Equal(t, len(data)-EndOfCentralSize, pos+int(dirSize))

	for i, name := range names {
		central := data[pos:]
		require.Equal(t, uint32(CentralHeaderSignature), le.Uint32(central[0:4]), "entry %d", i)
		nameLen := int(le.Uint16(central[28:30]))
		assert.Equal(t, name, string(central[CentralHeaderSize:CentralHeaderSize+nameLen]))

		offset := le.Uint32(central[42:46])
		local := data[offset:]
		require.Equal(t, uint32(LocalHeaderSignature), le.Uint32(local[0:4]), "entry %d local offset %d", i, offset)
		assert.Equal(t, le.Uint32(central[16:20]), le.Uint32(local[14:18]), "crc of %s", name)
		assert.Equal(t, le.Uint32(central[24:28]), le.Uint32(local[22:26]), "size of %s", name)
		assert.Equal(t, name, string(local[LocalHeaderSize:LocalHeaderSize+nameLen]))

		pos += CentralHeaderSize + nameLen
	}
}

func TestUTF8Flag(t *testing.T) {
	w := NewWriter(4096)
	require.NoError(t, w.WriteEntry("ascii.txt", runTime, nil))
	require.NoError(t, w.WriteEntry("ünïcode.txt", runTime, nil))
	data, err := w.Finalize()
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 2)
	assert.Zero(t, r.File[0].Flags&flagUTF8)
	assert.NotZero(t, r.File[1].Flags&flagUTF8)
	assert.False(t, r.File[1].NonUTF8)
}

func TestDOSDateTime(t *testing.T) {
	testCases := []struct {
		name      string
		at        time.Time
		wantDate  uint16
		wantClock uint16
	}{
		{
			name:      "run time",
			at:        runTime,
			wantDate:  uint16(15 | 6<<5 | 43<<9),
			wantClock: uint16(0 | 30<<5 | 10<<11),
		},
		{
			name:      "odd second rounds down",
			at:        time.Date(2000, 1, 1, 0, 0, 59, 0, time.UTC),
			wantDate:  uint16(1 | 1<<5 | 20<<9),
			wantClock: uint16(29),
		},
		{
			name:      "before epoch clamps",
			at:        time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			wantDate:  uint16(1 | 1<<5),
			wantClock: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			date, clock := dosDateTime(tc.at)
			assert.Equal(t, tc.wantDate, date)
			assert.Equal(t, tc.wantClock, clock)
		})
	}
}

func TestManyEntries(t *testing.T) {
	w := NewWriter(DefaultCapacity)
	for i := 0; i < 300; i++ {
		name := "e/" + strings.Repeat("x", i%7) + string(rune('a'+i%26)) + "/" + time.Duration(i).String()
		require.NoError(t, w.WriteEntry(name, runTime, []byte(name)))
	}
	data, err := w.Finalize()
	require.NoError(t, err)

	files := readZip(t, data)
	assert.Len(t, files, 300)
	for name, content := range files {
		assert.Equal(t, name, string(content))
	}
}
