package pkg

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pwakit/pkg/logging"
	"github.com/provide-io/pwakit/pkg/pwa/assets"
	"github.com/provide-io/pwakit/pkg/pwa/catalog"
	"github.com/provide-io/pwakit/pkg/pwa/favicon"
)

// EntryInfo describes one archive entry.
type EntryInfo struct {
	Name     string
	Size     uint64
	CRC32    uint32
	Modified time.Time
	Stored   bool
}

// ArchiveReport lists the entries of a verified archive.
type ArchiveReport struct {
	Entries []EntryInfo
}

// VerifyArchiveWithLogger re-reads an archive and checks that every entry is
// stored with a valid checksum, that favicon.ico and manifest.json parse, and
// that every icon the manifest lists is present. All problems are reported
// together.
func VerifyArchiveWithLogger(data []byte, logger hclog.Logger) (*ArchiveReport, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	// ErrInsecurePath still yields a usable reader; bundle folders are
	// opaque prefixes and may legitimately contain ".."
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && r == nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	logger.Info("Verifying archive integrity", "entries", len(r.File))

	report := &ArchiveReport{}
	contents := make(map[string][]byte, len(r.File))
	errors := []string{}

	for _, f := range r.File {
		report.Entries = append(report.Entries, EntryInfo{
			Name:     f.Name,
			Size:     f.UncompressedSize64,
			CRC32:    f.CRC32,
			Modified: f.Modified,
			Stored:   f.Method == zip.Store,
		})

		if f.Method != zip.Store {
			errors = append(errors, fmt.Sprintf("%s is compressed (method %d)", f.Name, f.Method))
			logger.Error("Entry not stored", "path", f.Name, "method", f.Method)
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s read failed: %v", f.Name, err))
			logger.Error("Entry checksum failed", "path", f.Name, "error", err)
			continue
		}
		contents[f.Name] = content
		logger.Debug("✓ Entry checksum valid", "path", f.Name, "size", len(content))
	}

	for _, entry := range report.Entries {
		name := entry.Name
		content, ok := contents[name]
		if !ok {
			continue
		}
		switch path.Base(name) {
		case catalog.FaviconFile:
			if err := verifyFavicon(content); err != nil {
				errors = append(errors, fmt.Sprintf("%s: %v", name, err))
				logger.Error("Favicon verification failed", "path", name, "error", err)
			} else {
				logger.Info("✓ Favicon valid", "path", name)
			}
		case catalog.ManifestFile:
			missing, err := verifyManifest(content, strings.TrimSuffix(name, "/"+catalog.ManifestFile), contents)
			if err != nil {
				errors = append(errors, fmt.Sprintf("%s: %v", name, err))
				logger.Error("Manifest verification failed", "path", name, "error", err)
				continue
			}
			for _, m := range missing {
				errors = append(errors, fmt.Sprintf("%s lists missing icon %s", name, m))
				logger.Error("Manifest icon missing", "path", name, "icon", m)
			}
			if len(missing) == 0 {
				logger.Info("✓ Manifest icons present", "path", name)
			}
		}
	}

	if len(errors) == 0 {
		logger.Info("✓ Archive verification passed")
		return report, nil
	}

	logger.Error("✗ Archive verification failed", "error_count", len(errors))
	for _, e := range errors {
		logger.Error("  Verification error", "details", e)
	}
	return report, fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(errors, "; "))
}

// VerifyArchive verifies the archive at archivePath using default logger
// settings.
func VerifyArchive(archivePath string) (*ArchiveReport, error) {
	logger := logging.NewLogger("pwakit-verify", logging.GetLogLevel(), nil)

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return VerifyArchiveWithLogger(data, logger)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	// the checksum is compared once the reader reaches EOF
	return io.ReadAll(rc)
}

func verifyFavicon(data []byte) error {
	entries, err := favicon.Parse(data)
	if err != nil {
		return err
	}
	images, err := favicon.Images(data)
	if err != nil {
		return err
	}
	if len(images) != len(entries) {
		return fmt.Errorf("directory lists %d images, %d decoded", len(entries), len(images))
	}
	for i, e := range entries {
		size := images[i].Bounds().Size()
		if size.X != e.Side() || size.Y != e.Side() {
			return fmt.Errorf("image %d is %dx%d, directory says %d", i, size.X, size.Y, e.Side())
		}
	}
	return nil
}

func verifyManifest(data []byte, folder string, contents map[string][]byte) ([]string, error) {
	var m assets.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	var missing []string
	for _, icon := range m.Icons {
		if _, ok := contents[catalog.ArchivePath(folder, icon.Src)]; !ok {
			missing = append(missing, icon.Src)
		}
	}
	return missing, nil
}
