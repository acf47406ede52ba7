// Package pkg is the file-level entry point of pwakit: it reads a source
// image from disk, runs the bundle pipeline and stores or verifies the
// resulting archive.
package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pwakit/pkg/pwa/bundle"
)

// BundleRequest describes one generation run.
type BundleRequest struct {
	SourcePath string
	OutputPath string // defaults to bundle.DownloadName in the working directory
	Metadata   bundle.Metadata
	Capacity   int       // archive capacity in bytes, 0 for the default
	Now        time.Time // run timestamp, zero for the wall clock
}

func (r BundleRequest) timestamp() time.Time {
	if r.Now.IsZero() {
		return time.Now().Truncate(time.Second)
	}
	return r.Now
}

// BuildBundle reads the source image and returns the finished archive.
func BuildBundle(req BundleRequest, logger hclog.Logger) ([]byte, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	source, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	logger.Debug("📥 source read", "path", req.SourcePath, "bytes", len(source))

	gen := bundle.NewGenerator(
		bundle.WithLogger(logger.Named("bundle")),
		bundle.WithCapacity(req.Capacity),
	)
	return gen.Generate(source, req.Metadata, req.timestamp())
}

// GenerateBundle builds the archive and writes it to req.OutputPath,
// returning the path written. Nothing is written when generation fails.
func GenerateBundle(req BundleRequest, logger hclog.Logger) (string, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	data, err := BuildBundle(req, logger)
	if err != nil {
		return "", err
	}

	out := req.OutputPath
	if out == "" {
		out = bundle.DownloadName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}

	logger.Info("💾 bundle written", "path", out, "bytes", len(data))
	return out, nil
}
