// Package bundle runs the asset pipeline: one source image and the app
// metadata in, one finished archive out.
package bundle

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pwakit/pkg/pwa/archive"
	"github.com/provide-io/pwakit/pkg/pwa/assets"
	"github.com/provide-io/pwakit/pkg/pwa/catalog"
	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
	"github.com/provide-io/pwakit/pkg/pwa/favicon"
	"github.com/provide-io/pwakit/pkg/pwa/raster"
)

// Generator produces bundles. A Generator holds no per-run state and may be
// reused; each Generate call owns its own archive buffer.
type Generator struct {
	capacity int
	logger   hclog.Logger
}

// NewGenerator creates a generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := defaultGenerator()
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a bundle with the default settings.
func Generate(source []byte, meta Metadata, ts time.Time) ([]byte, error) {
	return NewGenerator().Generate(source, meta, ts)
}

// run carries the state of one Generate call.
type run struct {
	meta   Metadata
	ts     time.Time
	zip    *archive.Writer
	logger hclog.Logger
}

func (r *run) add(rel string, data []byte) error {
	path := catalog.ArchivePath(r.meta.Folder, rel)
	if err := r.zip.WriteEntry(path, r.ts, data); err != nil {
		return fmt.Errorf("failed to add %s: %w", path, err)
	}
	r.logger.Debug("📄 added", "path", path, "bytes", len(data), "archive", r.zip.Len())
	return nil
}

// Generate decodes source, renders every asset and returns the finished
// archive. Any failure aborts the run and no archive is returned. Every
// entry is stamped with ts.
func (g *Generator) Generate(source []byte, meta Metadata, ts time.Time) ([]byte, error) {
	img, format, err := raster.Decode(source)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("🖼️ source decoded", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	r := &run{
		meta:   meta,
		ts:     ts,
		zip:    archive.NewWriter(g.capacity, archive.WithLogger(g.logger)),
		logger: g.logger,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{name: "favicon", fn: func() error { return r.addFavicon(img) }},
		{name: "icons", fn: func() error { return r.addIcons(img) }},
		{name: "manifest", fn: r.addManifest},
		{name: "index", fn: r.addIndex},
		{name: "service workers", fn: r.addServiceWorkers},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			g.logger.Error("❌ bundle step failed", "step", step.name, "kind", perrors.KindOf(err).String(), "error", err)
			return nil, err
		}
	}

	out, err := r.zip.Finalize()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	g.logger.Info("✅ bundle generated", "folder", meta.Folder, "bytes", len(out), "capacity", g.capacity)
	return out, nil
}

func (r *run) addFavicon(img *image.NRGBA) error {
	ico, err := favicon.EncodeDefault(img, r.logger)
	if err != nil {
		return err
	}
	return r.add(catalog.FaviconFile, ico)
}

func (r *run) addIcons(img *image.NRGBA) error {
	for _, icon := range catalog.Icons {
		scaled, err := raster.Resize(img, icon.Side)
		if err != nil {
			return fmt.Errorf("icon %s: %w", icon.Path, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, scaled); err != nil {
			return fmt.Errorf("%w: icon %s: %v", perrors.ErrEncode, icon.Path, err)
		}
		if err := r.add(icon.Path, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) addManifest() error {
	doc, err := assets.RenderManifest(r.meta.ShortName, r.meta.Name, r.meta.Folder)
	if err != nil {
		return err
	}
	return r.add(catalog.ManifestFile, []byte(doc))
}

func (r *run) addIndex() error {
	page, err := assets.RenderIndexHTML(r.meta.ShortName, r.meta.Name, r.meta.Description)
	if err != nil {
		return err
	}
	return r.add(catalog.IndexFile, []byte(page))
}

func (r *run) addServiceWorkers() error {
	sw, err := assets.RenderServiceWorker(assets.VersionToken(r.ts))
	if err != nil {
		return err
	}
	if err := r.add(catalog.ServiceWorkerFile, []byte(sw)); err != nil {
		return err
	}

	start, err := assets.RenderStartServiceWorker()
	if err != nil {
		return err
	}
	return r.add(catalog.StartServiceWorkerFile, []byte(start))
}
