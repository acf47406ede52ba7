// Package assets renders the text files of a bundle: manifest.json,
// index.html and the two service worker scripts.
package assets

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/provide-io/pwakit/pkg/pwa/catalog"
)

//go:embed templates/*
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// VersionToken formats t as the service worker cache version, YYYY.MMDD.HHmm.
func VersionToken(t time.Time) string {
	return t.Format("2006.0102.1504")
}

func execute(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return sb.String(), nil
}

type iconLink struct {
	Rel   string
	Href  string
	Sizes string
}

type indexPage struct {
	ShortName    string
	Name         string
	Description  string
	Favicon      string
	FaviconSizes string
	Icons        []iconLink
	Manifest     string
	StartScript  string
	ThemeColor   string
}

// RenderIndexHTML renders index.html. Every user field is HTML-encoded
// before interpolation. All references are relative to the folder the page
// is served from.
func RenderIndexHTML(shortName, name, description string) (string, error) {
	sizes := make([]string, len(catalog.FaviconSizes))
	for i, s := range catalog.FaviconSizes {
		sizes[i] = catalog.IconSpec{Side: s}.Sizes()
	}

	page := indexPage{
		ShortName:    HTMLEncode(shortName),
		Name:         HTMLEncode(name),
		Description:  HTMLEncode(description),
		Favicon:      catalog.FaviconFile,
		FaviconSizes: strings.Join(sizes, " "),
		Manifest:     catalog.ManifestFile,
		StartScript:  catalog.StartServiceWorkerFile,
		ThemeColor:   ThemeColor,
	}
	for _, icon := range catalog.Icons {
		page.Icons = append(page.Icons, iconLink{Rel: icon.Rel, Href: icon.Path, Sizes: icon.Sizes()})
	}
	return execute("index.html.tmpl", page)
}

// RenderServiceWorker renders service_worker.js with versionToken as the
// cache name.
func RenderServiceWorker(versionToken string) (string, error) {
	return execute("service_worker.js.tmpl", struct {
		CacheName string
		IndexFile string
	}{CacheName: versionToken, IndexFile: catalog.IndexFile})
}

// RenderStartServiceWorker returns the static registration script.
func RenderStartServiceWorker() (string, error) {
	data, err := templateFS.ReadFile("templates/" + catalog.StartServiceWorkerFile)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", catalog.StartServiceWorkerFile, err)
	}
	return string(data), nil
}
