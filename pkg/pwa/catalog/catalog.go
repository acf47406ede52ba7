// Package catalog defines the fixed icon set every bundle carries and the
// archive paths of the generated files.
package catalog

import "fmt"

// Link relations used when referencing an icon from index.html.
const (
	RelIcon         = "icon"
	RelShortcutIcon = "shortcut icon"
	RelAppleTouch   = "apple-touch-icon"
)

// Bundle file names, relative to the bundle folder.
const (
	FaviconFile            = "favicon.ico"
	ManifestFile           = "manifest.json"
	IndexFile              = "index.html"
	ServiceWorkerFile      = "service_worker.js"
	StartServiceWorkerFile = "start_service_worker.js"
)

// IconSpec is one generated PNG icon.
type IconSpec struct {
	Side uint   // Square side length in pixels
	Path string // Path relative to the bundle folder
	Rel  string // Link relation in index.html

	// Manifest entries only
	InManifest bool
	Density    string
	Purpose    string
}

// Sizes returns the "WxH" form used by manifest and link tags.
func (s IconSpec) Sizes() string {
	return fmt.Sprintf("%dx%d", s.Side, s.Side)
}

// Icons is the canonical catalog, in generation order.
var Icons = []IconSpec{
	{Side: 32, Path: "icons/icon-032.png", Rel: RelIcon},
	{Side: 72, Path: "icons/icon-072.png", Rel: RelIcon, InManifest: true, Density: "1.5"},
	{Side: 96, Path: "icons/icon-096.png", Rel: RelIcon, InManifest: true, Density: "2.0"},
	{Side: 120, Path: "icons/icon-120.png", Rel: RelAppleTouch},
	{Side: 128, Path: "icons/icon-128.png", Rel: RelIcon, InManifest: true, Density: "2.5"},
	{Side: 144, Path: "icons/icon-144.png", Rel: RelIcon, InManifest: true, Density: "3.0"},
	{Side: 152, Path: "icons/icon-152.png", Rel: RelAppleTouch, InManifest: true, Density: "3.2"},
	{Side: 167, Path: "icons/icon-167.png", Rel: RelAppleTouch},
	{Side: 180, Path: "icons/icon-180.png", Rel: RelAppleTouch},
	{Side: 192, Path: "icons/icon-192.png", Rel: RelIcon, InManifest: true, Density: "4.0"},
	{Side: 196, Path: "icons/icon-196.png", Rel: RelShortcutIcon},
	{Side: 512, Path: "icons/icon-512.png", Rel: RelIcon, InManifest: true},
	{Side: 192, Path: "icons/icon-maskable.png", Rel: RelIcon, InManifest: true, Density: "4.0", Purpose: "any maskable"},
}

// FaviconSizes are the images packed into favicon.ico, strictly increasing.
var FaviconSizes = []uint{16, 32, 48}

// ManifestIcons returns the catalog entries listed in manifest.json.
func ManifestIcons() []IconSpec {
	var icons []IconSpec
	for _, icon := range Icons {
		if icon.InManifest {
			icons = append(icons, icon)
		}
	}
	return icons
}

// ArchivePath roots a bundle-relative path under folder. The folder is an
// opaque prefix: it is neither cleaned nor checked for traversal.
func ArchivePath(folder, rel string) string {
	return folder + "/" + rel
}

// Paths returns every archive path of a bundle in write order.
func Paths(folder string) []string {
	paths := []string{ArchivePath(folder, FaviconFile)}
	for _, icon := range Icons {
		paths = append(paths, ArchivePath(folder, icon.Path))
	}
	return append(paths,
		ArchivePath(folder, ManifestFile),
		ArchivePath(folder, IndexFile),
		ArchivePath(folder, ServiceWorkerFile),
		ArchivePath(folder, StartServiceWorkerFile),
	)
}
