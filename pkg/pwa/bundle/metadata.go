package bundle

import "github.com/provide-io/pwakit/pkg/pwa/catalog"

// DownloadName is the suggested file name of a finished bundle.
const DownloadName = "pwa_minimal_files.zip"

// Metadata is the free-form text describing the app. It is only ever
// HTML- or JSON-escaped, never validated. Folder is an opaque path prefix.
type Metadata struct {
	ShortName   string `json:"short_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Folder      string `json:"folder"`
}

// Entries lists every archive path of a bundle for meta, in write order.
func Entries(meta Metadata) []string {
	return catalog.Paths(meta.Folder)
}
