package assets

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/provide-io/pwakit/pkg/pwa/catalog"
)

// Fixed manifest presentation fields.
const (
	BackgroundColor = "#000000"
	ThemeColor      = "#000000"
	Display         = "standalone"
	Orientation     = "portrait"
)

// ManifestIcon is one entry of the manifest icons array.
type ManifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Density string `json:"density,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// Manifest is the web app manifest document.
type Manifest struct {
	ShortName       string         `json:"short_name"`
	Name            string         `json:"name"`
	Icons           []ManifestIcon `json:"icons"`
	StartURL        string         `json:"start_url"`
	BackgroundColor string         `json:"background_color"`
	Display         string         `json:"display"`
	Orientation     string         `json:"orientation"`
	ThemeColor      string         `json:"theme_color"`
}

// NewManifest fills a manifest from the catalog.
func NewManifest(shortName, name, folder string) Manifest {
	m := Manifest{
		ShortName:       shortName,
		Name:            name,
		StartURL:        "/" + folder + "/" + catalog.IndexFile,
		BackgroundColor: BackgroundColor,
		Display:         Display,
		Orientation:     Orientation,
		ThemeColor:      ThemeColor,
	}
	for _, icon := range catalog.ManifestIcons() {
		m.Icons = append(m.Icons, ManifestIcon{
			Src:     icon.Path,
			Sizes:   icon.Sizes(),
			Type:    "image/png",
			Density: icon.Density,
			Purpose: icon.Purpose,
		})
	}
	return m
}

// RenderManifest renders manifest.json.
//
// Strings are JSON-escaped with the markup characters written as \u
// sequences, so no raw & " ' < > from user input reaches the document and a
// JSON parser still recovers the original text.
func RenderManifest(shortName, name, folder string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	enc.SetIndent("", "    ")
	if err := enc.Encode(NewManifest(shortName, name, folder)); err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	// encoding/json leaves apostrophes alone. All keys are fixed
	// identifiers, so any apostrophe sits inside a string value.
	out := bytes.ReplaceAll(bytes.TrimRight(buf.Bytes(), "\n"), []byte("'"), []byte(`\u0027`))
	return string(out), nil
}
