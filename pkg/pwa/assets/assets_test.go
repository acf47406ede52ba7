package assets

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/provide-io/pwakit/pkg/pwa/catalog"
)

const hostile = `Tom & Jerry's "<b>best</b>" app`

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "assets_test",
		Level: hclog.Trace,
	})
}

func TestHTMLEncode(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a&b", want: "a&amp;b"},
		{in: `"q"`, want: "&quot;q&quot;"},
		{in: "it's", want: "it&apos;s"},
		{in: "<x>", want: "&lt;x&gt;"},
		{in: "&amp;", want: "&amp;amp;"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, HTMLEncode(tc.in))
		})
	}
}

func TestVersionToken(t *testing.T) {
	testCases := []struct {
		at   time.Time
		want string
	}{
		{at: time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC), want: "2023.0615.1030"},
		{at: time.Date(2024, 1, 2, 3, 4, 59, 0, time.UTC), want: "2024.0102.0304"},
		{at: time.Date(1999, 12, 31, 23, 59, 0, 0, time.UTC), want: "1999.1231.2359"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, VersionToken(tc.at))
	}
}

func TestRenderManifestMatchesSchema(t *testing.T) {
	logger := testLogger()
	logger.Info("🧪 Validating manifest against schema")

	doc, err := RenderManifest("T", "Test App", "test")
	require.NoError(t, err)
	assert.Contains(t, doc, `"start_url": "/test/index.html"`)

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "manifest.schema.json"))
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(schemaPath)),
		gojsonschema.NewStringLoader(doc),
	)
	require.NoError(t, err)
	for _, e := range result.Errors() {
		logger.Error("schema violation", "field", e.Field(), "error", e.Description())
	}
	assert.True(t, result.Valid())
}

func TestRenderManifestIcons(t *testing.T) {
	doc, err := RenderManifest("T", "Test App", "test")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(doc), &m))
	require.Len(t, m.Icons, len(catalog.ManifestIcons()))

	maskable := m.Icons[len(m.Icons)-1]
	assert.Equal(t, "icons/icon-maskable.png", maskable.Src)
	assert.Equal(t, "any maskable", maskable.Purpose)
	assert.Equal(t, "192x192", maskable.Sizes)

	assert.Equal(t, "1.5", m.Icons[0].Density)
	assert.Empty(t, m.Icons[6].Density, "512 icon carries no density")
	assert.Equal(t, Display, m.Display)
	assert.Equal(t, Orientation, m.Orientation)
}

func TestRenderManifestEscapesUserText(t *testing.T) {
	doc, err := RenderManifest(hostile, hostile, "f")
	require.NoError(t, err)

	for _, raw := range []string{"&", "'", "<", ">", `"<b>`} {
		assert.NotContains(t, doc, raw)
	}

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(doc), &m))
	assert.Equal(t, hostile, m.ShortName)
	assert.Equal(t, hostile, m.Name)
}

func TestRenderIndexHTMLRoundTrip(t *testing.T) {
	page, err := RenderIndexHTML(hostile, hostile, "desc <i>"+hostile+"</i>")
	require.NoError(t, err)
	assert.NotContains(t, page, "<b>")
	assert.NotContains(t, page, "<i>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, hostile, doc.Find("title").Text())
	assert.Equal(t, hostile, doc.Find("h1").Text())
	assert.Equal(t, "desc <i>"+hostile+"</i>", doc.Find(`meta[name="Description"]`).AttrOr("content", ""))
	assert.Equal(t, hostile, doc.Find(`meta[name="apple-mobile-web-app-title"]`).AttrOr("content", ""))
}

func TestRenderIndexHTMLLinksCatalog(t *testing.T) {
	page, err := RenderIndexHTML("T", "Test App", "desc")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	hrefs := make(map[string]string)
	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		hrefs[s.AttrOr("href", "")] = s.AttrOr("rel", "")
	})

	for _, icon := range catalog.Icons {
		assert.Equal(t, icon.Rel, hrefs[icon.Path], icon.Path)
	}
	assert.Equal(t, "icon", hrefs[catalog.FaviconFile])
	assert.Equal(t, "manifest", hrefs[catalog.ManifestFile])

	favicon := doc.Find(`link[href="favicon.ico"]`)
	assert.Equal(t, "16x16 32x32 48x48", favicon.AttrOr("sizes", ""))
	assert.Equal(t, catalog.StartServiceWorkerFile, doc.Find("script").AttrOr("src", ""))
}

func TestRenderIndexHTMLReferencesStayRelative(t *testing.T) {
	page, err := RenderIndexHTML("T", "Test App", "desc")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	assert.Zero(t, doc.Find("base").Length())

	served, err := url.Parse("https://app.example/test/index.html")
	require.NoError(t, err)

	var refs []string
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, s.AttrOr("href", ""))
	})
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, s.AttrOr("src", ""))
	})
	require.Len(t, refs, len(catalog.Icons)+3)

	for _, ref := range refs {
		u, err := url.Parse(ref)
		require.NoError(t, err, ref)
		assert.False(t, u.IsAbs(), ref)
		assert.Empty(t, u.Host, ref)
		assert.False(t, strings.HasPrefix(ref, "/"), ref)

		resolved := served.ResolveReference(u)
		assert.Equal(t, "app.example", resolved.Host, ref)
		assert.Equal(t, "/test/"+ref, resolved.Path)
	}
}

func TestRenderServiceWorker(t *testing.T) {
	token := VersionToken(time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC))
	js, err := RenderServiceWorker(token)
	require.NoError(t, err)

	assert.Contains(t, js, "const CACHE_NAME = '2023.0615.1030';")
	assert.Contains(t, js, "'index.html'")
	assert.Equal(t, 1, strings.Count(js, token))
}

func TestRenderStartServiceWorkerIsStatic(t *testing.T) {
	a, err := RenderStartServiceWorker()
	require.NoError(t, err)
	b, err := RenderStartServiceWorker()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "navigator.serviceWorker.register('service_worker.js')")
	assert.NotContains(t, a, "{{")
}
