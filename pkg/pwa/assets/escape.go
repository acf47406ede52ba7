package assets

import "strings"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
	"<", "&lt;",
	">", "&gt;",
)

// HTMLEncode replaces the five markup-significant characters with their
// entities. It is applied to every user field before it reaches a template.
func HTMLEncode(s string) string {
	return htmlReplacer.Replace(s)
}
