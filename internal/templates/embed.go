package templates

import (
	"embed"
	"io/fs"
)

// pageTemplates embeds the HTML page shells.
// The structure is:
//   - pages/source.html.tmpl (one rendered source file)
//   - pages/redirect.html.tmpl (site index that forwards to a landing page)
//
//go:embed pages
var pageTemplates embed.FS

// Template names within PagesFS.
const (
	SourcePage   = "pages/source.html.tmpl"
	RedirectPage = "pages/redirect.html.tmpl"
)

// PagesFS returns the embedded filesystem containing the page templates.
func PagesFS() fs.FS {
	return pageTemplates
}
