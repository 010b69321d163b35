// Package page wraps rendered source lines in the site's HTML page shell and
// writes the result to disk.
package page

import (
	"fmt"
	"html/template"
	"io"

	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/templates"
)

// Assembler renders the page shells for one site.
// It is safe for concurrent use.
type Assembler struct {
	site     config.SiteConfig
	source   *template.Template
	redirect *template.Template
}

type sourceData struct {
	Site        string
	Name        string
	Stylesheets []string
	Lines       []template.HTML
}

type redirectData struct {
	Site     string
	Redirect string
}

// NewAssembler parses the embedded page templates.
func NewAssembler(site config.SiteConfig) (*Assembler, error) {
	source, err := template.ParseFS(templates.PagesFS(), templates.SourcePage)
	if err != nil {
		return nil, fmt.Errorf("parsing source page template: %w", err)
	}
	redirect, err := template.ParseFS(templates.PagesFS(), templates.RedirectPage)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect page template: %w", err)
	}
	return &Assembler{site: site, source: source, redirect: redirect}, nil
}

// WritePage writes the page for one source file. lines are the fragments
// produced by cformat.Renderer and are emitted verbatim, one per line.
func (a *Assembler) WritePage(w io.Writer, name string, lines []string) error {
	data := sourceData{
		Site:        a.site.Name,
		Name:        name,
		Stylesheets: a.site.Stylesheets,
		Lines:       make([]template.HTML, len(lines)),
	}
	for i, line := range lines {
		data.Lines[i] = template.HTML(line) //nolint:gosec // G203: fragments are produced by cformat
	}
	if err := a.source.Execute(w, data); err != nil {
		return fmt.Errorf("executing source page template: %w", err)
	}
	return nil
}

// WriteRedirect writes the site index that forwards to the landing page.
func (a *Assembler) WriteRedirect(w io.Writer) error {
	data := redirectData{Site: a.site.Name, Redirect: a.site.Redirect}
	if err := a.redirect.Execute(w, data); err != nil {
		return fmt.Errorf("executing redirect page template: %w", err)
	}
	return nil
}
