// Package views holds the HTML templates and static assets, embedded into
// the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"personalblog/app/models"
)

// Page carries what the layout needs; every page's data embeds it.
type Page struct {
	Viewer models.Identity
}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages lists every page template; each is parsed together with the layout.
var Pages = []string{
	"post_list",
	"post_detail",
	"post_form",
	"post_drafts",
	"comment_form",
	"login",
	"register",
	"about",
	"error",
}

var funcs = template.FuncMap{
	"date": func(t interface{}) string {
		switch v := t.(type) {
		case time.Time:
			return v.Format("January 2, 2006, 3:04 p.m.")
		case *time.Time:
			if v == nil {
				return ""
			}
			return v.Format("January 2, 2006, 3:04 p.m.")
		}
		return ""
	},
	"excerpt": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return strings.TrimSpace(string(r[:n])) + "…"
	},
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, page := range Pages {
		tpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tpl
	}
	return r, nil
}

// Render writes the page to w. The page is rendered into a buffer first so a
// template error never leaves half a page behind.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	tpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets. dir, when set, serves from disk instead.
func Static(dir string) http.Handler {
	if dir != "" {
		return http.FileServer(http.Dir(dir))
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
