// Package renderer adapts html/template to Echo's Renderer interface.
// Views are embedded at build time; each file is addressable by its
// path relative to the views root, without the .html extension
// (e.g. "auth/login", "companies/products/main").
package renderer

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed views
var viewFS embed.FS

// Renderer renders embedded server-side views.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses the embedded view tree.
func New() (*Renderer, error) {
	views, err := fs.Sub(viewFS, "views")
	if err != nil {
		return nil, err
	}
	return NewFromFS(views)
}

// NewFromFS parses every .html file of the given tree as a standalone
// view template.
func NewFromFS(views fs.FS) (*Renderer, error) {
	templates := make(map[string]*template.Template)

	err := fs.WalkDir(views, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		raw, err := fs.ReadFile(views, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path, ".html")
		tmpl, err := template.New(name).Funcs(viewFuncs()).Parse(string(raw))
		if err != nil {
			return fmt.Errorf("failed to parse view %s: %w", path, err)
		}
		templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Renderer{templates: templates}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown view: %s", name)
	}
	return tmpl.Execute(w, data)
}

// viewFuncs exposes the helpers views rely on.
func viewFuncs() template.FuncMap {
	return template.FuncMap{
		// update_query rewrites the current query string with the given
		// key/value updates; a nil value deletes the key. Used by
		// pagination links.
		"update_query": func(query url.Values, updates map[string]any) string {
			params := url.Values{}
			for key, values := range query {
				for _, value := range values {
					params.Set(key, value)
				}
			}
			for key, value := range updates {
				if value == nil {
					params.Del(key)
					continue
				}
				params.Set(key, fmt.Sprint(value))
			}
			if encoded := params.Encode(); encoded != "" {
				return "?" + encoded
			}
			return ""
		},
	}
}
