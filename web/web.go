// Package web embeds the HTML templates and static assets served by cmd/server.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.html static/*
var files embed.FS

const layoutFile = "templates/layout.html"

// Renderer holds one parsed template set per page, each combined with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template against the layout.
func NewRenderer() (*Renderer, error) {
	base, err := template.New("layout.html").Funcs(TemplateFuncs()).ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pageFiles, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range pageFiles {
		if file == layoutFile {
			continue
		}
		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := tmpl.ParseFS(files, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = tmpl
	}
	return r, nil
}

// Render executes page inside the layout and writes it with status.
// The page is rendered to a buffer first so a template error never produces half a page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// TemplateFuncs returns the helpers available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"days": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
		"signed": func(v float64) string {
			s := strconv.FormatFloat(v, 'f', 2, 64)
			if v > 0 {
				return "+" + s
			}
			return s
		},
		"percent": func(v float64) string {
			return strconv.FormatFloat(v*100, 'f', -1, 64) + "%"
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		"join": strings.Join,
		"has": func(values []string, v string) bool {
			return slices.Contains(values, v)
		},
	}
}
