package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

// Template names.
const (
	PageTemplate    = "index.html"
	EntriesTemplate = "entries"
)

var ErrTemplatesNotLoaded = errors.New("templates not loaded")

// Renderer executes the parsed page and list templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses every templates/*.html file in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	t, err := template.ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Ready reports whether templates were parsed.
func (r *Renderer) Ready() bool {
	return r != nil && r.templates != nil
}

// RenderHTML renders the list partial to a string, so the caller can write it
// in one piece or not at all.
func (r *Renderer) RenderHTML(v ListView) (string, error) {
	var buf bytes.Buffer
	if err := r.Entries(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Entries writes the list partial to w.
func (r *Renderer) Entries(w io.Writer, v ListView) error {
	return r.execute(w, EntriesTemplate, v)
}

// Page writes the full page to w.
func (r *Renderer) Page(w io.Writer, data any) error {
	return r.execute(w, PageTemplate, data)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if !r.Ready() {
		return ErrTemplatesNotLoaded
	}
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	return nil
}
