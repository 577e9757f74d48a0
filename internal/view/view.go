// Package view renders the HTML pages from templates embedded in the binary.
//
// Every page is parsed together with base.html and partials.html:
//   - base.html defines "base", the page shell, which pulls in "title" and "content"
//   - partials.html defines small shared blocks such as "field-error"
//   - each page file defines its own "title" and "content"
//
// Pages are parsed once in New and reused for every request.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var files embed.FS

// Page names accepted by Render.
const (
	PageRegister     = "register"
	PageLogin        = "login"
	PageUser         = "user"
	PageUserDelete   = "user_delete"
	PageFeedbackAdd  = "feedback_add"
	PageFeedbackEdit = "feedback_edit"
	PageError        = "error"
)

var pages = []string{
	PageRegister,
	PageLogin,
	PageUser,
	PageUserDelete,
	PageFeedbackAdd,
	PageFeedbackEdit,
	PageError,
}

// Templates holds one parsed template set per page.
type Templates struct {
	pages map[string]*template.Template
}

// New parses every page. A syntax error in any template fails startup
// rather than the first request that needs it.
func New() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pages))}

	for _, name := range pages {
		tmpl, err := template.ParseFS(files,
			"templates/base.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}

	return t, nil
}

// Render executes page name with data and writes it with the given status.
//
// The page is rendered into a buffer first. A template error therefore
// leaves w untouched and the caller can still send an error page.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("view: rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
