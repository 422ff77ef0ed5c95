package response

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

var ErrNilTemplate = errors.New("response: nil template")

// Template renders the named template with status 200.
func Template(tmpl *template.Template, name string, data any) handler.Response {
	return TemplateWithStatus(tmpl, name, data, http.StatusOK)
}

// TemplateWithStatus executes into a buffer, so nothing reaches the client
// when the template fails. An empty name executes tmpl itself.
func TemplateWithStatus(tmpl *template.Template, name string, data any, status int) handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		if tmpl == nil {
			return ErrNilTemplate
		}
		t := tmpl
		if name != "" {
			if t = tmpl.Lookup(name); t == nil {
				return fmt.Errorf("response: no template %q", name)
			}
		}

		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return err
		}
		return write(w, status, contentTypeHTML, buf.Bytes())
	}
}
