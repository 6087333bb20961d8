package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTemplates parses the embedded page templates.
func DefaultTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
