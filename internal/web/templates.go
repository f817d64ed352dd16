// templates.go
package web

import (
	"html/template"

	"github.com/spam-detector/webui/internal/export"
	"github.com/spam-detector/webui/internal/models"
)

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"percent": func(p *float64) string {
		if p == nil {
			return "—"
		}
		return models.FormatPercent(*p)
	},
	"number": func(f *float64) string {
		if f == nil {
			return ""
		}
		return export.FormatNumber(*f)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"charCount": models.CharCount,
	"cell": func(row models.Row, column string) string {
		return row[column]
	},
}
