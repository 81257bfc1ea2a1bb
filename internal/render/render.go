// Package render draws the HTML analysis page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data passed to the index template.
type Page struct {
	Markets  []models.Market
	Selected string
	Result   *models.AnalysisResult
}

// Engine implements fiber.Views over the embedded templates.
type Engine struct {
	templates *template.Template
}

func New() *Engine {
	return &Engine{}
}

var funcs = template.FuncMap{
	"num": func(v *float64) string {
		if v == nil {
			return analysis.Unavailable
		}
		return fmt.Sprintf("%.2f", *v)
	},
	"verdictClass": func(v analysis.Verdict) string {
		switch {
		case v.Bullish():
			return "bullish"
		case v.Bearish():
			return "bearish"
		default:
			return "neutral"
		}
	},
	"signed": func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%+.2f%%", *v)
	},
	"direction": func(v *float64) string {
		switch {
		case v == nil || *v == 0:
			return "neutral"
		case *v > 0:
			return "bullish"
		default:
			return "bearish"
		}
	},
	"deref": func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	},
	// selected matches a catalog symbol against a resolved ticker, so TCS
	// stays selected after it resolves to TCS.NS.
	"selected": func(symbol, resolved string) bool {
		if resolved == "" {
			return false
		}
		symbol, resolved = strings.ToUpper(symbol), strings.ToUpper(resolved)
		return symbol == resolved || strings.HasPrefix(resolved, symbol+".")
	},
}

// Load parses the embedded templates.
func (e *Engine) Load() error {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	e.templates = t
	return nil
}

// Render executes the named template ("index" or "index.html") into w.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	if e.templates == nil {
		if err := e.Load(); err != nil {
			return err
		}
	}
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	return e.templates.ExecuteTemplate(w, name, binding)
}
