package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/web"
)

// Engine renders HTML templates.
type Engine struct {
	pages map[string]*template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        shared.Principal
	Data        any
}

var argentina = time.FixedZone("ART", -3*60*60)

var moneyPrinter = message.NewPrinter(language.MustParse("es-AR"))

var statusLabels = map[string]string{
	"pending":         "Pendiente",
	"preparation":     "En preparación",
	"ready":           "Listo",
	"delivered":       "Entregado",
	"cancelled":       "Cancelado",
	"active":          "Activo",
	"waiting_address": "Esperando dirección",
	"archived":        "Archivado",
	"open":            "Abierta",
	"closed":          "Cerrada",
}

// FormatMoney renders an amount in pesos with es-AR separators.
func FormatMoney(v float64) string {
	return moneyPrinter.Sprintf("$ %.2f", v)
}

// StatusLabel returns the Spanish label of an order, customer or register status.
func StatusLabel(v any) string {
	s := fmt.Sprint(v)
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.In(argentina).Format("02/01/2006 15:04")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.In(argentina).Format("02/01/2006 15:04")
	}
	return ""
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":  formatDate,
		"formatMoney": FormatMoney,
		"statusLabel": StatusLabel,
		"deref": func(v any) any {
			switch p := v.(type) {
			case *string:
				if p == nil {
					return ""
				}
				return *p
			case *int:
				if p == nil {
					return 0
				}
				return *p
			case *int64:
				if p == nil {
					return int64(0)
				}
				return *p
			case *float64:
				if p == nil {
					return 0.0
				}
				return *p
			}
			return v
		},
		"hasRole": func(p shared.Principal, roles ...string) bool {
			if p.Role == shared.RoleSuperAdmin {
				return true
			}
			for _, r := range roles {
				if string(p.Role) == r {
					return true
				}
			}
			return false
		},
	}
}

// NewEngine parses templates at build-time. Each page is cloned from the
// layouts and partials so pages can share block names.
func NewEngine() (*Engine, error) {
	base, err := template.New("root").Funcs(funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pageFiles, err := fs.Glob(web.Templates, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(web.Templates, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = clone
	}
	return &Engine{pages: pages}, nil
}

// Render executes a page with TemplateData. Output is buffered so a template
// error never leaves a half-written response.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	tpl, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	layout := "base"
	if strings.HasPrefix(name, "auth_") {
		layout = "bare"
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, layout, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}
