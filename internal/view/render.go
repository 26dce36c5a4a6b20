package view

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/guruweb/resto/internal/platform/httpx"
	"github.com/guruweb/resto/internal/shared"
)

// Renderer binds the engine to the request session so handlers only pass
// page data.
type Renderer struct {
	engine *Engine
	csrf   *shared.CSRFManager
	logger *slog.Logger
}

// NewRenderer constructs a Renderer.
func NewRenderer(engine *Engine, csrf *shared.CSRFManager, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{engine: engine, csrf: csrf, logger: logger}
}

// Page renders a full dashboard page.
func (r *Renderer) Page(w http.ResponseWriter, req *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(req.Context())
	var (
		token string
		flash *shared.FlashMessage
	)
	if sess != nil {
		if r.csrf != nil {
			t, err := r.csrf.EnsureToken(req.Context(), sess)
			if err != nil {
				r.logger.Error("csrf token", slog.Any("error", err))
			}
			token = t
		}
		flash = sess.PopFlash()
	}
	user, _ := shared.PrincipalFromContext(req.Context())

	err := r.engine.Render(w, status, name, TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flash:       flash,
		CurrentPath: req.URL.Path,
		User:        user,
		Data:        data,
	})
	if err != nil {
		r.logger.Error("template render failed", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Redirect stores a flash message and sends a 303 to url.
func (r *Renderer) Redirect(w http.ResponseWriter, req *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(req.Context()); sess != nil && message != "" {
		sess.AddFlash(kind, message)
	}
	http.Redirect(w, req, url, http.StatusSeeOther)
}

// Fail logs err and redirects back with an error flash carrying msg.
func (r *Renderer) Fail(w http.ResponseWriter, req *http.Request, url, msg string, err error) {
	r.logger.Error(msg, slog.String("path", req.URL.Path), slog.Any("error", err))
	r.Redirect(w, req, url, "error", msg)
}

// Invalid reports whether err came from struct validation and, if so,
// returns the field errors as one flash-friendly line.
func Invalid(err error) (string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", false
	}
	details := httpx.ValidationDetails(err)
	parts := make([]string, 0, len(details))
	for field, msg := range details {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return "Datos inválidos: " + strings.Join(parts, "; "), true
}
