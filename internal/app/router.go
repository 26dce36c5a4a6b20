package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/auth"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/cashregister"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/dashboard"
	"github.com/guruweb/resto/internal/observability"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/rbac"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/jobs"
	"github.com/guruweb/resto/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	RBAC           rbac.Middleware

	AuthHandler         *auth.Handler
	DashboardHandler    *dashboard.Handler
	OrdersHandler       *orders.Handler
	ProductsHandler     *products.Handler
	CustomersHandler    *customers.Handler
	CashRegisterHandler *cashregister.Handler
	BusinessesHandler   *businesses.Handler
	APIKeysHandler      *apikeys.Handler
	JobHandler          *jobs.Handler

	// API is the /api sub-router; it carries its own CORS and key auth.
	API http.Handler
}

// NewRouter constructs the chi.Router. The dashboard and the REST API share
// the base stack; only the dashboard gets sessions and CSRF checks.
func NewRouter(params RouterParams) http.Handler {
	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}

	r := chi.NewRouter()
	for _, mw := range BaseStack(mwCfg) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.API != nil {
		r.Mount("/api", params.API)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range BrowserStack(mwCfg) {
			r.Use(mw)
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		})
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(auth.RequireLogin)
			params.DashboardHandler.MountRoutes(r)
			r.Route("/orders", params.OrdersHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
			r.Route("/cash-register", params.CashRegisterHandler.MountRoutes)
			r.Route("/settings", func(r chi.Router) {
				r.Use(params.RBAC.RequireRole(shared.RoleBusinessAdmin))
				params.BusinessesHandler.MountRoutes(r)
				r.Route("/api-keys", params.APIKeysHandler.MountRoutes)
			})
		})
	})

	return r
}

// staticCacheHandler caches static assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
