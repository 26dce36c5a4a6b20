package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/platform/httpx"
)

// DefaultRateLimit is the per-key request budget per minute.
const DefaultRateLimit = 120

// Router builds the /api sub-router: CORS, preflight, key auth and a per-key
// rate limit in front of the handlers.
func Router(h *Handler, keys *apikeys.Service, limit int, logger *slog.Logger) http.Handler {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", apikeys.Header},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Use(preflight)

	r.Get("/health", h.Health)
	r.Group(func(r chi.Router) {
		r.Use(apikeys.Middleware(keys, logger))
		r.Use(httprate.Limit(limit, time.Minute,
			httprate.WithKeyFuncs(keyByAPIKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			}),
		))
		r.Post("/customers", h.CreateCustomer)
		r.Patch("/customers", h.UpdateCustomer)
		r.Get("/customers/search", h.SearchCustomer)
		r.Post("/orders", h.CreateOrder)
		r.Get("/products", h.ListProducts)
	})
	return r
}

// preflight answers every OPTIONS request with 204 once CORS headers are set.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keyByAPIKey(r *http.Request) (string, error) {
	if key := strings.TrimSpace(r.Header.Get(apikeys.Header)); key != "" {
		return "key:" + key, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}
