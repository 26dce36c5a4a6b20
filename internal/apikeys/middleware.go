package apikeys

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/guruweb/resto/internal/platform/httpx"
	"github.com/guruweb/resto/internal/shared"
)

// Header carries the API key on REST calls.
const Header = "x-api-key"

// UnauthorizedMessage is the body of every 401 from the REST surface.
const UnauthorizedMessage = "Unauthorized: Invalid or missing x-api-key"

// Middleware authenticates x-api-key and scopes the request to its business.
func Middleware(svc *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			businessID, err := svc.Resolve(r.Context(), r.Header.Get(Header))
			if err != nil {
				if !errors.Is(err, ErrInvalidKey) && logger != nil {
					logger.Error("api key lookup failed", slog.Any("error", err))
				}
				httpx.Error(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithTenant(r.Context(), businessID)))
		})
	}
}
