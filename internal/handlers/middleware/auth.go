package middleware

import (
	"context"
	"net/http"

	"github.com/KapilSharma1306/backend-project/internal/handlers/render"
	"github.com/KapilSharma1306/backend-project/internal/handlers/userctx"
	"github.com/KapilSharma1306/backend-project/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware verifies the access token on every request and attaches
// the resolved user to the request context. No caching between requests
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
