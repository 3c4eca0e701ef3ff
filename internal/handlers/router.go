package handlers

import (
	"net/http"

	"github.com/KapilSharma1306/backend-project/internal/handlers/middleware"
	"github.com/KapilSharma1306/backend-project/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService AuthService, l logger.Logger, uploadTempDir string) http.Handler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	authHandler := NewAuth(authService, l, uploadTempDir)
	withAuth := middleware.AuthMiddleware(authService)

	apiusers := http.NewServeMux()

	apiusers.Handle("POST /register", http.HandlerFunc(authHandler.register))
	apiusers.Handle("POST /login", http.HandlerFunc(authHandler.login))
	apiusers.Handle("POST /refresh-token", http.HandlerFunc(authHandler.refresh))

	apiusers.Handle("POST /logout", withAuth(http.HandlerFunc(authHandler.logout)))
	apiusers.Handle("GET /me", withAuth(http.HandlerFunc(authHandler.me)))

	root := http.NewServeMux()
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", apiusers))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}
