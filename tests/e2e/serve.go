package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/KapilSharma1306/backend-project/internal/handlers"
	"github.com/KapilSharma1306/backend-project/internal/mediastore"
	"github.com/KapilSharma1306/backend-project/internal/repository/postgres"
	"github.com/KapilSharma1306/backend-project/internal/service/auth"
	"github.com/KapilSharma1306/backend-project/internal/service/auth/tokenmanager"
	"github.com/KapilSharma1306/backend-project/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
}

// Run a fake S3 endpoint that accepts any PutObject and serves nothing else
func startMediaStub(t *testing.T) *mediastore.S3Store {
	t.Helper()

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"stub-etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(stub.Close)

	media, err := mediastore.New(t.Context(), mediastore.Config{
		Region:        "us-east-1",
		Bucket:        "media",
		Endpoint:      stub.URL,
		AccessKey:     "test-access-key",
		SecretKey:     "test-secret-key",
		PublicBaseURL: "https://cdn.test",
	})
	require.NoError(t, err, "media store should be created without errors")
	return media
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		}, userRepo)
		require.NoError(t, err, "token manager should be created without errors")

		media := startMediaStub(t)

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo, media)
		require.NoError(t, err, "auth service starting error", err)

		// Complete all together as router
		router := handlers.NewRouter(as, nil, t.TempDir())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{AuthService: as})
	})
}
