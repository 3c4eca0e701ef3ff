package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/KapilSharma1306/backend-project/internal/testutil"
	"github.com/KapilSharma1306/backend-project/tests/e2e"
)

// Body of a successful login response
type loginData struct {
	Data struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

func login(t *testing.T, srvURL string, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func Test_AuthLogin(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("login by username ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				registerUser(t, s, "gopher", "StrongEnoughPassword")

				resp := login(t, srvURL, `{"username": "gopher", "password": "StrongEnoughPassword"}`)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "User logged in successfully")
				require.NotContains(t, body, "password")

				var data loginData
				require.NoError(t, json.Unmarshal([]byte(body), &data))
				require.Equal(t, "gopher", data.Data.User.Username)
				require.NotEmpty(t, data.Data.AccessToken)
				require.NotEmpty(t, data.Data.RefreshToken)

				// Tokens delivered in cookies as well
				for _, name := range []string{"accessToken", "refreshToken"} {
					cookie := cookieByName(resp, name)
					require.NotNilf(t, cookie, "%s cookie should be set", name)
					require.NotEmpty(t, cookie.Value)
					require.True(t, cookie.HttpOnly, "token cookies should be HttpOnly")
					require.True(t, cookie.Secure, "token cookies should be Secure")
					require.Equal(t, "/", cookie.Path)
					require.Positive(t, cookie.MaxAge)
				}
			})
		})

		t.Run("login by email ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				registerUser(t, s, "gopher", "StrongEnoughPassword")

				resp := login(t, srvURL, `{"email": "gopher@x.com", "password": "StrongEnoughPassword"}`)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			})
		})

		t.Run("unknown user fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp := login(t, srvURL, `{"username": "ghost", "password": "StrongEnoughPassword"}`)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "User does not exist")
			})
		})

		t.Run("wrong password fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				registerUser(t, s, "gopher", "StrongEnoughPassword")

				resp := login(t, srvURL, `{"username": "gopher", "password": "WrongPassword"}`)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "Invalid user credentials")
			})
		})

		t.Run("neither username nor email fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp := login(t, srvURL, `{"password": "StrongEnoughPassword"}`)
				body := readBody(t, resp)

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "Request validation failed")
			})
		})
	})
}
