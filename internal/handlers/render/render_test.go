package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	Success(w, map[string]string{"key": "value"}, "All good")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"statusCode": 200,
		"data": {"key": "value"},
		"message": "All good",
		"success": true
	}`, w.Body.String())
}

func Test_Success_NilDataOmitted(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	Success(w, nil, "Nothing to show")

	assert.NotContains(t, w.Body.String(), `"data"`, "empty data key should be omitted")
}

func Test_Created(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	Created(w, map[string]string{"id": "42"}, "Created")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{
		"statusCode": 201,
		"data": {"id": "42"},
		"message": "Created",
		"success": true
	}`, w.Body.String())
}

func Test_Error(t *testing.T) {
	t.Parallel()

	t.Run("without details", func(t *testing.T) {
		w := httptest.NewRecorder()
		Error(w, http.StatusConflict, "Already exists")

		require.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{
			"statusCode": 409,
			"message": "Already exists",
			"success": false,
			"errors": []
		}`, w.Body.String())
	})

	t.Run("with details", func(t *testing.T) {
		w := httptest.NewRecorder()
		Error(w, http.StatusBadRequest, "Bad input", "email: must be a valid email address")

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"email: must be a valid email address"}, resp.Errors)
	})
}

func Test_BindAndValidate(t *testing.T) {
	t.Parallel()

	type testRequest struct {
		Login    string `json:"login" validate:"required"`
		Email    string `json:"email" validate:"omitempty,email"`
		Password string `json:"password" validate:"required,min=4"`
	}

	t.Run("valid body ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"login": "gopher", "password": "secret"}`))

		value, err := BindAndValidate[testRequest](w, r)

		require.NoError(t, err)
		assert.Equal(t, "gopher", value.Login)
		assert.Equal(t, "secret", value.Password)
		assert.Empty(t, w.Body.String(), "nothing should be written on success")
	})

	t.Run("broken json rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"login": `))

		_, err := BindAndValidate[testRequest](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to parse JSON")
	})

	t.Run("wrong field type reported by name", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"login": 42, "password": "secret"}`))

		_, err := BindAndValidate[testRequest](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid data type for field 'login'")
	})

	t.Run("validation errors use json field names", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": "not-an-email", "password": "abc"}`))

		_, err := BindAndValidate[testRequest](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Request validation failed", resp.Message)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Errors, "login: this field is required")
		assert.Contains(t, resp.Errors, "email: must be a valid email address")
		assert.Contains(t, resp.Errors, "password: value is too short (minimum 4)")
	})
}

func Test_ValidateStruct(t *testing.T) {
	t.Parallel()

	type form struct {
		Name string `json:"name" validate:"required"`
	}

	t.Run("valid struct ok", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := ValidateStruct(w, form{Name: "gopher"})
		require.NoError(t, err)
		assert.Empty(t, w.Body.String())
	})

	t.Run("invalid struct writes 400", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := ValidateStruct(w, form{})
		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "name: this field is required")
	})
}
