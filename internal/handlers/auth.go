package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KapilSharma1306/backend-project/internal/apperrors"
	"github.com/KapilSharma1306/backend-project/internal/handlers/render"
	"github.com/KapilSharma1306/backend-project/internal/handlers/userctx"
	"github.com/KapilSharma1306/backend-project/internal/logger"
	"github.com/KapilSharma1306/backend-project/internal/models"
	"github.com/KapilSharma1306/backend-project/internal/service/auth"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"

	maxUploadMemory = 32 << 20 // 32 MiB
)

type AuthService interface {
	// Register user with profile fields and staged media files
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	// and apperrors.ErrAvatarUpload if the avatar could not be stored
	Register(ctx context.Context, p auth.RegisterParams) (models.User, error)

	// Login user by username or email
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrInvalidCredentials
	Login(ctx context.Context, username string, email string, password string) (models.User, models.TokenPair, error)

	// Clear the user's stored refresh token
	Logout(ctx context.Context, user models.User) error

	// Exchange refresh token for a new pair
	// Any token problem surfaces as apperrors.ErrInvalidToken or
	// apperrors.ErrRefreshTokenMismatch
	Refresh(ctx context.Context, presented string) (models.TokenPair, error)

	// Resolve the user behind the request or return an error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type AuthHandler struct {
	auth   AuthService
	logger logger.Logger

	// Directory multipart uploads are staged in before going to the media store
	tempDir string
}

func NewAuth(auth AuthService, l logger.Logger, tempDir string) *AuthHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &AuthHandler{auth: auth, logger: l, tempDir: tempDir}
}

// Sanitized user projection: never carries password hash or refresh token
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
}

func sanitizeUser(u models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		CreatedAt:     u.CreatedAt,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterForm struct {
		FullName string `json:"fullname" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		render.Error(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	form := RegisterForm{
		FullName: strings.TrimSpace(r.FormValue("fullname")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: strings.TrimSpace(r.FormValue("password")),
	}
	if err := render.ValidateStruct(w, form); err != nil {
		return
	}

	avatarPath, err := h.stageFile(r, "avatar")
	if err != nil {
		render.Error(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	defer func() { _ = os.Remove(avatarPath) }()

	// Cover image is optional, ignore if absent
	coverPath, err := h.stageFile(r, "coverImage")
	if err == nil {
		defer func() { _ = os.Remove(coverPath) }()
	}

	user, err := h.auth.Register(r.Context(), auth.RegisterParams{
		FullName:       form.FullName,
		Email:          form.Email,
		Username:       form.Username,
		Password:       form.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Error(w, http.StatusConflict, "User with email or username already exists")
		case errors.Is(err, apperrors.ErrAvatarUpload):
			render.Error(w, http.StatusBadRequest, "Avatar file is required")
		default:
			h.logger.Error("user registration failed", "error", err.Error())
			render.Error(w, http.StatusInternalServerError, "Something went wrong while registering the user")
		}
		return
	}

	render.Created(w, sanitizeUser(user), "User registered successfully")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required_without=Email"`
		Email    string `json:"email" validate:"required_without=Username,omitempty,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginData struct {
		User         UserResponse `json:"user"`
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), data.Username, data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, http.StatusNotFound, "User does not exist")
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, http.StatusUnauthorized, "Invalid user credentials")
		default:
			h.logger.Error("user login failed", "error", err.Error())
			render.Error(w, http.StatusInternalServerError, "Something went wrong while logging in")
		}
		return
	}

	setTokenCookies(w, pair)
	render.Success(w, LoginData{
		User:         sanitizeUser(user),
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "User logged in successfully")
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.auth.Logout(r.Context(), user); err != nil {
		h.logger.Error("user logout failed", "error", err.Error())
		render.Error(w, http.StatusInternalServerError, "Something went wrong while logging out")
		return
	}

	clearTokenCookies(w)
	render.Success(w, nil, "User logged out")
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshData struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	presented := refreshTokenFromRequest(r)
	if presented == "" {
		render.Error(w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	// Never trust refresh input: every failure here is 401, not 5xx
	pair, err := h.auth.Refresh(r.Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenMismatch):
			render.Error(w, http.StatusUnauthorized, "Refresh token is expired or used")
		default:
			render.Error(w, http.StatusUnauthorized, "Invalid refresh token")
		}
		return
	}

	setTokenCookies(w, pair)
	render.Success(w, RefreshData{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "Access token refreshed")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	render.Success(w, sanitizeUser(user), "Current user fetched successfully")
}

// stageFile copies the first uploaded file under the given form key to the
// staging dir and returns its path. Caller removes the file when done
func (h *AuthHandler) stageFile(r *http.Request, key string) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[key]) == 0 {
		return "", fmt.Errorf("no file uploaded for %q", key)
	}

	header := r.MultipartForm.File[key][0]
	return stageUpload(h.tempDir, header)
}

func stageUpload(dir string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("error while opening uploaded file. Err: %w", err)
	}
	defer src.Close() // nolint:errcheck

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("error while creating staging file. Err: %w", err)
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("error while staging uploaded file. Err: %w", err)
	}

	return dst.Name(), nil
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Fall back to the request body, ignore malformed json
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	return body.RefreshToken
}

// Both tokens are delivered as HttpOnly secure cookies in addition to the
// response body, so cookie and header based clients both work
func setTokenCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.Access.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Access.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
	})
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
		})
	}
}
