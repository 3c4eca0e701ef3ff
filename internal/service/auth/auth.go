package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KapilSharma1306/backend-project/internal/apperrors"
	"github.com/KapilSharma1306/backend-project/internal/logger"
	"github.com/KapilSharma1306/backend-project/internal/models"
	"github.com/KapilSharma1306/backend-project/internal/repository"
	"github.com/KapilSharma1306/backend-project/internal/service/auth/tokenmanager"
)

// Uploader sends a locally staged file to the remote media store
// and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type Config struct {
	// Hasher to use during registration and login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher

	// Logger for tolerated failures (cover image upload)
	// No-op logger is used if not set
	Logger logger.Logger
}

type RegisterParams struct {
	FullName string
	Email    string
	Username string
	Password string

	// Path of the staged avatar file, required
	AvatarPath string

	// Path of the staged cover image, optional
	CoverImagePath string
}

// Auth service: orchestrates credential store, token manager and media store
type AuthService struct {
	token    *tokenmanager.TokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo
	media    Uploader
	logger   logger.Logger
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo, media Uploader) (*AuthService, error) {
	if token == nil || userRepo == nil || media == nil {
		return nil, errors.New("token manager, user repo and media uploader must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		userRepo: userRepo,
		media:    media,
		logger:   l,
	}, nil
}

// Register creates a user: uniqueness check, media upload, then create.
// Fail fast on every step so no partial state is left behind
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	var user models.User
	username := strings.ToLower(p.Username)

	_, err := s.userRepo.GetUserByUsernameOrEmail(ctx, username, p.Email)
	switch {
	case err == nil:
		return user, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, fmt.Errorf("error while checking existing user. Err: %w", err)
	}

	avatarURL, err := s.media.Upload(ctx, p.AvatarPath)
	if err != nil || avatarURL == "" {
		return user, fmt.Errorf("%w. Err: %v", apperrors.ErrAvatarUpload, err)
	}

	// Cover image is optional: upload failure is tolerated, image omitted
	coverURL := ""
	if p.CoverImagePath != "" {
		coverURL, err = s.media.Upload(ctx, p.CoverImagePath)
		if err != nil {
			s.logger.Warn("cover image upload failed, omitting it", "error", err.Error())
			coverURL = ""
		}
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       username,
		Email:          p.Email,
		FullName:       p.FullName,
		AvatarURL:      avatarURL,
		CoverImageURL:  coverURL,
		HashedPassword: hash,
	})
	if err != nil {
		return user, err
	}

	// Re-fetch the created record to return what's actually stored
	created, err := s.userRepo.GetUserByID(ctx, user.ID)
	if err != nil {
		return created, fmt.Errorf("error while fetching registered user. Err: %w", err)
	}

	return created, nil
}

// Login resolves the user by username or email and issues a token pair.
// The refresh token is persisted on the user record
func (s *AuthService) Login(ctx context.Context, username string, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByUsernameOrEmail(ctx, strings.ToLower(username), email)
	if err != nil {
		return user, pair, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.token.IssuePair(ctx, user.ID)
	if err != nil {
		return user, pair, fmt.Errorf("token could not be generated, sorry. Err: %w", err)
	}

	user, err = s.userRepo.GetUserByID(ctx, user.ID)
	if err != nil {
		return user, pair, fmt.Errorf("error while fetching logged in user. Err: %w", err)
	}

	return user, pair, nil
}

// Logout clears the stored refresh token, invalidating every refresh
// token issued so far. Clearing an empty field is a no-op
func (s *AuthService) Logout(ctx context.Context, user models.User) error {
	if err := s.userRepo.ClearRefreshToken(ctx, user.ID); err != nil {
		return fmt.Errorf("error while clearing refresh token. Err: %w", err)
	}

	return nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token must exactly equal the stored one: a well formed token that was
// already rotated out is rejected
func (s *AuthService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	var pair models.TokenPair

	userID, err := s.token.ParseRefresh(presented)
	if err != nil {
		return pair, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return pair, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		return pair, apperrors.ErrRefreshTokenMismatch
	}

	// Compare-and-swap on the store: a concurrent refresh with the same
	// token loses and gets the mismatch error
	pair, err = s.token.RotatePair(ctx, user.ID, presented)
	if err != nil {
		return pair, err
	}

	return pair, nil
}

// Auth resolves the user behind the request: access token from the
// 'accessToken' cookie or the 'Authorization: Bearer' header
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	access := ""
	if cookie, err := r.Cookie("accessToken"); err == nil {
		access = cookie.Value
	}
	if access == "" {
		access = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
	}
	if access == "" {
		return user, fmt.Errorf("authorization required. Err: %w", apperrors.ErrInvalidToken)
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return user, err
	}

	return s.userRepo.GetUserByID(ctx, userID)
}
