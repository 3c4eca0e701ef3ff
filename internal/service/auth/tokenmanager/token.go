package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KapilSharma1306/backend-project/internal/apperrors"
	"github.com/KapilSharma1306/backend-project/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 240 * time.Hour
	defaultSigningMethod   = "HS256"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Store for the single active refresh token per user
type RefreshTokenStore interface {
	// Set refresh token unconditionally
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Replace refresh token only if stored value equals old
	// Has to return apperrors.ErrRefreshTokenMismatch otherwise
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh tokens
	// Required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Secrets to sign access and refresh token payloads
	accessSecret  string
	refreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Store that keeps the active refresh token on the user record
	store RefreshTokenStore
}

func New(cfg Config, store RefreshTokenStore) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		store:         store,
	}, nil
}

// Issue short lived access token. No side effects beyond signing
func (m *TokenManager) IssueAccess(userID uuid.UUID) (models.IssuedToken, error) {
	return m.sign(userID, m.accessSecret, m.accessTTL)
}

// Issue long lived refresh token. No side effects beyond signing
func (m *TokenManager) IssueRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	return m.sign(userID, m.refreshSecret, m.refreshTTL)
}

// IssuePair issues both tokens and persists the refresh token on the user record
func (m *TokenManager) IssuePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	pair, err := m.pair(userID)
	if err != nil {
		return pair, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, nil
}

// RotatePair issues a fresh pair and replaces the stored refresh token,
// but only if presented still is the active one. All previously issued
// refresh tokens become unusable
func (m *TokenManager) RotatePair(ctx context.Context, userID uuid.UUID, presented string) (models.TokenPair, error) {
	pair, err := m.pair(userID)
	if err != nil {
		return pair, err
	}

	if err := m.store.RotateRefreshToken(ctx, userID, presented, pair.Refresh.Value); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Parse and validate access token: signature and expiry only
func (m *TokenManager) ParseAccess(access string) (uuid.UUID, error) {
	return m.parse(access, m.accessSecret)
}

// Parse and validate refresh token: signature and expiry only.
// Callers must separately compare the token against the persisted value
func (m *TokenManager) ParseRefresh(refresh string) (uuid.UUID, error) {
	return m.parse(refresh, m.refreshSecret)
}

func (m *TokenManager) pair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := m.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) sign(userID uuid.UUID, secret string, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
		},
	)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) parse(tokenString string, secret string) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w. Err: %v", apperrors.ErrInvalidToken, err)
	}

	return claims.UserID, nil
}
