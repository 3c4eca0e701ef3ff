package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/KapilSharma1306/backend-project/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	AvatarURL      string
	CoverImageURL  string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with same username or email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get user matching either username or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByUsernameOrEmail(ctx context.Context, username string, email string) (models.User, error)

	// Set refresh token unconditionally (login, token pair issue)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Replace refresh token only if the stored value still equals old.
	// Compare-and-swap keeps rotation race safe: the loser of a concurrent
	// refresh must get apperrors.ErrRefreshTokenMismatch
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error

	// Clear stored refresh token ("logout everywhere")
	// Clearing an already empty token is a no-op, not an error
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
}
