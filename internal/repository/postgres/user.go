package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/KapilSharma1306/backend-project/internal/apperrors"
	"github.com/KapilSharma1306/backend-project/internal/models"
	"github.com/KapilSharma1306/backend-project/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), arg.Username, arg.Email, arg.FullName, arg.AvatarURL, arg.CoverImageURL, arg.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: getUserByID
SELECT id, created_at, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByUsernameOrEmail = `-- name: getUserByUsernameOrEmail
SELECT id, created_at, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token
FROM users
WHERE username = $1 OR email = $2
`

func (r *UserRepo) GetUserByUsernameOrEmail(ctx context.Context, username string, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsernameOrEmail, username, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const setRefreshToken = `-- name: setRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

const rotateRefreshToken = `-- name: rotateRefreshToken
UPDATE users
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2
`

func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, userID, old, new)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	// No row matched: either the user is gone or someone rotated first
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRefreshTokenMismatch
	}

	return nil
}

const clearRefreshToken = `-- name: clearRefreshToken
UPDATE users
SET refresh_token = NULL
WHERE id = $1
`

func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, clearRefreshToken, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL, &u.HashedPassword, &u.RefreshToken)
	return u, err
}
