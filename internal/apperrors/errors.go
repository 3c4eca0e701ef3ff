package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user with email or username already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid user credentials")

	ErrInvalidToken         = errors.New("invalid token")
	ErrRefreshTokenMismatch = errors.New("refresh token is expired or used")

	ErrAvatarUpload = errors.New("avatar upload failed")
)
