package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	Email          string
	FullName       string
	AvatarURL      string
	CoverImageURL  string
	HashedPassword string
	RefreshToken   *string // nil if no active session
}
