package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
