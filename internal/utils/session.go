package utils

import (
	"time"

	"github.com/google/uuid"
)

// SessionData is the middleware-facing view of a session, decoupled from the
// auth package's gorm model so middleware doesn't import auth.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}

func GenerateUUID() string {
	return uuid.NewString()
}
