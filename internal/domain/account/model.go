package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is an application login, separate from the clinical Person
// records it operates on.
type Account struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Verified         bool      `json:"verified"`
	VerificationCode string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}
