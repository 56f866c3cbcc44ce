package users

import "time"

// User is the authenticated identity referenced by cleanings, offers and
// evaluations. The marketplace never mutates users; it only reads them.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Password      string    `json:"-"` // bcrypt hash, never serialized
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
