package domain

import "time"

// Session is the single active bearer/refresh pair of a user.
type Session struct {
	Token   string    `json:"token"`
	Refresh string    `json:"refresh"`
	Expiry  time.Time `json:"expiry"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || now.After(s.Expiry)
}

// User is an account of the sync server. Users are created on the first
// login with an unseen username and are never deleted.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Session      *Session  `json:"-"`
	DeviceToken  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
