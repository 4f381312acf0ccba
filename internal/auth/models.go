// Package auth provides officer authentication: bcrypt credential checks and
// HS256 access tokens carrying a role claim.
package auth

import "time"

// Officer is a compliance officer account that can act on data rights
// requests through the admin surface.
type Officer struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DisabledAt   *time.Time
}

// Active reports whether the officer account may log in.
func (o *Officer) Active() bool {
	return o.DisabledAt == nil
}
