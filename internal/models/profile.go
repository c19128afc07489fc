package models

import "time"

// Profile is the public face of an identity. The username is the identity
// string used everywhere else; it never changes once created.
type Profile struct {
	Username string    `json:"username" db:"username"`
	Avatar   string    `json:"avatar" db:"avatar"`
	Bio      string    `json:"bio" db:"bio"`
	Online   bool      `json:"online" db:"online"`
	LastSeen time.Time `json:"lastSeen" db:"last_seen"`
}
