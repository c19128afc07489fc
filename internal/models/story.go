package models

import "time"

// Story is an ephemeral status post. Stories expire 24 hours after posting
// and are never visible past that window.
type Story struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Content  string    `json:"content"`
	Kind     Kind      `json:"kind"`
	Avatar   string    `json:"avatar,omitempty"`
	PostedAt time.Time `json:"postedAt"`
}
