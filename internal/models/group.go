package models

import "time"

// Group is a named chat group. Messages sent to it fan out to all members.
type Group struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Icon      string    `json:"icon,omitempty" db:"icon"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// GroupWithMembers includes the materialized member list.
type GroupWithMembers struct {
	Group
	Members []string `json:"members"`
}
