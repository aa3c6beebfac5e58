package domain

import (
	"time"
)

// Hackathon statuses.
const (
	HackathonStatusActive   = "active"
	HackathonStatusArchived = "archived"
)

// Hackathon represents an admin-created event teams join by code.
type Hackathon struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	Budget            Cents     `json:"budget"`
	MaxMembersPerTeam int       `json:"max_members_per_team"`
	Sponsors          []string  `json:"sponsors"`
	Status            string    `json:"status"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HackathonStats is a hackathon with aggregate team/member counts attached.
type HackathonStats struct {
	Hackathon
	TeamsCount   int `json:"teams_count"`
	TotalMembers int `json:"total_members"`
}
