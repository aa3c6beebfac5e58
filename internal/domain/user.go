package domain

import (
	"time"
)

// Roles a user profile can hold.
const (
	RoleAdmin      = "admin"
	RoleTeamMember = "team_member"
)

// UserProfile represents a registered participant or organizer.
type UserProfile struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	Role       string    `json:"role,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAdmin returns true if the profile has the organizer role.
func (u *UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRole returns true once the user has picked a role.
func (u *UserProfile) HasRole() bool {
	return u.Role != ""
}

// ValidRole reports whether r is one of the assignable roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleTeamMember
}
