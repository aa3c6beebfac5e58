// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/hackfund/server/internal/domain"
)

// Repository defines the interface for persisting hackathon finance data.
type Repository interface {
	// GetUser retrieves a user profile by user ID.
	GetUser(ctx context.Context, userID string) (*domain.UserProfile, error)

	// UpsertUser creates or updates a user profile.
	UpsertUser(ctx context.Context, user *domain.UserProfile) error

	// UpdateUserRole sets the role for a user profile.
	UpdateUserRole(ctx context.Context, userID, role string) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// ListUsers returns all user profiles ordered by the given column.
	// sortBy must be one of the allowlisted columns; sortOrder is
	// "asc" or "desc".
	ListUsers(ctx context.Context, sortBy, sortOrder string) ([]*domain.UserProfile, error)

	// CreateHackathon persists a new hackathon.
	CreateHackathon(ctx context.Context, h *domain.Hackathon) error

	// GetHackathonByCode retrieves a hackathon by its join code.
	GetHackathonByCode(ctx context.Context, code string) (*domain.Hackathon, error)

	// ListHackathonStats returns hackathons newest-first with team and
	// member counts attached.
	ListHackathonStats(ctx context.Context) ([]*domain.HackathonStats, error)

	// CreateTeam persists a team and its member rows atomically.
	CreateTeam(ctx context.Context, team *domain.Team, members []domain.TeamMember) error

	// GetTeam retrieves a team by ID.
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)

	// ListTeams returns all teams newest-first.
	ListTeams(ctx context.Context) ([]*domain.Team, error)

	// ListTeamMembers returns member rows for the given team IDs.
	ListTeamMembers(ctx context.Context, teamIDs []string) ([]domain.TeamMember, error)

	// AddTeamSpend increments a team's persisted spent column.
	AddTeamSpend(ctx context.Context, teamID string, amount domain.Cents) error

	// InsertTransaction records a committed purchase.
	InsertTransaction(ctx context.Context, txn *domain.Transaction) error

	// ListTransactions returns a team's transactions newest-first.
	ListTransactions(ctx context.Context, teamID string) ([]*domain.Transaction, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
