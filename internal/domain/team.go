package domain

import (
	"strings"
	"time"
)

// Team represents a hackathon team with its virtual debit card.
// Budget and Spent mirror what the admin screens display; the
// marketplace spending cap is enforced by the ledger, not here.
type Team struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	HackathonCode string    `json:"hackathon_code"`
	Budget        Cents     `json:"budget"`
	Spent         Cents     `json:"spent"`
	FinalRank     string    `json:"final_rank"`
	Achievements  []string  `json:"achievements"`
	CreatedAt     time.Time `json:"created_at"`
}

// CardHolder returns the name embossed on the team's virtual card.
func (t *Team) CardHolder() string {
	return strings.ToUpper(t.Name)
}

// TeamMember links a user profile to a team.
type TeamMember struct {
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamWithMembers is a team with its member rows attached, as the
// team-history listing returns it.
type TeamWithMembers struct {
	Team
	Members []TeamMember `json:"members"`
}
