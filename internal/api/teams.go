package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hackfund/server/internal/domain"
)

// CreateTeamRequest is the request body for registering a team.
type CreateTeamRequest struct {
	Name          string   `json:"name"`
	HackathonCode string   `json:"hackathon_code"`
	MemberUserIDs []string `json:"member_user_ids"`
}

// CreateTeam registers a team for a hackathon and issues its virtual card.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.HackathonCode))
	if name == "" {
		Error(w, http.StatusBadRequest, "team name is required")
		return
	}
	if code == "" {
		Error(w, http.StatusBadRequest, "hackathon code is required")
		return
	}
	if len(req.MemberUserIDs) == 0 {
		Error(w, http.StatusBadRequest, "at least one team member is required")
		return
	}

	hackathon, err := h.repo.GetHackathonByCode(r.Context(), code)
	if err != nil {
		slog.Error("failed to look up hackathon", "code", code, "error", err)
		Error(w, http.StatusInternalServerError, "failed to look up hackathon")
		return
	}
	if hackathon == nil {
		Error(w, http.StatusBadRequest, "unknown hackathon code")
		return
	}
	now := time.Now().UTC()
	team := &domain.Team{
		ID:            uuid.NewString(),
		Name:          name,
		HackathonCode: code,
		Budget:        hackathon.Budget,
		CreatedAt:     now,
	}

	// Dedupe member IDs: a repeated ID would trip the (team_id, user_id)
	// primary key mid-transaction.
	members := make([]domain.TeamMember, 0, len(req.MemberUserIDs))
	seen := make(map[string]bool, len(req.MemberUserIDs))
	for _, userID := range req.MemberUserIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		members = append(members, domain.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			Role:     "member",
			JoinedAt: now,
		})
	}
	if len(members) == 0 {
		Error(w, http.StatusBadRequest, "at least one team member is required")
		return
	}
	if len(members) > hackathon.MaxMembersPerTeam {
		Error(w, http.StatusBadRequest, "too many members for this hackathon")
		return
	}

	if err := h.repo.CreateTeam(r.Context(), team, members); err != nil {
		slog.Error("failed to create team", "name", name, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create team")
		return
	}

	slog.Info("team created", "id", team.ID, "name", team.Name, "hackathon", code)
	JSON(w, http.StatusCreated, domain.TeamWithMembers{Team: *team, Members: members})
}

// ListTeams returns all teams with their member rows attached.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.repo.ListTeams(r.Context())
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list teams")
		return
	}

	teamIDs := make([]string, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}
	members, err := h.repo.ListTeamMembers(r.Context(), teamIDs)
	if err != nil {
		slog.Error("failed to list team members", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list team members")
		return
	}
	byTeam := make(map[string][]domain.TeamMember)
	for _, m := range members {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m)
	}

	out := make([]domain.TeamWithMembers, len(teams))
	for i, t := range teams {
		out[i] = domain.TeamWithMembers{Team: *t, Members: byTeam[t.ID]}
	}
	JSON(w, http.StatusOK, out)
}

// TeamDetail is a team with its live session budget attached.
type TeamDetail struct {
	domain.Team
	CardHolder     string       `json:"card_holder"`
	SessionSpent   domain.Cents `json:"session_spent"`
	SessionBudget  domain.Cents `json:"session_budget"`
	PurchasedItems []string     `json:"purchased_items"`
}

// GetTeam returns one team with its live marketplace budget numbers.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	team, err := h.repo.GetTeam(r.Context(), teamID)
	if err != nil {
		slog.Error("failed to get team", "team_id", teamID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to get team")
		return
	}
	if team == nil {
		Error(w, http.StatusNotFound, "team not found")
		return
	}

	snap := h.ledgers.ForTeam(teamID).Snapshot()
	JSON(w, http.StatusOK, TeamDetail{
		Team:           *team,
		CardHolder:     team.CardHolder(),
		SessionSpent:   snap.Spent,
		SessionBudget:  snap.Remaining,
		PurchasedItems: snap.PurchasedNames(),
	})
}
