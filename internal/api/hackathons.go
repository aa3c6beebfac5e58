package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hackfund/server/internal/catalog"
	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/identity"
)

const (
	defaultHackathonBudget = domain.Cents(50000) // $500 per team
	defaultMaxMembers      = 4
	hackathonCodeLength    = 6
)

// codeAlphabet is the character set for hackathon join codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateHackathonCode returns a random 6-character join code.
func generateHackathonCode() string {
	buf := make([]byte, hackathonCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// CreateHackathonRequest is the request body for creating a hackathon.
type CreateHackathonRequest struct {
	Name              string   `json:"name"`
	BudgetDollars     int64    `json:"budget_dollars"`
	MaxMembersPerTeam int      `json:"max_members_per_team"`
	Sponsors          []string `json:"sponsors"`
}

// CreateHackathon creates a new hackathon. Admin only.
func (h *Handler) CreateHackathon(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req CreateHackathonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	budget := defaultHackathonBudget
	if req.BudgetDollars > 0 {
		budget = domain.Cents(req.BudgetDollars * 100)
	}
	maxMembers := defaultMaxMembers
	if req.MaxMembersPerTeam > 0 {
		maxMembers = req.MaxMembersPerTeam
	}

	known := make(map[string]bool, len(catalog.SponsorNames()))
	for _, s := range catalog.SponsorNames() {
		known[s] = true
	}
	for _, s := range req.Sponsors {
		if !known[s] {
			Error(w, http.StatusBadRequest, "unknown sponsor: "+s)
			return
		}
	}

	hackathon := &domain.Hackathon{
		ID:                uuid.NewString(),
		Name:              name,
		Code:              generateHackathonCode(),
		Budget:            budget,
		MaxMembersPerTeam: maxMembers,
		Sponsors:          req.Sponsors,
		Status:            domain.HackathonStatusActive,
		CreatedBy:         identity.UserIDFromContext(r.Context()),
		CreatedAt:         time.Now().UTC(),
	}

	if err := h.repo.CreateHackathon(r.Context(), hackathon); err != nil {
		slog.Error("failed to create hackathon", "name", name, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create hackathon")
		return
	}

	slog.Info("hackathon created", "id", hackathon.ID, "code", hackathon.Code)
	JSON(w, http.StatusCreated, hackathon)
}

// ListHackathons returns all hackathons with team and member counts.
func (h *Handler) ListHackathons(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.ListHackathonStats(r.Context())
	if err != nil {
		slog.Error("failed to list hackathons", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list hackathons")
		return
	}
	if stats == nil {
		stats = []*domain.HackathonStats{}
	}
	JSON(w, http.StatusOK, stats)
}
