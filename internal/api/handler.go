// Package api provides HTTP handlers for the HackFund API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/identity"
	"github.com/hackfund/server/internal/ledger"
	"github.com/hackfund/server/internal/store"
)

// maxRequestBodySize caps JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler provides common handler dependencies.
type Handler struct {
	repo    store.Repository
	ledgers *ledger.Manager
	cfg     *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, ledgers *ledger.Manager, cfg *config.Config) *Handler {
	return &Handler{
		repo:    repo,
		ledgers: ledgers,
		cfg:     cfg,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Post("/me/role", h.SelectRole)

		r.Get("/users", h.ListUsers)

		r.Post("/hackathons", h.CreateHackathon)
		r.Get("/hackathons", h.ListHackathons)

		r.Post("/teams", h.CreateTeam)
		r.Get("/teams", h.ListTeams)
		r.Get("/teams/{teamID}", h.GetTeam)
		r.Get("/teams/{teamID}/marketplace", h.GetMarketplace)
		r.Post("/teams/{teamID}/purchases", h.Purchase)
		r.Get("/teams/{teamID}/transactions", h.ListTransactions)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a size-capped JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// requireAdmin loads the caller's profile and verifies the admin role.
// It writes the error response itself and returns false when the caller
// is not an admin.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return false
	}
	if !user.IsAdmin() {
		Error(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}
