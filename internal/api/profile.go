package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/identity"
)

// GetMe returns the caller's profile.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}

	JSON(w, http.StatusOK, user)
}

// UpdateMeRequest is the request body for updating the caller's profile.
type UpdateMeRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UpdateMe updates the caller's display fields.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		user = &domain.UserProfile{UserID: userID}
	}

	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = email
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = name
	}

	if err := h.repo.UpsertUser(r.Context(), user); err != nil {
		slog.Error("failed to update user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	JSON(w, http.StatusOK, user)
}

// SelectRoleRequest is the request body for picking a role.
type SelectRoleRequest struct {
	Role string `json:"role"`
}

// SelectRole assigns the caller one of the assignable roles.
func (h *Handler) SelectRole(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SelectRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidRole(req.Role) {
		Error(w, http.StatusBadRequest, "role must be admin or team_member")
		return
	}

	if err := h.repo.UpdateUserRole(r.Context(), userID, req.Role); err != nil {
		slog.Error("failed to update role", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"user_id": userID, "role": req.Role})
}
