package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/shared"
)

// listUsersTimeout bounds each roster query attempt so a locked database
// cannot hang the admin screen. The deadline is per attempt: a timed-out
// first query still gets its one retry.
const listUsersTimeout = 10 * time.Second

// ListUsers returns all user profiles. Admin only.
//
// Supports ?sort_by=last_seen_at|created_at|full_name|email and
// ?sort_order=asc|desc.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	sortBy := r.URL.Query().Get("sort_by")
	if sortBy == "" {
		sortBy = "last_seen_at"
	}
	sortOrder := r.URL.Query().Get("sort_order")
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	var users []*domain.UserProfile
	err := shared.RetryOnce(r.Context(), func() error {
		attemptCtx, cancel := context.WithTimeout(r.Context(), listUsersTimeout)
		defer cancel()

		var err error
		users, err = h.repo.ListUsers(attemptCtx, sortBy, sortOrder)
		return err
	})
	if err != nil {
		slog.Error("failed to list users", "sort_by", sortBy, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*domain.UserProfile{}
	}
	JSON(w, http.StatusOK, users)
}
