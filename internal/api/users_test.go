package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/identity"
	"github.com/hackfund/server/internal/ledger"
	"github.com/hackfund/server/internal/store"
)

// timeoutOnceRepo times out the first roster query and records whether
// each attempt started with a live context.
type timeoutOnceRepo struct {
	store.Repository
	attempts     int
	attemptAlive []bool
}

func (r *timeoutOnceRepo) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	now := time.Now()
	return &domain.UserProfile{UserID: userID, Role: domain.RoleAdmin, LastSeenAt: now, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *timeoutOnceRepo) ListUsers(ctx context.Context, sortBy, sortOrder string) ([]*domain.UserProfile, error) {
	r.attempts++
	r.attemptAlive = append(r.attemptAlive, ctx.Err() == nil)
	if r.attempts == 1 {
		return nil, context.DeadlineExceeded
	}
	return []*domain.UserProfile{{UserID: "anon_a"}}, nil
}

func TestListUsersRetriesAfterTimeout(t *testing.T) {
	t.Parallel()

	repo := &timeoutOnceRepo{}
	ledgers := ledger.NewManager(time.Hour)
	t.Cleanup(ledgers.Close)
	h := NewHandler(repo, ledgers, &config.Config{Port: "0"})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(identity.WithUserID(req.Context(), "anon_admin"))
	rec := httptest.NewRecorder()
	h.ListUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if repo.attempts != 2 {
		t.Fatalf("attempts = %d, a timed-out query must be retried once", repo.attempts)
	}
	for i, alive := range repo.attemptAlive {
		if !alive {
			t.Errorf("attempt %d started with an already-expired context", i+1)
		}
	}
}
