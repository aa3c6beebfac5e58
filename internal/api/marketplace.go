package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hackfund/server/internal/catalog"
	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/ledger"
)

// MarketplaceResponse is the catalog plus the team's live budget state.
type MarketplaceResponse struct {
	Items          []catalog.Item          `json:"items"`
	Spent          domain.Cents            `json:"spent"`
	Remaining      domain.Cents            `json:"remaining"`
	Cap            domain.Cents            `json:"cap"`
	PurchasedItems []ledger.PurchaseRecord `json:"purchased_items"`
}

// GetMarketplace returns the offerings and the team's budget snapshot.
func (h *Handler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
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
	JSON(w, http.StatusOK, MarketplaceResponse{
		Items:          catalog.Items(),
		Spent:          snap.Spent,
		Remaining:      snap.Remaining,
		Cap:            ledger.Cap,
		PurchasedItems: snap.PurchasedItems,
	})
}

// PurchaseRequest is the request body for buying a marketplace item.
type PurchaseRequest struct {
	CatalogID int `json:"catalog_id"`
}

// Purchase buys a marketplace item for the team. The in-memory ledger is
// the budget authority; the transaction row and the team's spent column
// are display-side bookkeeping written after the ledger commits.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
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

	var req PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, ok := catalog.ByID(req.CatalogID)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown catalog item")
		return
	}

	rec, err := h.ledgers.ForTeam(teamID).AttemptPurchase(item)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBudget) {
			Error(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("purchase failed", "team_id", teamID, "item", item.Name, "error", err)
		Error(w, http.StatusInternalServerError, "purchase failed")
		return
	}

	txn := &domain.Transaction{
		ID:          uuid.NewString(),
		TeamID:      teamID,
		CatalogID:   rec.CatalogID,
		Description: rec.Name,
		Amount:      rec.Price,
		Status:      domain.TransactionCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.repo.InsertTransaction(r.Context(), txn); err != nil {
		slog.Error("failed to record transaction", "team_id", teamID, "item", rec.Name, "error", err)
	}
	if err := h.repo.AddTeamSpend(r.Context(), teamID, rec.Price); err != nil {
		slog.Error("failed to update team spend", "team_id", teamID, "error", err)
	}

	snap := h.ledgers.ForTeam(teamID).Snapshot()
	slog.Info("purchase committed", "team_id", teamID, "item", rec.Name, "spent", snap.Spent)
	JSON(w, http.StatusCreated, map[string]interface{}{
		"purchase":  rec,
		"spent":     snap.Spent,
		"remaining": snap.Remaining,
	})
}

// ListTransactions returns a team's purchase history newest-first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	txns, err := h.repo.ListTransactions(r.Context(), teamID)
	if err != nil {
		slog.Error("failed to list transactions", "team_id", teamID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txns == nil {
		txns = []*domain.Transaction{}
	}
	JSON(w, http.StatusOK, txns)
}
