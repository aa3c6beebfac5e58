package domain

import (
	"time"
)

// Transaction statuses.
const (
	TransactionCompleted = "completed"
)

// Transaction is a committed marketplace purchase as persisted for the
// team's spending history.
type Transaction struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	CatalogID   int       `json:"catalog_id"`
	Description string    `json:"description"`
	Amount      Cents     `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
