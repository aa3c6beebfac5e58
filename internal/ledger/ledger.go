// Package ledger tracks per-team marketplace spending against the fixed
// session cap and issues credentials for purchased offerings.
package ledger

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hackfund/server/internal/catalog"
	"github.com/hackfund/server/internal/domain"
)

// Cap is the fixed marketplace spending ceiling per team session. The
// per-team budget column shown on admin screens is display-only; this cap
// is what the purchase workflow enforces.
const Cap = domain.Cents(10000) // $100.00

// ErrInsufficientBudget is returned when a purchase would push spending
// over the cap. The ledger is left untouched.
var ErrInsufficientBudget = errors.New("insufficient budget: cannot spend more than $100.00")

// PurchaseRecord is one committed purchase with its issued credential.
type PurchaseRecord struct {
	CatalogID        int          `json:"catalog_id"`
	Name             string       `json:"name"`
	Price            domain.Cents `json:"price"`
	IssuedCredential string       `json:"issued_credential"`
	PurchasedAt      time.Time    `json:"purchased_at"`
}

// Snapshot is a point-in-time read of a ledger, safe to hand to callers
// after the lock is released.
type Snapshot struct {
	Spent          domain.Cents
	Remaining      domain.Cents
	PurchasedItems []PurchaseRecord
}

// PurchasedNames returns the names of purchased items in purchase order.
func (s Snapshot) PurchasedNames() []string {
	names := make([]string, len(s.PurchasedItems))
	for i, rec := range s.PurchasedItems {
		names[i] = rec.Name
	}
	return names
}

// Ledger is the in-memory spending record for one team. Mutations are
// serialized by the embedded mutex so concurrent purchase requests for the
// same team cannot breach the cap.
type Ledger struct {
	mu        sync.Mutex
	spent     domain.Cents
	purchased []PurchaseRecord
	touchedAt time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{touchedAt: time.Now()}
}

// AttemptPurchase validates the item against the cap and, if it fits,
// appends a purchase record with a freshly issued credential and bumps
// spent. Rejection leaves the ledger byte-for-byte unchanged.
func (l *Ledger) AttemptPurchase(item catalog.Item) (PurchaseRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.touchedAt = time.Now()

	if l.spent+item.Price > Cap {
		return PurchaseRecord{}, ErrInsufficientBudget
	}

	cred, err := issueCredential(item.Name)
	if err != nil {
		return PurchaseRecord{}, fmt.Errorf("issue credential: %w", err)
	}

	rec := PurchaseRecord{
		CatalogID:        item.ID,
		Name:             item.Name,
		Price:            item.Price,
		IssuedCredential: cred,
		PurchasedAt:      time.Now(),
	}
	l.purchased = append(l.purchased, rec)
	l.spent += item.Price

	return rec, nil
}

// Snapshot returns a consistent copy of the ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]PurchaseRecord, len(l.purchased))
	copy(items, l.purchased)

	return Snapshot{
		Spent:          l.spent,
		Remaining:      Cap - l.spent,
		PurchasedItems: items,
	}
}

// LastTouched reports when the ledger was last read or mutated, for idle
// eviction.
func (l *Ledger) LastTouched() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.touchedAt
}

// Touch marks the ledger as recently used.
func (l *Ledger) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.touchedAt = time.Now()
}

// issueCredential builds a synthetic API key for a purchased item:
// a 3-letter item-name prefix (spaces stripped), the current millisecond
// timestamp in base 36, and a random base-36 token, all upper-cased.
// The random token makes repeat purchases of the same item distinct.
func issueCredential(itemName string) (string, error) {
	prefix := strings.ReplaceAll(itemName, " ", "")
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	token, err := randomBase36(11)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(prefix + "_" + ts + "_" + token), nil
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(base36Alphabet[idx.Int64()])
	}
	return b.String(), nil
}
