package ledger

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hackfund/server/internal/catalog"
	"github.com/hackfund/server/internal/domain"
)

func mustItem(t *testing.T, id int) catalog.Item {
	t.Helper()
	item, ok := catalog.ByID(id)
	if !ok {
		t.Fatalf("catalog item %d missing", id)
	}
	return item
}

func TestAttemptPurchaseWithinCap(t *testing.T) {
	t.Parallel()

	l := New()
	item := mustItem(t, 2) // OpenAI API, $20.00

	rec, err := l.AttemptPurchase(item)
	if err != nil {
		t.Fatalf("AttemptPurchase: %v", err)
	}
	if rec.Name != item.Name || rec.Price != item.Price {
		t.Errorf("record = %+v, want item %+v", rec, item)
	}

	snap := l.Snapshot()
	if snap.Spent != item.Price {
		t.Errorf("spent = %d, want %d", snap.Spent, item.Price)
	}
	if snap.Remaining != Cap-item.Price {
		t.Errorf("remaining = %d, want %d", snap.Remaining, Cap-item.Price)
	}
	if len(snap.PurchasedItems) != 1 {
		t.Errorf("purchased items = %d, want 1", len(snap.PurchasedItems))
	}
}

func TestAttemptPurchaseOverCapRejected(t *testing.T) {
	t.Parallel()

	l := New()
	aws := mustItem(t, 4)    // $50.00
	azure := mustItem(t, 8)  // $40.00
	openai := mustItem(t, 2) // $20.00: would push spend to $110

	if _, err := l.AttemptPurchase(aws); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := l.AttemptPurchase(azure); err != nil {
		t.Fatalf("second purchase: %v", err)
	}

	before := l.Snapshot()
	if _, err := l.AttemptPurchase(openai); !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("over-cap purchase error = %v, want ErrInsufficientBudget", err)
	}
	after := l.Snapshot()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("rejection mutated the ledger:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPurchaseExactlyAtCap(t *testing.T) {
	t.Parallel()

	l := New()
	aws := mustItem(t, 4) // $50.00, two spend exactly the cap
	gcp := mustItem(t, 5) // $30.00 would overflow

	if _, err := l.AttemptPurchase(aws); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := l.AttemptPurchase(aws); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if snap := l.Snapshot(); snap.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0 after spending exactly the cap", snap.Remaining)
	}
	if _, err := l.AttemptPurchase(gcp); !errors.Is(err, ErrInsufficientBudget) {
		t.Errorf("purchase at zero remaining error = %v", err)
	}
}

func TestRepeatPurchaseAllowedWithDistinctCredentials(t *testing.T) {
	t.Parallel()

	l := New()
	item := mustItem(t, 3) // HuggingFace API, $15.00

	first, err := l.AttemptPurchase(item)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	second, err := l.AttemptPurchase(item)
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if first.IssuedCredential == second.IssuedCredential {
		t.Errorf("repeat purchases issued identical credential %q", first.IssuedCredential)
	}
}

func TestCredentialFormat(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^[A-Z0-9]{1,3}_[A-Z0-9]+_[A-Z0-9]{11}$`)
	for _, item := range catalog.Items() {
		cred, err := issueCredential(item.Name)
		if err != nil {
			t.Fatalf("issueCredential(%q): %v", item.Name, err)
		}
		if !pattern.MatchString(cred) {
			t.Errorf("credential %q for %q does not match expected shape", cred, item.Name)
		}
		if cred != strings.ToUpper(cred) {
			t.Errorf("credential %q is not upper-cased", cred)
		}
		wantPrefix := strings.ToUpper(strings.ReplaceAll(item.Name, " ", ""))
		if len(wantPrefix) > 3 {
			wantPrefix = wantPrefix[:3]
		}
		if !strings.HasPrefix(cred, wantPrefix+"_") {
			t.Errorf("credential %q should start with %q", cred, wantPrefix+"_")
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	l := New()
	if _, err := l.AttemptPurchase(mustItem(t, 9)); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	snap := l.Snapshot()
	snap.PurchasedItems[0].Name = "mutated"

	if got := l.Snapshot().PurchasedItems[0].Name; got == "mutated" {
		t.Error("snapshot shares backing storage with the ledger")
	}
}

func TestConcurrentPurchasesRespectCap(t *testing.T) {
	t.Parallel()

	l := New()
	item := mustItem(t, 3) // $15.00, six fit under the cap

	const attempts = 20
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := l.AttemptPurchase(item)
			results <- err
		}()
	}

	var ok int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			ok++
		}
	}

	snap := l.Snapshot()
	if snap.Spent > Cap {
		t.Errorf("spent = %d, breached the cap", snap.Spent)
	}
	if want := int(Cap / item.Price); ok != want {
		t.Errorf("successful purchases = %d, want %d", ok, want)
	}
}

func TestManagerForTeam(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Hour)
	defer m.Close()

	a := m.ForTeam("team-a")
	b := m.ForTeam("team-b")
	if a == b {
		t.Error("distinct teams share a ledger")
	}
	if m.ForTeam("team-a") != a {
		t.Error("same team should get the same ledger back")
	}

	if _, err := a.AttemptPurchase(mustItem(t, 2)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if b.Snapshot().Spent != 0 {
		t.Error("purchase on one team leaked into another team's ledger")
	}
}

func TestLedgerUSDValues(t *testing.T) {
	t.Parallel()

	if got := Cap.USD(); got != "$100.00" {
		t.Errorf("cap = %q, want $100.00", got)
	}
	if got := domain.Cents(3500).USD(); got != "$35.00" {
		t.Errorf("USD(3500) = %q", got)
	}
}
