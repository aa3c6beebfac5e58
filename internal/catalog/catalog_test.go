package catalog

import (
	"testing"

	"github.com/hackfund/server/internal/domain"
)

func TestCatalogHasTwelveItems(t *testing.T) {
	t.Parallel()

	items := Items()
	if len(items) != 12 {
		t.Fatalf("catalog size = %d, want 12", len(items))
	}

	seen := make(map[int]bool)
	for _, item := range items {
		if seen[item.ID] {
			t.Errorf("duplicate catalog ID %d", item.ID)
		}
		seen[item.ID] = true
		if item.Name == "" || item.Description == "" || item.Icon == "" {
			t.Errorf("item %d has empty display fields: %+v", item.ID, item)
		}
		if item.Price <= 0 {
			t.Errorf("item %d price = %d", item.ID, item.Price)
		}
	}
}

func TestByID(t *testing.T) {
	t.Parallel()

	item, ok := ByID(1)
	if !ok {
		t.Fatal("ByID(1) not found")
	}
	if item.Name != "SixtyFour API" || item.Price != domain.Cents(3500) {
		t.Errorf("item 1 = %+v", item)
	}

	if _, ok := ByID(99); ok {
		t.Error("ByID(99) should not exist")
	}

	sendgrid, ok := ByID(11)
	if !ok || sendgrid.Name != "SendGrid" || sendgrid.Price != domain.Cents(1600) {
		t.Errorf("item 11 = %+v, %v", sendgrid, ok)
	}
	apify, ok := ByID(12)
	if !ok || apify.Name != "Apify API" || apify.Price != domain.Cents(2800) {
		t.Errorf("item 12 = %+v, %v", apify, ok)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	first := Items()
	first[0].Name = "mutated"
	if Items()[0].Name == "mutated" {
		t.Error("Items() exposes the backing catalog slice")
	}
}

func TestSponsorNamesMatchCatalog(t *testing.T) {
	t.Parallel()

	names := SponsorNames()
	items := Items()
	if len(names) != len(items) {
		t.Fatalf("sponsor names = %d, items = %d", len(names), len(items))
	}
	for i, item := range items {
		if names[i] != item.Name {
			t.Errorf("sponsor name[%d] = %q, want %q", i, names[i], item.Name)
		}
	}
}
