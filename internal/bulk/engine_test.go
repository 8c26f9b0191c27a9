package bulk

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/ledger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine wires a real file-backed store and ledger in a temp dir.
func newTestEngine(t *testing.T) (*Engine, *inventory.Store, *ledger.Ledger) {
	t.Helper()
	dir := t.TempDir()
	log := testLogger()

	sales := ledger.New(filepath.Join(dir, "sales.txt"), log)
	store := inventory.New(filepath.Join(dir, "inventory.txt"), sales, log)
	if _, err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return New(store, sales, log), store, sales
}

func mustAdd(t *testing.T, s *inventory.Store, id, name string, qty int, price string) {
	t.Helper()
	if err := s.Add(id, name, qty, decimal.RequireFromString(price)); err != nil {
		t.Fatalf("Add(%s) error = %v", id, err)
	}
}

func TestAddAll_PartialSuccess(t *testing.T) {
	e, store, _ := newTestEngine(t)
	mustAdd(t, store, "SKU-1", "Widget", 5, "1.00")

	sum := e.AddAll([]AddCandidate{
		{ID: "SKU-2", Name: "Gadget", Quantity: "3", Price: "2.00"},
		{ID: "SKU-1", Name: "Dup", Quantity: "1", Price: "1.00"},     // live duplicate
		{ID: "SKU-3", Name: "Gizmo", Quantity: "many", Price: "1"},   // bad quantity
		{ID: "SKU-4", Name: "Doodad", Quantity: "2", Price: "-1.00"}, // negative price
		{ID: "SKU-5", Name: "", Quantity: "2", Price: "1.00"},        // empty name
		{ID: "SKU-6", Name: "Thing", Quantity: "7", Price: "0.50"},
		{ID: "SKU-6", Name: "Thing again", Quantity: "1", Price: "1"}, // staged duplicate
	})

	if sum.Added != 2 || sum.Skipped != 5 {
		t.Errorf("Summary = %+v, want Added=2 Skipped=5", sum)
	}
	if _, ok := store.Get("SKU-2"); !ok {
		t.Error("SKU-2 not committed")
	}
	if _, ok := store.Get("SKU-6"); !ok {
		t.Error("SKU-6 not committed")
	}
	if p, _ := store.Get("SKU-1"); p.Name != "Widget" {
		t.Errorf("SKU-1 overwritten by rejected duplicate: %+v", p)
	}
}

func TestSellAll_CompoundsWithinBatch(t *testing.T) {
	e, store, sales := newTestEngine(t)
	mustAdd(t, store, "A", "Widget", 5, "1.00")

	sum := e.SellAll([]SellCandidate{
		{ID: "A", Quantity: "3"},
		{ID: "A", Quantity: "4"}, // only 2 left after the staged first row
	}, "Acme")

	if sum.Sold != 1 || sum.Skipped != 1 {
		t.Errorf("Summary = %+v, want Sold=1 Skipped=1", sum)
	}
	if p, _ := store.Get("A"); p.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", p.Quantity)
	}

	events, _, err := sales.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ledger has %d events, want 1", len(events))
	}
	if events[0].Quantity != 3 || events[0].Customer != "Acme" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestSellAll_SkipsUnknownAndInvalid(t *testing.T) {
	e, store, _ := newTestEngine(t)
	mustAdd(t, store, "A", "Widget", 5, "1.00")

	sum := e.SellAll([]SellCandidate{
		{ID: "A", Quantity: "2"},
		{ID: "missing", Quantity: "1"},
		{ID: "A", Quantity: "0"},
		{ID: "A", Quantity: "-1"},
	}, "Acme")

	if sum.Sold != 1 || sum.Skipped != 3 {
		t.Errorf("Summary = %+v, want Sold=1 Skipped=3", sum)
	}
	if p, _ := store.Get("A"); p.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", p.Quantity)
	}
}

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpsertFeed_MissingRequiredColumnIsFatal(t *testing.T) {
	e, store, _ := newTestEngine(t)
	mustAdd(t, store, "SKU-1", "Widget", 5, "1.00")

	path := writeFeed(t, "product_id,name\nSKU-1,Widget\n")
	_, err := e.UpsertFeed(path)
	if err == nil {
		t.Fatal("UpsertFeed() error = nil, want missing-column error")
	}

	// Nothing was processed.
	if p, _ := store.Get("SKU-1"); p.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", p.Quantity)
	}
}

func TestUpsertFeed_RowSemantics(t *testing.T) {
	e, store, _ := newTestEngine(t)
	mustAdd(t, store, "SKU-1", "Widget", 5, "1.00")

	path := writeFeed(t,
		"product_id,quantity,name,price,warehouse\n"+ // extra column ignored
			"SKU-1,9,,,east\n"+ // known id: quantity only, name/price untouched
			"SKU-2,4,Gadget,2.50,west\n"+ // unknown id with full attributes
			"SKU-3,4,,,north\n"+ // unknown id missing name+price: skip
			"SKU-1,-2,,,east\n"+ // negative quantity: skip
			"SKU-4,1,Gizmo,cheap,\n") // bad price: skip

	sum, err := e.UpsertFeed(path)
	if err != nil {
		t.Fatalf("UpsertFeed() error = %v", err)
	}
	if sum.Updated != 1 || sum.Added != 1 || sum.Skipped != 3 {
		t.Errorf("Summary = %+v, want Updated=1 Added=1 Skipped=3", sum)
	}

	p, _ := store.Get("SKU-1")
	if p.Quantity != 9 {
		t.Errorf("SKU-1 quantity = %d, want 9", p.Quantity)
	}
	if p.Name != "Widget" || !p.Price.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("SKU-1 name/price changed: %+v", p)
	}

	p2, ok := store.Get("SKU-2")
	if !ok {
		t.Fatal("SKU-2 not added")
	}
	if p2.Name != "Gadget" || p2.Quantity != 4 || !p2.Price.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("SKU-2 = %+v", p2)
	}

	if _, ok := store.Get("SKU-3"); ok {
		t.Error("SKU-3 added despite missing name and price")
	}
}

func TestUpsertFeed_OptionalAttributesUpdateWhenPresent(t *testing.T) {
	e, store, _ := newTestEngine(t)
	mustAdd(t, store, "SKU-1", "Widget", 5, "1.00")

	path := writeFeed(t, "product_id,quantity,name,price\nSKU-1,7,Renamed,3.00\n")
	sum, err := e.UpsertFeed(path)
	if err != nil {
		t.Fatalf("UpsertFeed() error = %v", err)
	}
	if sum.Updated != 1 {
		t.Errorf("Updated = %d, want 1", sum.Updated)
	}

	p, _ := store.Get("SKU-1")
	if p.Name != "Renamed" || p.Quantity != 7 || !p.Price.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("SKU-1 = %+v", p)
	}
}

func TestUpsertFeed_LaterRowOverridesStaged(t *testing.T) {
	e, store, _ := newTestEngine(t)

	path := writeFeed(t,
		"product_id,quantity,name,price\n"+
			"SKU-1,3,Widget,1.00\n"+
			"SKU-1,8,,\n") // second row updates the staged insert

	sum, err := e.UpsertFeed(path)
	if err != nil {
		t.Fatalf("UpsertFeed() error = %v", err)
	}
	if sum.Added != 1 || sum.Updated != 0 || sum.Skipped != 0 {
		t.Errorf("Summary = %+v, want Added=1 Updated=0 Skipped=0", sum)
	}

	p, ok := store.Get("SKU-1")
	if !ok {
		t.Fatal("SKU-1 not added")
	}
	if p.Quantity != 8 || p.Name != "Widget" {
		t.Errorf("SKU-1 = %+v, want quantity 8 name Widget", p)
	}
}
