package report

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/ledger"
	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

func newTestReporter(t *testing.T) (*Reporter, *inventory.Store) {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sales := ledger.New(filepath.Join(dir, "sales.txt"), log)
	store := inventory.New(filepath.Join(dir, "inventory.txt"), sales, log)
	if _, err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return New(store, sales), store
}

func mustAdd(t *testing.T, s *inventory.Store, id, name string, qty int, price string) {
	t.Helper()
	if err := s.Add(id, name, qty, decimal.RequireFromString(price)); err != nil {
		t.Fatalf("Add(%s) error = %v", id, err)
	}
}

func mustSell(t *testing.T, s *inventory.Store, id string, qty int) {
	t.Helper()
	if _, err := s.Deduct(id, qty, "Acme"); err != nil {
		t.Fatalf("Deduct(%s) error = %v", id, err)
	}
}

func TestTotalRevenue_UsesCurrentPrice(t *testing.T) {
	r, store := newTestReporter(t)
	mustAdd(t, store, "SKU-1", "Widget", 10, "2.00")
	mustSell(t, store, "SKU-1", 3)

	got, err := r.TotalRevenue()
	if err != nil {
		t.Fatalf("TotalRevenue() error = %v", err)
	}
	if want := decimal.RequireFromString("6.00"); !got.Equal(want) {
		t.Errorf("TotalRevenue() = %s, want %s", got, want)
	}

	// Reprice the product after the sale: revenue follows the current
	// price, not the price at sale time.
	repriced := record.Product{ID: "SKU-1", Name: "Widget", Quantity: 7, Price: decimal.RequireFromString("5.00")}
	if err := store.PutBatch([]record.Product{repriced}); err != nil {
		t.Fatal(err)
	}
	got, err = r.TotalRevenue()
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("15.00"); !got.Equal(want) {
		t.Errorf("TotalRevenue() after reprice = %s, want %s", got, want)
	}
}

func TestTotalRevenue_IgnoresDeletedProducts(t *testing.T) {
	r, store := newTestReporter(t)
	mustAdd(t, store, "SKU-1", "Widget", 10, "2.00")
	mustSell(t, store, "SKU-1", 3)

	// A ledger entry whose id is no longer in inventory contributes zero.
	gone := record.SaleEvent{
		Timestamp:   time.Now(),
		ProductID:   "GONE",
		ProductName: "Discontinued",
		Quantity:    100,
		Customer:    "Acme",
	}
	if err := r.sales.Append(gone); err != nil {
		t.Fatal(err)
	}

	got, err := r.TotalRevenue()
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("6.00"); !got.Equal(want) {
		t.Errorf("TotalRevenue() = %s, want %s", got, want)
	}
}

func TestTopSellers_OrderAndTruncation(t *testing.T) {
	r, store := newTestReporter(t)
	mustAdd(t, store, "A", "Widget", 20, "1.00")
	mustAdd(t, store, "B", "Gadget", 20, "1.00")
	mustAdd(t, store, "C", "Gizmo", 20, "1.00")

	mustSell(t, store, "B", 5)
	mustSell(t, store, "A", 3)
	mustSell(t, store, "A", 4) // A: 7 total
	mustSell(t, store, "C", 7) // ties with A, id breaks the tie

	top, err := r.TopSellers(2)
	if err != nil {
		t.Fatalf("TopSellers() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].ProductID != "A" || top[0].Quantity != 7 {
		t.Errorf("top[0] = %+v, want A with 7", top[0])
	}
	if top[1].ProductID != "C" || top[1].Quantity != 7 {
		t.Errorf("top[1] = %+v, want C with 7", top[1])
	}
}

func TestHistory_FiltersByProduct(t *testing.T) {
	r, store := newTestReporter(t)
	mustAdd(t, store, "A", "Widget", 20, "1.00")
	mustAdd(t, store, "B", "Gadget", 20, "1.00")

	mustSell(t, store, "A", 1)
	mustSell(t, store, "B", 2)
	mustSell(t, store, "A", 3)

	hist, err := r.History("A")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(hist) = %d, want 2", len(hist))
	}
	if hist[0].Quantity != 1 || hist[1].Quantity != 3 {
		t.Errorf("history out of order: %+v", hist)
	}

	none, err := r.History("missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("History(missing) = %d events, want 0", len(none))
	}
}

func TestLowStockAndInventoryValue_Passthrough(t *testing.T) {
	r, store := newTestReporter(t)
	mustAdd(t, store, "A", "Widget", 2, "3.00")
	mustAdd(t, store, "B", "Gadget", 10, "1.00")

	low := r.LowStock(5)
	if len(low) != 1 || low[0].ID != "A" {
		t.Errorf("LowStock(5) = %+v, want just A", low)
	}
	if got, want := r.InventoryValue(), decimal.RequireFromString("16.00"); !got.Equal(want) {
		t.Errorf("InventoryValue() = %s, want %s", got, want)
	}
}
