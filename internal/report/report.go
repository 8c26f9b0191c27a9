// Package report derives read-only views for the menu layer from the
// inventory store and the sales ledger. Nothing here mutates state; every
// query is a fresh scan over the public core APIs.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/ledger"
	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// Reporter answers the collaborator-facing queries over store and ledger.
type Reporter struct {
	store *inventory.Store
	sales *ledger.Ledger
}

// New creates a reporter over the given store and ledger.
func New(store *inventory.Store, sales *ledger.Ledger) *Reporter {
	return &Reporter{store: store, sales: sales}
}

// SellerTotal is one row of the top-sellers report. Name is the most recent
// name snapshot seen in the ledger for that id.
type SellerTotal struct {
	ProductID string
	Name      string
	Quantity  int
}

// LowStock returns products at or below the threshold.
func (r *Reporter) LowStock(threshold int) []record.Product {
	return r.store.LowStock(threshold)
}

// InventoryValue returns the total value of current stock.
func (r *Reporter) InventoryValue() decimal.Decimal {
	return r.store.TotalValue()
}

// TotalRevenue sums ledger quantity times the product's *current* price,
// joined by id. Sales of products that no longer exist contribute nothing.
// Using the current price rather than the price at sale time is the
// tracker's long-standing behavior; the sale line carries no price, so the
// historical figure could not be reconstructed anyway.
func (r *Reporter) TotalRevenue() (decimal.Decimal, error) {
	events, _, err := r.sales.Scan()
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, ev := range events {
		p, ok := r.store.Get(ev.ProductID)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(ev.Quantity))))
	}
	return total, nil
}

// TopSellers returns the n products with the highest cumulative sold
// quantity, ties broken by id so the ordering is deterministic.
func (r *Reporter) TopSellers(n int) ([]SellerTotal, error) {
	events, _, err := r.sales.Scan()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*SellerTotal)
	for _, ev := range events {
		st, ok := totals[ev.ProductID]
		if !ok {
			st = &SellerTotal{ProductID: ev.ProductID}
			totals[ev.ProductID] = st
		}
		st.Quantity += ev.Quantity
		st.Name = ev.ProductName
	}

	out := make([]SellerTotal, 0, len(totals))
	for _, st := range totals {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// History returns all sale events for a product id in file order.
func (r *Reporter) History(productID string) ([]record.SaleEvent, error) {
	events, _, err := r.sales.Scan()
	if err != nil {
		return nil, err
	}

	var out []record.SaleEvent
	for _, ev := range events {
		if ev.ProductID == productID {
			out = append(out, ev)
		}
	}
	return out, nil
}
