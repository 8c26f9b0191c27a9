// Package bulk applies batches of inventory operations with per-row
// validation and partial-success semantics. One bad row is skipped with a
// logged reason and the batch continues; the caller gets a single Summary
// instead of row-by-row side effects. Unlike the single-item paths, a batch
// commits all accepted rows with exactly one persistence flush at the end.
package bulk

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/ledger"
	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// AddCandidate is one row of a multi-entry add session. Quantity and Price
// are raw text because validation is per-row: a candidate that fails to
// parse is skipped, not fatal.
type AddCandidate struct {
	ID       string
	Name     string
	Quantity string
	Price    string
}

// SellCandidate is one row of a multi-entry sale session.
type SellCandidate struct {
	ID       string
	Quantity string
}

// Summary is the single outcome of a batch. Skipped rows have their reasons
// logged with the batch id rather than returned. LedgerErrors counts sale
// events that were deducted and persisted but could not be appended to the
// sales file; those deductions stand.
type Summary struct {
	Added        int
	Updated      int
	Sold         int
	Skipped      int
	LedgerErrors int
}

// Engine runs batches against the inventory store and sales ledger.
type Engine struct {
	store *inventory.Store
	sales *ledger.Ledger
	log   *slog.Logger
}

// New creates a bulk engine over the given store and ledger.
func New(store *inventory.Store, sales *ledger.Ledger, log *slog.Logger) *Engine {
	return &Engine{store: store, sales: sales, log: log}
}

// batchLogger tags every log line of one batch run with a fresh batch id,
// so skip reasons can be correlated with their summary.
func (e *Engine) batchLogger(op string) *slog.Logger {
	return e.log.With("op", op, "batch_id", uuid.New().String())
}

// AddAll validates each candidate independently, stages the accepted ones,
// and commits them with a single save. Duplicate ids are checked against
// both the live snapshot and rows staged earlier in the same batch.
// Accepted rows are not rolled back when later rows fail.
func (e *Engine) AddAll(candidates []AddCandidate) Summary {
	log := e.batchLogger("bulk_add")
	var sum Summary

	staged := make([]record.Product, 0, len(candidates))
	stagedIDs := make(map[string]bool, len(candidates))

	for i, c := range candidates {
		row := i + 1
		id := strings.TrimSpace(c.ID)
		name := strings.TrimSpace(c.Name)

		qty, err := record.ParseQuantity(c.Quantity)
		if err != nil {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", fmt.Sprintf("quantity %q: %v", c.Quantity, err))
			continue
		}
		price, err := record.ParsePrice(c.Price)
		if err != nil {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", fmt.Sprintf("price %q: %v", c.Price, err))
			continue
		}
		if id == "" || name == "" || !record.FieldClean(id) || !record.FieldClean(name) {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", "empty or invalid id/name")
			continue
		}
		if _, exists := e.store.Get(id); exists || stagedIDs[id] {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", "duplicate id")
			continue
		}

		stagedIDs[id] = true
		staged = append(staged, record.Product{ID: id, Name: name, Quantity: qty, Price: price})
	}

	if err := e.store.AddBatch(staged); err != nil {
		log.Error("batch commit failed", "staged", len(staged), "error", err)
		sum.Skipped += len(staged)
		return sum
	}

	sum.Added = len(staged)
	log.Info("bulk add finished", "added", sum.Added, "skipped", sum.Skipped)
	return sum
}

// SellAll validates each candidate against the current snapshot minus the
// deductions already staged in this batch, so two sales of the same id
// within one batch compound correctly. All accepted deductions are applied
// with one save, then each sale event is appended to the ledger.
func (e *Engine) SellAll(candidates []SellCandidate, customer string) Summary {
	log := e.batchLogger("bulk_sell")
	var sum Summary

	customer = strings.TrimSpace(customer)
	if !record.FieldClean(customer) {
		log.Warn("rejecting batch", "reason", "customer contains delimiter")
		sum.Skipped = len(candidates)
		return sum
	}

	staged := make(map[string]int, len(candidates))
	type acceptedRow struct {
		id   string
		name string
		qty  int
	}
	var accepted []acceptedRow

	for i, c := range candidates {
		row := i + 1
		id := strings.TrimSpace(c.ID)

		qty, err := record.ParseQuantity(c.Quantity)
		if err != nil || qty == 0 {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", fmt.Sprintf("quantity %q must be a positive integer", c.Quantity))
			continue
		}

		p, exists := e.store.Get(id)
		if !exists {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", "product not found")
			continue
		}

		available := p.Quantity - staged[id]
		if qty > available {
			sum.Skipped++
			log.Warn("skipping row", "row", row, "id", id, "reason", fmt.Sprintf("insufficient stock: %d available, %d requested", available, qty))
			continue
		}

		staged[id] += qty
		accepted = append(accepted, acceptedRow{id: id, name: p.Name, qty: qty})
	}

	if err := e.store.DeductBatch(staged); err != nil {
		log.Error("batch commit failed", "staged", len(accepted), "error", err)
		sum.Skipped += len(accepted)
		return sum
	}

	now := time.Now()
	for _, a := range accepted {
		ev := record.SaleEvent{
			Timestamp:   now,
			ProductID:   a.id,
			ProductName: a.name,
			Quantity:    a.qty,
			Customer:    customer,
		}
		if err := e.sales.Append(ev); err != nil {
			sum.LedgerErrors++
			log.Error("stock deducted but ledger append failed", "id", a.id, "error", err)
		}
	}

	sum.Sold = len(accepted)
	log.Info("bulk sell finished", "sold", sum.Sold, "skipped", sum.Skipped, "ledger_errors", sum.LedgerErrors)
	return sum
}
