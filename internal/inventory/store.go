// Package inventory owns the in-memory product snapshot and its file-backed
// persistence. The snapshot is the single source of truth for a process run:
// it is rebuilt from the inventory file at startup, and every accepted
// mutation fully rewrites that file before the operation reports success.
// There is no write-ahead batching; the last successful save is the durable
// state.
package inventory

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// SaleRecorder receives the sale event produced by a successful deduction.
// Satisfied by *ledger.Ledger.
type SaleRecorder interface {
	Append(ev record.SaleEvent) error
}

// Store maps product id to product and enforces the two inventory
// invariants: id uniqueness and non-negative quantity. All mutators save
// before returning; on a failed save the in-memory change is reverted so
// memory never drifts ahead of disk.
//
// The store is single-writer by design. The tool is a single-user,
// single-process CLI, so there is no locking discipline here.
type Store struct {
	path  string
	sales SaleRecorder
	log   *slog.Logger
	items map[string]record.Product
}

// New creates a store backed by the inventory file at path. Call Load before
// using it.
func New(path string, sales SaleRecorder, log *slog.Logger) *Store {
	return &Store{
		path:  path,
		sales: sales,
		log:   log,
		items: make(map[string]record.Product),
	}
}

// Load rebuilds the snapshot from the inventory file. A missing file is a
// fresh start, not an error. Malformed lines and duplicate ids are skipped
// with a warning; the returned count reports how many lines were dropped.
func (s *Store) Load() (skipped int, err error) {
	s.items = make(map[string]record.Product)

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info("inventory file not found, starting empty", "path", s.path)
			return 0, nil
		}
		return 0, fmt.Errorf("opening inventory file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), record.MaxLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		p, err := record.DecodeProduct(line)
		if err != nil {
			skipped++
			s.log.Warn("skipping malformed inventory line", "line", lineNum, "error", err)
			continue
		}
		if _, exists := s.items[p.ID]; exists {
			skipped++
			s.log.Warn("skipping duplicate product id", "line", lineNum, "id", p.ID)
			continue
		}
		s.items[p.ID] = p
	}
	if err := scanner.Err(); err != nil {
		// A line past MaxLineBytes is corruption; keep what was read and
		// count the rest of the file as one dropped line.
		if !errors.Is(err, bufio.ErrTooLong) {
			return skipped, fmt.Errorf("reading inventory file: %w", err)
		}
		skipped++
		s.log.Warn("oversized inventory line, rest of file not read", "line", lineNum+1)
	}

	s.log.Info("inventory loaded", "products", len(s.items), "skipped", skipped)
	return skipped, nil
}

// save rewrites the whole inventory file from the snapshot. It writes to a
// temp file and renames it over the original, so a crash mid-save leaves
// the previous file intact rather than a truncated one. Records are written
// in id order to keep saves deterministic.
func (s *Store) save() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp inventory file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, id := range s.sortedIDs() {
		if _, err := w.WriteString(record.EncodeProduct(s.items[id]) + "\n"); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("writing inventory file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing inventory file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing inventory file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing inventory file: %w", err)
	}
	return nil
}

func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add inserts a new product and persists the snapshot. Fails with
// ErrDuplicateID if the id exists, or ErrInvalidInput for empty or
// delimiter-tainted fields and negative numbers.
func (s *Store) Add(id, name string, quantity int, price decimal.Decimal) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if err := validateProduct(id, name, quantity, price); err != nil {
		return err
	}
	if _, exists := s.items[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	s.items[id] = record.Product{ID: id, Name: name, Quantity: quantity, Price: price}
	if err := s.save(); err != nil {
		delete(s.items, id)
		return fmt.Errorf("saving inventory: %w", err)
	}

	s.log.Info("product added", "id", id, "quantity", quantity)
	return nil
}

// Deduct removes quantity units of a product, persists the snapshot, and
// appends the resulting sale event to the ledger. From the caller's point of
// view this is one logical record-sale operation. If the ledger append fails
// after the deduction was persisted, the stock change stands and the error
// is a *LedgerAppendError so the caller can surface the gap distinctly.
func (s *Store) Deduct(id string, quantity int, customer string) (record.SaleEvent, error) {
	id = strings.TrimSpace(id)
	customer = strings.TrimSpace(customer)
	if quantity <= 0 {
		return record.SaleEvent{}, fmt.Errorf("%w: sale quantity must be positive", ErrInvalidInput)
	}
	if !record.FieldClean(customer) {
		return record.SaleEvent{}, fmt.Errorf("%w: customer may not contain %q", ErrInvalidInput, record.Delimiter)
	}

	p, exists := s.items[id]
	if !exists {
		return record.SaleEvent{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if quantity > p.Quantity {
		return record.SaleEvent{}, fmt.Errorf("%w: have %d, want %d", ErrInsufficientStock, p.Quantity, quantity)
	}

	prev := p
	p.Quantity -= quantity
	s.items[id] = p
	if err := s.save(); err != nil {
		s.items[id] = prev
		return record.SaleEvent{}, fmt.Errorf("saving inventory: %w", err)
	}

	ev := record.SaleEvent{
		Timestamp:   time.Now(),
		ProductID:   id,
		ProductName: p.Name,
		Quantity:    quantity,
		Customer:    customer,
	}
	if err := s.sales.Append(ev); err != nil {
		s.log.Error("stock deducted but ledger append failed", "id", id, "error", err)
		return ev, &LedgerAppendError{Event: ev, Err: err}
	}

	s.log.Info("sale recorded", "id", id, "quantity", quantity, "customer", customer)
	return ev, nil
}

// SetQuantity overwrites a product's stock level and persists the snapshot.
func (s *Store) SetQuantity(id string, quantity int) error {
	id = strings.TrimSpace(id)
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	p, exists := s.items[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	prev := p
	p.Quantity = quantity
	s.items[id] = p
	if err := s.save(); err != nil {
		s.items[id] = prev
		return fmt.Errorf("saving inventory: %w", err)
	}

	s.log.Info("quantity updated", "id", id, "quantity", quantity)
	return nil
}

// Get returns a copy of the product with the given id.
func (s *Store) Get(id string) (record.Product, bool) {
	p, ok := s.items[id]
	return p, ok
}

// All returns copies of every product, sorted by id.
func (s *Store) All() []record.Product {
	out := make([]record.Product, 0, len(s.items))
	for _, id := range s.sortedIDs() {
		out = append(out, s.items[id])
	}
	return out
}

// LowStock returns products at or below the threshold, sorted by id.
// Read-only; no side effects.
func (s *Store) LowStock(threshold int) []record.Product {
	var out []record.Product
	for _, id := range s.sortedIDs() {
		if p := s.items[id]; p.Quantity <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// TotalValue returns the sum of quantity times price across the snapshot.
func (s *Store) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.items {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total
}

// AddBatch inserts pre-validated products and saves once. Used by the bulk
// engine, which validates each candidate (including intra-batch duplicates)
// before staging. A duplicate here means the engine and store views
// diverged, so the whole batch is refused rather than silently merged.
func (s *Store) AddBatch(products []record.Product) error {
	if len(products) == 0 {
		return nil
	}
	for _, p := range products {
		if _, exists := s.items[p.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
	}

	for _, p := range products {
		s.items[p.ID] = p
	}
	if err := s.save(); err != nil {
		for _, p := range products {
			delete(s.items, p.ID)
		}
		return fmt.Errorf("saving inventory: %w", err)
	}
	return nil
}

// DeductBatch applies per-id stock deductions and saves once. Deltas must
// already be validated against the snapshot; a deduction that would drive a
// quantity negative refuses the whole batch.
func (s *Store) DeductBatch(deltas map[string]int) error {
	if len(deltas) == 0 {
		return nil
	}
	for id, qty := range deltas {
		p, exists := s.items[id]
		if !exists {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		if qty > p.Quantity {
			return fmt.Errorf("%w: %q has %d, want %d", ErrInsufficientStock, id, p.Quantity, qty)
		}
	}

	prev := make(map[string]record.Product, len(deltas))
	for id, qty := range deltas {
		p := s.items[id]
		prev[id] = p
		p.Quantity -= qty
		s.items[id] = p
	}
	if err := s.save(); err != nil {
		for id, p := range prev {
			s.items[id] = p
		}
		return fmt.Errorf("saving inventory: %w", err)
	}
	return nil
}

// PutBatch inserts or replaces products and saves once. Used by the feed
// upsert path, where rows are id-keyed overwrites rather than additions.
func (s *Store) PutBatch(products []record.Product) error {
	if len(products) == 0 {
		return nil
	}

	prev := make(map[string]record.Product, len(products))
	inserted := make([]string, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if !seen[p.ID] {
			seen[p.ID] = true
			if old, exists := s.items[p.ID]; exists {
				prev[p.ID] = old
			} else {
				inserted = append(inserted, p.ID)
			}
		}
		s.items[p.ID] = p
	}
	if err := s.save(); err != nil {
		for _, id := range inserted {
			delete(s.items, id)
		}
		for id, p := range prev {
			s.items[id] = p
		}
		return fmt.Errorf("saving inventory: %w", err)
	}
	return nil
}

// validateProduct applies the field rules shared by Add and the bulk engine.
func validateProduct(id, name string, quantity int, price decimal.Decimal) error {
	if id == "" || name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}
	if !record.FieldClean(id) || !record.FieldClean(name) {
		return fmt.Errorf("%w: fields may not contain %q", ErrInvalidInput, record.Delimiter)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}
