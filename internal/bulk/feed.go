package bulk

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// Feed column names. product_id and quantity must exist in the header;
// name and price are optional per row; anything else in the feed is ignored.
const (
	colProductID = "product_id"
	colQuantity  = "quantity"
	colName      = "name"
	colPrice     = "price"
)

// headerIndex maps lowercased column names to their position in the feed
// header row.
type headerIndex map[string]int

// makeHeaderIndex builds the column lookup from the feed's header row.
func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// field returns the trimmed cell for a named column, or "" if the column is
// absent or the row is short.
func (h headerIndex) field(row []string, name string) string {
	pos, ok := h[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// UpsertFeed merges an external CSV feed into the inventory. The feed must
// have a header row with product_id and quantity columns; missing either is
// fatal for the whole feed, before any row is processed. Rows are then
// decided independently:
//
//   - known id: quantity is overwritten; name and price are updated only
//     when present and non-empty
//   - unknown id: name and price are required, else the row is skipped
//   - unparseable or negative numbers: row skipped
//
// Accepted rows are staged and committed with one save at the end. Rows are
// id-keyed, so a later row for the same id simply overwrites the staged one.
func (e *Engine) UpsertFeed(path string) (Summary, error) {
	log := e.batchLogger("upsert_feed").With("feed", path)
	var sum Summary

	f, err := os.Open(path)
	if err != nil {
		return sum, fmt.Errorf("opening feed: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may be ragged; columns are resolved by header position
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return sum, fmt.Errorf("reading feed header: %w", err)
	}
	idx := makeHeaderIndex(header)
	for _, required := range []string{colProductID, colQuantity} {
		if _, ok := idx[required]; !ok {
			return sum, fmt.Errorf("feed is missing required column %q", required)
		}
	}

	staged := make(map[string]record.Product)
	rowNum := 1 // header was row 1

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "reason", fmt.Sprintf("unreadable: %v", err))
			continue
		}
		if isEmptyRow(row) {
			continue
		}

		id := idx.field(row, colProductID)
		if id == "" || !record.FieldClean(id) {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "reason", "missing or invalid product_id")
			continue
		}

		qty, err := record.ParseQuantity(idx.field(row, colQuantity))
		if err != nil {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "id", id, "reason", fmt.Sprintf("quantity: %v", err))
			continue
		}

		name := idx.field(row, colName)
		priceRaw := idx.field(row, colPrice)

		// Each row starts from the live product, or the staged version if an
		// earlier row in this feed already touched the id.
		current, live := e.store.Get(id)
		stagedProduct, wasStaged := staged[id]
		if wasStaged {
			current = stagedProduct
		}

		if live || wasStaged {
			current.Quantity = qty
			if name != "" {
				if !record.FieldClean(name) {
					sum.Skipped++
					log.Warn("skipping row", "row", rowNum, "id", id, "reason", "invalid name")
					continue
				}
				current.Name = name
			}
			if priceRaw != "" {
				price, err := record.ParsePrice(priceRaw)
				if err != nil {
					sum.Skipped++
					log.Warn("skipping row", "row", rowNum, "id", id, "reason", fmt.Sprintf("price: %v", err))
					continue
				}
				current.Price = price
			}
			if !wasStaged {
				sum.Updated++
			}
			staged[id] = current
			continue
		}

		// New product: name and price are required.
		if name == "" || priceRaw == "" {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "id", id, "reason", "unknown id requires name and price")
			continue
		}
		if !record.FieldClean(name) {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "id", id, "reason", "invalid name")
			continue
		}
		price, err := record.ParsePrice(priceRaw)
		if err != nil {
			sum.Skipped++
			log.Warn("skipping row", "row", rowNum, "id", id, "reason", fmt.Sprintf("price: %v", err))
			continue
		}

		staged[id] = record.Product{ID: id, Name: name, Quantity: qty, Price: price}
		sum.Added++
	}

	if len(staged) > 0 {
		products := make([]record.Product, 0, len(staged))
		for _, p := range staged {
			products = append(products, p)
		}
		if err := e.store.PutBatch(products); err != nil {
			log.Error("feed commit failed", "staged", len(products), "error", err)
			sum.Skipped += sum.Added + sum.Updated
			sum.Added, sum.Updated = 0, 0
			return sum, fmt.Errorf("committing feed: %w", err)
		}
	}

	log.Info("feed merged", "updated", sum.Updated, "added", sum.Added, "skipped", sum.Skipped)
	return sum, nil
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
