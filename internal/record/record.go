// Package record defines the on-disk line formats for the two flat files
// that back the tracker: the inventory file (one product per line) and the
// sales file (one sale per line). Both are headerless, comma-delimited, and
// unquoted, so the codec also owns the field-level validation that keeps a
// delimiter from ever ending up inside a field.
package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delimiter separates fields within a persisted line. Lines are not quoted,
// so no field may contain this character.
const Delimiter = ","

// TimeLayout is the sortable local-time format used for sale timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// MaxLineBytes caps how long a single persisted line may grow before loaders
// give up on it. Well-formed lines are tiny; anything near this limit is
// corruption, and it gets skipped rather than aborting the load.
const MaxLineBytes = 1 << 20

// Product is a single inventory record. ID is unique within a snapshot and
// immutable once created. Quantity is never negative; Price is never
// negative.
type Product struct {
	ID       string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// SaleEvent is one appended line in the sales file. ProductName is a
// snapshot of the product's name at sale time; it is never re-joined
// against the live inventory, so a later rename does not rewrite history.
type SaleEvent struct {
	Timestamp   time.Time
	ProductID   string
	ProductName string
	Quantity    int
	Customer    string
}
