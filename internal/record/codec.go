package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedRecord marks a persisted line that cannot be decoded. Loaders
// match it with errors.Is and skip the line instead of aborting the whole
// load; decode functions never panic on bad input.
var ErrMalformedRecord = errors.New("malformed record")

// productFieldCount and saleFieldCount are fixed by the file formats:
// id,name,quantity,price and timestamp,product_id,name,quantity,customer.
const (
	productFieldCount = 4
	saleFieldCount    = 5
)

// DecodeProduct parses one inventory line. Any deviation from the format
// (wrong field count, non-numeric quantity or price, negative values,
// empty id) is reported as an error wrapping ErrMalformedRecord.
func DecodeProduct(line string) (Product, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != productFieldCount {
		return Product{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, productFieldCount, len(fields))
	}

	id := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[1])
	if id == "" {
		return Product{}, fmt.Errorf("%w: empty product id", ErrMalformedRecord)
	}

	qty, err := ParseQuantity(fields[2])
	if err != nil {
		return Product{}, fmt.Errorf("%w: quantity %q: %v", ErrMalformedRecord, fields[2], err)
	}

	price, err := ParsePrice(fields[3])
	if err != nil {
		return Product{}, fmt.Errorf("%w: price %q: %v", ErrMalformedRecord, fields[3], err)
	}

	return Product{ID: id, Name: name, Quantity: qty, Price: price}, nil
}

// EncodeProduct renders a product in canonical field order. It is total: a
// product that passed validation always encodes, and the result decodes back
// to equal values.
func EncodeProduct(p Product) string {
	return strings.Join([]string{
		p.ID,
		p.Name,
		strconv.Itoa(p.Quantity),
		p.Price.String(),
	}, Delimiter)
}

// DecodeSale parses one sales-file line. Mirrors DecodeProduct's contract:
// malformed input signals ErrMalformedRecord, never an abort.
func DecodeSale(line string) (SaleEvent, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != saleFieldCount {
		return SaleEvent{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, saleFieldCount, len(fields))
	}

	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[0]), time.Local)
	if err != nil {
		return SaleEvent{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, fields[0])
	}

	id := strings.TrimSpace(fields[1])
	if id == "" {
		return SaleEvent{}, fmt.Errorf("%w: empty product id", ErrMalformedRecord)
	}

	qty, err := ParseQuantity(fields[3])
	if err != nil || qty <= 0 {
		return SaleEvent{}, fmt.Errorf("%w: quantity %q", ErrMalformedRecord, fields[3])
	}

	return SaleEvent{
		Timestamp:   ts,
		ProductID:   id,
		ProductName: strings.TrimSpace(fields[2]),
		Quantity:    qty,
		Customer:    strings.TrimSpace(fields[4]),
	}, nil
}

// EncodeSale renders a sale event in canonical field order.
func EncodeSale(ev SaleEvent) string {
	return strings.Join([]string{
		ev.Timestamp.Format(TimeLayout),
		ev.ProductID,
		ev.ProductName,
		strconv.Itoa(ev.Quantity),
		ev.Customer,
	}, Delimiter)
}

// ParseQuantity parses a non-negative integer quantity field.
func ParseQuantity(s string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if qty < 0 {
		return 0, fmt.Errorf("negative quantity")
	}
	return qty, nil
}

// ParsePrice parses a non-negative decimal price field.
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a decimal")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative price")
	}
	return price, nil
}

// FieldClean reports whether a free-text field (id, name, customer) can be
// persisted without corrupting the line format.
func FieldClean(s string) bool {
	return !strings.Contains(s, Delimiter) && !strings.ContainsAny(s, "\r\n")
}
