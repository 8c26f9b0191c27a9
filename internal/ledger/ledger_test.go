package ledger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(id string, qty int) record.SaleEvent {
	ts, _ := time.ParseInLocation(record.TimeLayout, "2025-03-14 09:26:53", time.Local)
	return record.SaleEvent{
		Timestamp:   ts,
		ProductID:   id,
		ProductName: "Widget",
		Quantity:    qty,
		Customer:    "Acme",
	}
}

func TestAppendAndScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	l := New(path, testLogger())

	if err := l.Append(testEvent("SKU-1", 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := l.Append(testEvent("SKU-2", 5)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, skipped, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ProductID != "SKU-1" || events[1].ProductID != "SKU-2" {
		t.Errorf("events out of file order: %q, %q", events[0].ProductID, events[1].ProductID)
	}
}

func TestScan_MissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "sales.txt"), testLogger())

	events, skipped, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v, want nil for missing file", err)
	}
	if len(events) != 0 || skipped != 0 {
		t.Errorf("Scan() = %d events, %d skipped; want 0, 0", len(events), skipped)
	}
}

func TestScan_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	l := New(path, testLogger())

	if err := l.Append(testEvent("SKU-1", 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Corrupt line in the middle, then one more valid event.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not,a,sale\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := l.Append(testEvent("SKU-2", 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, skipped, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestScan_SkipsOversizedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	l := New(path, testLogger())

	if err := l.Append(testEvent("SKU-1", 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Corrupt line longer than the default bufio.Scanner token size.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(strings.Repeat("x", 128*1024) + "\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := l.Append(testEvent("SKU-2", 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, skipped, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestScan_IsRestartable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	l := New(path, testLogger())

	if err := l.Append(testEvent("SKU-1", 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	first, _, err := l.Scan()
	if err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	second, _, err := l.Scan()
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("second Scan() = %d events, want %d", len(second), len(first))
	}
}
