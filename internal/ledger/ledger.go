// Package ledger is the append-only log of sale events. The core only ever
// appends to it; reporting reads it back with Scan. There is no update and
// no delete: corrections are out of scope, and anything that needs the
// history replays the file.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// Ledger appends encoded sale events to a flat file, one per line. The file
// is opened per operation and closed when the operation completes, success
// or not.
type Ledger struct {
	path string
	log  *slog.Logger
}

// New creates a ledger backed by the sales file at path. The file is created
// on first append; a missing file just means no sales yet.
func New(path string, log *slog.Logger) *Ledger {
	return &Ledger{path: path, log: log}
}

// Append writes one sale event to the end of the sales file. A failure here
// (disk full, permissions) surfaces to the caller; the caller's prior
// inventory mutation is not undone.
func (l *Ledger) Append(ev record.SaleEvent) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening sales file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(record.EncodeSale(ev) + "\n"); err != nil {
		return fmt.Errorf("appending sale: %w", err)
	}
	return nil
}

// Scan re-reads the whole sales file from the start and returns every
// decodable event in file order. Malformed lines are skipped with a warning
// and counted, mirroring the inventory load contract. A missing file yields
// an empty history.
func (l *Ledger) Scan() (events []record.SaleEvent, skipped int, err error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("opening sales file: %w", err)
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

		ev, err := record.DecodeSale(line)
		if err != nil {
			skipped++
			l.log.Warn("skipping malformed sales line", "line", lineNum, "error", err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		// Same policy as the inventory load: an oversized line is
		// corruption, not a reason to lose the readable history.
		if !errors.Is(err, bufio.ErrTooLong) {
			return events, skipped, fmt.Errorf("reading sales file: %w", err)
		}
		skipped++
		l.log.Warn("oversized sales line, rest of file not read", "line", lineNum+1)
	}
	return events, skipped, nil
}
