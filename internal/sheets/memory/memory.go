// Package memory keeps the ledger in process. Used by tests and by the worker
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"aguin/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// AppendReservation stores the row and returns a synthetic row reference.
func (l *Ledger) AppendReservation(_ context.Context, row sheets.ReservationRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	return l.append(row.Values()), nil
}

func (l *Ledger) AppendPayment(_ context.Context, row sheets.PaymentRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	return l.append(row.Values()), nil
}

func (l *Ledger) ExportedKeys(_ context.Context) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make(map[string]struct{}, len(l.rows))
	for _, r := range l.rows {
		keys[r[0]] = struct{}{}
	}
	return keys, nil
}

// Rows returns a copy of every appended row.
func (l *Ledger) Rows() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, len(l.rows))
	for i, r := range l.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func (l *Ledger) append(values []string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, values)
	return fmt.Sprintf("mem:%d", len(l.rows))
}
