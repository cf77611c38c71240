package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aguin/internal/sheets"
)

func TestLedger_AppendAndKeys(t *testing.T) {
	l := New()
	ctx := context.Background()

	ref, err := l.AppendReservation(ctx, sheets.ReservationRow{ReservationID: 7, Client: "Ana López", RequestedDate: "2025-03-10", Status: "pendiente"})
	if err != nil {
		t.Fatalf("append reservation: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q", ref)
	}

	_, err = l.AppendPayment(ctx, sheets.PaymentRow{
		PaymentID:     3,
		ReservationID: 7,
		Client:        "Ana López",
		Receipt:       "CMP-12345678",
		Total:         decimal.RequireFromString("1250.5"),
		RegisteredAt:  time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("append payment: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	want := []string{"P-3", "pago", "2025-03-11", "Ana López", "CMP-12345678", "1250.50"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("payment col %d = %q, want %q", i, rows[1][i], v)
		}
	}

	keys, err := l.ExportedKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"R-7", "P-3"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
}

func TestLedger_RejectsInvalidRows(t *testing.T) {
	l := New()
	if _, err := l.AppendReservation(context.Background(), sheets.ReservationRow{}); !errors.Is(err, sheets.ErrInvalidRow) {
		t.Errorf("expected ErrInvalidRow, got %v", err)
	}
	if _, err := l.AppendPayment(context.Background(), sheets.PaymentRow{PaymentID: 1}); !errors.Is(err, sheets.ErrInvalidRow) {
		t.Errorf("expected ErrInvalidRow, got %v", err)
	}
	if len(l.Rows()) != 0 {
		t.Error("invalid rows must not be stored")
	}
}

func TestLedger_RowsIsACopy(t *testing.T) {
	l := New()
	_, _ = l.AppendReservation(context.Background(), sheets.ReservationRow{ReservationID: 1})
	rows := l.Rows()
	rows[0][0] = "changed"
	if l.Rows()[0][0] != "R-1" {
		t.Error("Rows must not expose internal storage")
	}
}
