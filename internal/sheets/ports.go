// Package sheets defines the spreadsheet ledger the worker exports studio
// activity to. Each reservation or payment event appends one row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row kinds written to the Tipo column.
const (
	KindReservation = "reserva"
	KindPayment     = "pago"
)

// Columns is the ledger header, one entry per column A..F.
var Columns = []string{"Clave", "Tipo", "Fecha", "Cliente", "Detalle", "Monto"}

var ErrInvalidRow = errors.New("invalid ledger row")

type (
	ReservationRow struct {
		ReservationID int64
		Client        string
		RequestedDate string // YYYY-MM-DD, empty when the client left it open
		Status        string
	}

	PaymentRow struct {
		PaymentID     int64
		ReservationID int64
		Client        string
		Receipt       string
		Total         decimal.Decimal
		RegisteredAt  time.Time
	}
)

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendReservation(ctx context.Context, row ReservationRow) (rowRef string, err error)
		AppendPayment(ctx context.Context, row PaymentRow) (rowRef string, err error)
	}

	// LedgerReader lists the keys already present in column A.
	LedgerReader interface {
		ExportedKeys(ctx context.Context) (map[string]struct{}, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerReader
	}
)

// ReservationKey and PaymentKey build the column A key of a row.
func ReservationKey(id int64) string { return fmt.Sprintf("R-%d", id) }
func PaymentKey(id int64) string     { return fmt.Sprintf("P-%d", id) }

// IsKey reports whether v looks like a value written by this package.
func IsKey(v string) bool {
	return strings.HasPrefix(v, "R-") || strings.HasPrefix(v, "P-")
}

func (r ReservationRow) Validate() error {
	if r.ReservationID <= 0 {
		return fmt.Errorf("%w: reservation id must be positive", ErrInvalidRow)
	}
	return nil
}

func (r ReservationRow) Values() []string {
	return []string{ReservationKey(r.ReservationID), KindReservation, r.RequestedDate, r.Client, r.Status, ""}
}

func (p PaymentRow) Validate() error {
	if p.PaymentID <= 0 || p.ReservationID <= 0 {
		return fmt.Errorf("%w: payment and reservation ids must be positive", ErrInvalidRow)
	}
	if p.Total.IsNegative() {
		return fmt.Errorf("%w: negative total", ErrInvalidRow)
	}
	return nil
}

func (p PaymentRow) Values() []string {
	date := ""
	if !p.RegisteredAt.IsZero() {
		date = p.RegisteredAt.Format(time.DateOnly)
	}
	return []string{PaymentKey(p.PaymentID), KindPayment, date, p.Client, p.Receipt, p.Total.StringFixed(2)}
}
