package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aguin/internal/amqp"
	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/log"
	"aguin/internal/metrics"
	"aguin/internal/store"
)

// receiptNamespace seeds the name-based UUIDs behind receipt numbers, so a
// payment always prints with the same number.
var receiptNamespace = uuid.MustParse("5b0c6d0e-3f7a-4e55-8d2b-6a1c9e4f2b71")

type PaymentStore interface {
	store.PaymentStore
	GetReservation(ctx context.Context, id int64) (core.Reservation, error)
	ListReservations(ctx context.Context) ([]core.Reservation, error)
	GetClient(ctx context.Context, id int64) (core.Client, error)
	ListClients(ctx context.Context) ([]core.Client, error)
}

// PaymentRow is a payment as listed in the back office.
type PaymentRow struct {
	core.Payment
	ClientName    string
	RequestedDate core.Date
	Status        core.ReservationStatus
}

// Receipt is the printable proof of a recorded payment.
type Receipt struct {
	Number        string
	PaymentID     int64
	ReservationID int64
	IssuedAt      time.Time
	Client        core.Client
	RequestedDate core.Date
	Status        core.ReservationStatus
	Total         decimal.Decimal
}

// TotalLabel renders Total in quetzales.
func (r Receipt) TotalLabel() string { return core.FormatQuetzales(r.Total) }

// ReceiptNumber derives the stable receipt number of a payment.
func ReceiptNumber(paymentID int64) string {
	id := uuid.NewSHA1(receiptNamespace, []byte(fmt.Sprintf("payment:%d", paymentID)))
	return "CMP-" + strings.ToUpper(id.String()[:8])
}

type PaymentService struct {
	store    PaymentStore
	notifier *Notifier
	metrics  *metrics.Metrics
	logger   *log.Logger
}

func NewPaymentService(store PaymentStore, notifier *Notifier, m *metrics.Metrics, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Discard()
	}
	return &PaymentService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentPayments),
	}
}

// List returns payments newest first with their reservation's client.
func (s *PaymentService) List(ctx context.Context) ([]PaymentRow, error) {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	reservations, err := s.store.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.FullName
	}
	byID := make(map[int64]core.Reservation, len(reservations))
	for _, r := range reservations {
		byID[r.ID] = r
	}

	rows := make([]PaymentRow, 0, len(payments))
	for _, p := range payments {
		r := byID[p.ReservationID]
		name := names[r.ClientID]
		if strings.TrimSpace(name) == "" {
			name = dashboard.UnnamedClient
		}
		rows = append(rows, PaymentRow{Payment: p, ClientName: name, RequestedDate: r.RequestedDate, Status: r.Status})
	}
	return rows, nil
}

// Record stores a payment for a reservation and marks it as paid.
func (s *PaymentService) Record(ctx context.Context, reservationID int64, total string) (core.Payment, error) {
	if reservationID <= 0 || strings.TrimSpace(total) == "" {
		return core.Payment{}, &core.ValidationError{Field: "reserva", Message: "Selecciona una reserva y especifica el monto cobrado."}
	}
	amount, err := core.ParseAmount(total)
	if err != nil {
		return core.Payment{}, &core.ValidationError{Field: "total", Message: "El monto debe ser un número válido."}
	}

	p := core.Payment{ReservationID: reservationID, Total: amount, RegisteredAt: time.Now()}
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}

	p, err = s.store.RecordPayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("record payment (reservation=%d): %w", reservationID, err)
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	s.logger.InfoContext(ctx, "Payment recorded",
		log.FieldPaymentID, p.ID,
		log.FieldReservationID, reservationID,
		log.FieldAmount, p.Total.StringFixed(2))
	s.notifier.Publish(ctx, amqp.PaymentRecorded, p.ID)
	return p, nil
}

// Receipt assembles the printable receipt of a payment.
func (s *PaymentService) Receipt(ctx context.Context, paymentID int64) (Receipt, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return Receipt{}, fmt.Errorf("get payment (id=%d): %w", paymentID, err)
	}
	r, err := s.store.GetReservation(ctx, p.ReservationID)
	if err != nil {
		return Receipt{}, fmt.Errorf("get reservation (id=%d): %w", p.ReservationID, err)
	}
	c, err := s.store.GetClient(ctx, r.ClientID)
	if err != nil {
		return Receipt{}, fmt.Errorf("get client (id=%d): %w", r.ClientID, err)
	}
	if strings.TrimSpace(c.FullName) == "" {
		c.FullName = dashboard.UnnamedClient
	}

	return Receipt{
		Number:        ReceiptNumber(p.ID),
		PaymentID:     p.ID,
		ReservationID: r.ID,
		IssuedAt:      p.RegisteredAt,
		Client:        c,
		RequestedDate: r.RequestedDate,
		Status:        r.Status,
		Total:         p.Total,
	}, nil
}

func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}
