package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aguin/internal/amqp"
	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/log"
	"aguin/internal/store"
)

type ReservationStore interface {
	store.ReservationStore
	ListClients(ctx context.Context) ([]core.Client, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
}

// ReservationForm is the back office form for a walk-in reservation. It
// creates the client together with the reservation.
type ReservationForm struct {
	FullName      string
	Phone         string
	Comments      string
	RequestedDate string
	Status        string
}

// ReservationEdit changes an existing reservation.
type ReservationEdit struct {
	Comments      string
	RequestedDate string
	Status        string
}

// ReservationRow is a reservation as listed in the back office.
type ReservationRow struct {
	core.Reservation
	ClientName string
	Phone      string
	PaymentID  int64
}

func (r ReservationRow) Paid() bool { return r.PaymentID > 0 }

type ReservationService struct {
	store    ReservationStore
	notifier *Notifier
	logger   *log.Logger
}

func NewReservationService(store ReservationStore, notifier *Notifier, logger *log.Logger) *ReservationService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReservationService{store: store, notifier: notifier, logger: logger.WithComponent(log.ComponentBooking)}
}

// List returns every reservation, newest requested date first, with its
// client and first payment.
func (s *ReservationService) List(ctx context.Context) ([]ReservationRow, error) {
	reservations, err := s.store.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	byID := make(map[int64]core.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	firstPayment := make(map[int64]int64, len(payments))
	for _, p := range payments {
		if cur, ok := firstPayment[p.ReservationID]; !ok || p.ID < cur {
			firstPayment[p.ReservationID] = p.ID
		}
	}

	rows := make([]ReservationRow, 0, len(reservations))
	for _, r := range reservations {
		row := ReservationRow{Reservation: r, ClientName: dashboard.UnnamedClient, Phone: "—", PaymentID: firstPayment[r.ID]}
		if c, ok := byID[r.ClientID]; ok {
			if strings.TrimSpace(c.FullName) != "" {
				row.ClientName = c.FullName
			}
			if c.Phone != "" {
				row.Phone = c.Phone
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Pending filters rows down to those still pending.
func Pending(rows []ReservationRow) []ReservationRow {
	out := make([]ReservationRow, 0)
	for _, r := range rows {
		if r.Status == core.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func (s *ReservationService) Get(ctx context.Context, id int64) (core.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("get reservation (id=%d): %w", id, err)
	}
	return r, nil
}

// Create registers a walk-in client and its reservation in one step.
func (s *ReservationService) Create(ctx context.Context, form ReservationForm) (core.Reservation, error) {
	if strings.TrimSpace(form.FullName) == "" || strings.TrimSpace(form.RequestedDate) == "" {
		return core.Reservation{}, &core.ValidationError{Field: "reserva", Message: "El nombre del cliente y la fecha son obligatorios."}
	}
	date, err := core.ParseDate(form.RequestedDate)
	if err != nil {
		return core.Reservation{}, err
	}

	client := core.Client{
		FullName:     strings.TrimSpace(form.FullName),
		Phone:        strings.TrimSpace(form.Phone),
		RegisteredAt: time.Now(),
	}
	if err := client.Validate(); err != nil {
		return core.Reservation{}, err
	}
	reservation := core.Reservation{
		Comments:      strings.TrimSpace(form.Comments),
		Status:        core.NormalizeStatus(form.Status),
		RequestedDate: date,
	}

	_, reservation, err = s.store.Book(ctx, client, reservation)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	s.logger.InfoContext(ctx, "Reservation created", log.FieldReservationID, reservation.ID)
	s.notifier.Publish(ctx, amqp.ReservationCreated, reservation.ID)
	return reservation, nil
}

func (s *ReservationService) Update(ctx context.Context, id int64, edit ReservationEdit) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	date, err := core.ParseDate(edit.RequestedDate)
	if err != nil {
		return err
	}
	r.Comments = strings.TrimSpace(edit.Comments)
	r.RequestedDate = date
	r.Status = core.NormalizeStatus(edit.Status)
	if err := r.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateReservation(ctx, r); err != nil {
		return fmt.Errorf("update reservation (id=%d): %w", id, err)
	}
	s.notifier.Publish(ctx, amqp.ReservationUpdated, id)
	return nil
}

// SetStatus changes only the status label. Unknown labels are kept as given.
func (s *ReservationService) SetStatus(ctx context.Context, id int64, status string) error {
	normalized := core.NormalizeStatus(status)
	if err := s.store.SetReservationStatus(ctx, id, normalized); err != nil {
		return fmt.Errorf("set reservation status (id=%d): %w", id, err)
	}
	s.logger.InfoContext(ctx, "Reservation status changed",
		log.FieldReservationID, id, "status", normalized)
	s.notifier.Publish(ctx, amqp.ReservationUpdated, id)
	return nil
}

// Delete removes the reservation and its payments.
func (s *ReservationService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return fmt.Errorf("delete reservation (id=%d): %w", id, err)
	}
	s.notifier.Publish(ctx, amqp.ReservationDeleted, id)
	return nil
}
