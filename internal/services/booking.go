package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aguin/internal/amqp"
	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/metrics"
)

// BookingStore is the persistence the public booking form needs.
type BookingStore interface {
	ListPackages(ctx context.Context) ([]core.Package, error)
	Book(ctx context.Context, c core.Client, r core.Reservation) (core.Client, core.Reservation, error)
}

// BookingRequest is a submission of the public booking form.
type BookingRequest struct {
	FullName      string
	Phone         string
	Email         string
	PackageID     int64
	RequestedDate string
}

// BookingService turns public booking requests into a new client with a
// pending reservation.
type BookingService struct {
	store    BookingStore
	notifier *Notifier
	metrics  *metrics.Metrics
	logger   *log.Logger
}

func NewBookingService(store BookingStore, notifier *Notifier, m *metrics.Metrics, logger *log.Logger) *BookingService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BookingService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentBooking),
	}
}

// Packages lists the packages offered in the form, by name.
func (s *BookingService) Packages(ctx context.Context) ([]core.Package, error) {
	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

// Book validates req and stores the client and its reservation together.
// The reservation starts pending and records the requested package in its
// comments.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (core.Reservation, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.RequestedDate = strings.TrimSpace(req.RequestedDate)

	if req.FullName == "" || req.Phone == "" || req.PackageID <= 0 || req.RequestedDate == "" {
		return core.Reservation{}, &core.ValidationError{
			Field:   "reserva",
			Message: "Por favor completa todos los campos antes de enviar la reserva.",
		}
	}

	date, err := core.ParseDate(req.RequestedDate)
	if err != nil {
		return core.Reservation{}, err
	}

	pkg, err := s.findPackage(ctx, req.PackageID)
	if err != nil {
		return core.Reservation{}, err
	}

	client := core.Client{FullName: req.FullName, Phone: req.Phone, Email: req.Email, RegisteredAt: time.Now()}
	if err := client.Validate(); err != nil {
		return core.Reservation{}, err
	}
	reservation := core.Reservation{
		Comments:      "Paquete solicitado: " + pkg.Name,
		Status:        core.StatusPending,
		RequestedDate: date,
	}

	client, reservation, err = s.store.Book(ctx, client, reservation)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("book reservation (package=%d): %w", pkg.ID, err)
	}

	if s.metrics != nil {
		s.metrics.ReservationsBooked.Inc()
	}
	s.logger.InfoContext(ctx, "Reservation booked",
		log.FieldReservationID, reservation.ID,
		log.FieldEntityID, client.ID,
		"requested_date", reservation.RequestedDate.String())
	s.notifier.Publish(ctx, amqp.ReservationCreated, reservation.ID)
	return reservation, nil
}

func (s *BookingService) findPackage(ctx context.Context, id int64) (core.Package, error) {
	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return core.Package{}, fmt.Errorf("list packages: %w", err)
	}
	for _, p := range pkgs {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Package{}, &core.ValidationError{Field: "paquete", Message: "El paquete seleccionado ya no está disponible."}
}
