// Package store defines the persistence ports used by the services layer.
// Implementations live in internal/storage (SQL) and internal/store/memory.
package store

import (
	"context"
	"errors"

	"aguin/internal/core"
	"aguin/internal/dashboard"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with existing data")
)

// Entity names a countable collection.
type Entity string

const (
	EntityReservations  Entity = "reservations"
	EntityClients       Entity = "clients"
	EntityPhotographers Entity = "photographers"
	EntityServices      Entity = "services"
	EntityPackages      Entity = "packages"
	EntityReviews       Entity = "reviews"
	EntityPayments      Entity = "payments"
	EntityGalleries     Entity = "galleries"
	EntityPhotos        Entity = "photos"
)

// CountedEntities are the collections whose sizes appear on the dashboard.
var CountedEntities = []Entity{
	EntityPayments, EntityClients, EntityPhotographers, EntityServices, EntityPackages, EntityReviews,
}

type (
	ClientStore interface {
		ListClients(ctx context.Context) ([]core.Client, error)
		GetClient(ctx context.Context, id int64) (core.Client, error)
		CreateClient(ctx context.Context, c core.Client) (core.Client, error)
		UpdateClient(ctx context.Context, c core.Client) error
		DeleteClient(ctx context.Context, id int64) error
	}

	PhotographerStore interface {
		ListPhotographers(ctx context.Context) ([]core.Photographer, error)
		CreatePhotographer(ctx context.Context, p core.Photographer) (core.Photographer, error)
		UpdatePhotographer(ctx context.Context, p core.Photographer) error
		DeletePhotographer(ctx context.Context, id int64) error
	}

	ServiceStore interface {
		ListServices(ctx context.Context) ([]core.Service, error)
		CreateService(ctx context.Context, s core.Service) (core.Service, error)
		UpdateService(ctx context.Context, s core.Service) error
		DeleteService(ctx context.Context, id int64) error
	}

	// PackageStore persists packages together with their service links.
	// Create and Update replace the full set of linked services.
	PackageStore interface {
		ListPackages(ctx context.Context) ([]core.Package, error)
		CreatePackage(ctx context.Context, p core.Package) (core.Package, error)
		UpdatePackage(ctx context.Context, p core.Package) error
		DeletePackage(ctx context.Context, id int64) error
	}

	ReservationStore interface {
		// ListReservations returns reservations by requested date, newest first.
		ListReservations(ctx context.Context) ([]core.Reservation, error)
		GetReservation(ctx context.Context, id int64) (core.Reservation, error)
		CreateReservation(ctx context.Context, r core.Reservation) (core.Reservation, error)
		UpdateReservation(ctx context.Context, r core.Reservation) error
		SetReservationStatus(ctx context.Context, id int64, status core.ReservationStatus) error
		DeleteReservation(ctx context.Context, id int64) error
		// Book stores a new client and its first reservation atomically.
		Book(ctx context.Context, c core.Client, r core.Reservation) (core.Client, core.Reservation, error)
		// DashboardRows returns every reservation joined with its client name
		// and payment, newest first.
		DashboardRows(ctx context.Context) ([]dashboard.Reservation, error)
	}

	PaymentStore interface {
		ListPayments(ctx context.Context) ([]core.Payment, error)
		GetPayment(ctx context.Context, id int64) (core.Payment, error)
		// RecordPayment stores the payment and marks its reservation as paid
		// in the same transaction.
		RecordPayment(ctx context.Context, p core.Payment) (core.Payment, error)
		DeletePayment(ctx context.Context, id int64) error
	}

	GalleryStore interface {
		ListGalleries(ctx context.Context) ([]core.Gallery, error)
		CreateGallery(ctx context.Context, g core.Gallery) (core.Gallery, error)
		DeleteGallery(ctx context.Context, id int64) error
		// ListPhotos returns photos in upload order.
		ListPhotos(ctx context.Context) ([]core.Photo, error)
		AddPhoto(ctx context.Context, p core.Photo) (core.Photo, error)
		DeletePhoto(ctx context.Context, id int64) error
	}

	ReviewStore interface {
		// ListReviews returns reviews newest first.
		ListReviews(ctx context.Context) ([]core.Review, error)
		CreateReview(ctx context.Context, r core.Review) (core.Review, error)
		DeleteReview(ctx context.Context, id int64) error
	}

	UserStore interface {
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
	}

	Counter interface {
		Count(ctx context.Context, entity Entity) (int, error)
	}

	// Store is the full persistence surface of the application.
	Store interface {
		ClientStore
		PhotographerStore
		ServiceStore
		PackageStore
		ReservationStore
		PaymentStore
		GalleryStore
		ReviewStore
		UserStore
		Counter
		Ping(ctx context.Context) error
		Close() error
	}
)
