// Package memory is an in-process implementation of store.Store used for
// development and tests. It mirrors the cascade rules of the SQL schema.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/store"
)

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	clients       map[int64]core.Client
	photographers map[int64]core.Photographer
	services      map[int64]core.Service
	packages      map[int64]core.Package
	reservations  map[int64]core.Reservation
	payments      map[int64]core.Payment
	galleries     map[int64]core.Gallery
	photos        map[int64]core.Photo
	reviews       map[int64]core.Review
	users         map[string]core.User
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:           time.Now,
		clients:       map[int64]core.Client{},
		photographers: map[int64]core.Photographer{},
		services:      map[int64]core.Service{},
		packages:      map[int64]core.Package{},
		reservations:  map[int64]core.Reservation{},
		payments:      map[int64]core.Payment{},
		galleries:     map[int64]core.Gallery{},
		photos:        map[int64]core.Photo{},
		reviews:       map[int64]core.Review{},
		users:         map[string]core.User{},
	}
}

// WithClock replaces the clock used for registration timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func sortedByID[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error              { return nil }

// Clients

func (s *Store) ListClients(context.Context) ([]core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.clients, func(c core.Client) int64 { return c.ID })
	slices.SortStableFunc(out, func(a, b core.Client) int { return strings.Compare(a.FullName, b.FullName) })
	return out, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return core.Client{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateClient(_ context.Context, c core.Client) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertClient(c), nil
}

func (s *Store) insertClient(c core.Client) core.Client {
	c.ID = s.nextID()
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = s.now()
	}
	s.clients[c.ID] = c
	return c
}

func (s *Store) UpdateClient(_ context.Context, c core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.clients[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.RegisteredAt = old.RegisteredAt
	s.clients[c.ID] = c
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.clients, id)
	for rid, r := range s.reservations {
		if r.ClientID == id {
			s.deleteReservation(rid)
		}
	}
	return nil
}

// Photographers

func (s *Store) ListPhotographers(context.Context) ([]core.Photographer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.photographers, func(p core.Photographer) int64 { return p.ID })
	slices.SortStableFunc(out, func(a, b core.Photographer) int { return strings.Compare(a.FullName, b.FullName) })
	return out, nil
}

func (s *Store) CreatePhotographer(_ context.Context, p core.Photographer) (core.Photographer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	s.photographers[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePhotographer(_ context.Context, p core.Photographer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photographers[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.photographers[p.ID] = p
	return nil
}

func (s *Store) DeletePhotographer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photographers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.photographers, id)
	return nil
}

// Services

func (s *Store) ListServices(context.Context) ([]core.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.services, func(v core.Service) int64 { return v.ID })
	slices.SortStableFunc(out, func(a, b core.Service) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) CreateService(_ context.Context, v core.Service) (core.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID()
	s.services[v.ID] = v
	return v, nil
}

func (s *Store) UpdateService(_ context.Context, v core.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[v.ID]; !ok {
		return store.ErrNotFound
	}
	s.services[v.ID] = v
	return nil
}

func (s *Store) DeleteService(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.services, id)
	for pid, p := range s.packages {
		p.ServiceIDs = slices.DeleteFunc(slices.Clone(p.ServiceIDs), func(v int64) bool { return v == id })
		s.packages[pid] = p
	}
	return nil
}

// Packages

func (s *Store) ListPackages(context.Context) ([]core.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.packages, func(p core.Package) int64 { return p.ID })
	for i := range out {
		out[i].ServiceIDs = slices.Clone(out[i].ServiceIDs)
	}
	return out, nil
}

// linkable dedupes service ids, failing on unknown services like the SQL
// foreign key does.
func (s *Store) linkable(ids []int64) ([]int64, error) {
	var out []int64
	for _, id := range ids {
		if _, ok := s.services[id]; !ok {
			return nil, store.ErrNotFound
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) CreatePackage(_ context.Context, p core.Package) (core.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.linkable(p.ServiceIDs)
	if err != nil {
		return core.Package{}, err
	}
	p.ID = s.nextID()
	p.ServiceIDs = ids
	s.packages[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePackage(_ context.Context, p core.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ID]; !ok {
		return store.ErrNotFound
	}
	ids, err := s.linkable(p.ServiceIDs)
	if err != nil {
		return err
	}
	p.ServiceIDs = ids
	s.packages[p.ID] = p
	return nil
}

func (s *Store) DeletePackage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.packages, id)
	return nil
}

// Reservations

func (s *Store) ListReservations(context.Context) ([]core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reservationsNewestFirst(), nil
}

func (s *Store) reservationsNewestFirst() []core.Reservation {
	out := sortedByID(s.reservations, func(r core.Reservation) int64 { return r.ID })
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b core.Reservation) int {
		return b.RequestedDate.Compare(a.RequestedDate.Time)
	})
	return out
}

func (s *Store) GetReservation(_ context.Context, id int64) (core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return core.Reservation{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) CreateReservation(_ context.Context, r core.Reservation) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[r.ClientID]; !ok {
		return core.Reservation{}, store.ErrNotFound
	}
	return s.insertReservation(r), nil
}

func (s *Store) insertReservation(r core.Reservation) core.Reservation {
	r.ID = s.nextID()
	r.Status = core.NormalizeStatus(string(r.Status))
	s.reservations[r.ID] = r
	return r
}

func (s *Store) UpdateReservation(_ context.Context, r core.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.clients[r.ClientID]; !ok {
		return store.ErrNotFound
	}
	r.Status = core.NormalizeStatus(string(r.Status))
	s.reservations[r.ID] = r
	return nil
}

func (s *Store) SetReservationStatus(_ context.Context, id int64, status core.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = core.NormalizeStatus(string(status))
	s.reservations[id] = r
	return nil
}

func (s *Store) DeleteReservation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteReservation(id)
	return nil
}

// deleteReservation removes a reservation with its payments and detaches its
// galleries. Callers hold the write lock.
func (s *Store) deleteReservation(id int64) {
	delete(s.reservations, id)
	for pid, p := range s.payments {
		if p.ReservationID == id {
			delete(s.payments, pid)
		}
	}
	for gid, g := range s.galleries {
		if g.ReservationID != nil && *g.ReservationID == id {
			g.ReservationID = nil
			s.galleries[gid] = g
		}
	}
}

func (s *Store) Book(_ context.Context, c core.Client, r core.Reservation) (core.Client, core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c = s.insertClient(c)
	r.ClientID = c.ID
	return c, s.insertReservation(r), nil
}

func (s *Store) DashboardRows(context.Context) ([]dashboard.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservations := s.reservationsNewestFirst()
	paymentByReservation := map[int64]int64{}
	for _, p := range sortedByID(s.payments, func(p core.Payment) int64 { return p.ID }) {
		if _, seen := paymentByReservation[p.ReservationID]; !seen {
			paymentByReservation[p.ReservationID] = p.ID
		}
	}

	rows := make([]dashboard.Reservation, 0, len(reservations))
	for _, r := range reservations {
		row := dashboard.Reservation{
			ID:            r.ID,
			Comments:      r.Comments,
			Status:        string(r.Status),
			RequestedDate: r.RequestedDate.String(),
		}
		if c, ok := s.clients[r.ClientID]; ok {
			row.Client = &dashboard.ClientRef{FullName: c.FullName}
		}
		if pid, ok := paymentByReservation[r.ID]; ok {
			row.Payment = dashboard.PaymentOf(pid)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Payments

func (s *Store) ListPayments(context.Context) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.payments, func(p core.Payment) int64 { return p.ID })
	slices.Reverse(out)
	return out, nil
}

func (s *Store) GetPayment(_ context.Context, id int64) (core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return core.Payment{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) RecordPayment(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[p.ReservationID]
	if !ok {
		return core.Payment{}, store.ErrNotFound
	}
	p.ID = s.nextID()
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = s.now()
	}
	s.payments[p.ID] = p
	r.Status = core.StatusPaid
	s.reservations[r.ID] = r
	return p, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.payments, id)
	return nil
}

// Galleries

func (s *Store) ListGalleries(context.Context) ([]core.Gallery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.galleries, func(g core.Gallery) int64 { return g.ID }), nil
}

func (s *Store) CreateGallery(_ context.Context, g core.Gallery) (core.Gallery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ReservationID != nil {
		if _, ok := s.reservations[*g.ReservationID]; !ok {
			return core.Gallery{}, store.ErrNotFound
		}
	}
	g.ID = s.nextID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	s.galleries[g.ID] = g
	return g, nil
}

func (s *Store) DeleteGallery(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.galleries[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.galleries, id)
	for pid, p := range s.photos {
		if p.GalleryID == id {
			delete(s.photos, pid)
		}
	}
	return nil
}

func (s *Store) ListPhotos(context.Context) ([]core.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.photos, func(p core.Photo) int64 { return p.ID }), nil
}

func (s *Store) AddPhoto(_ context.Context, p core.Photo) (core.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.galleries[p.GalleryID]; !ok {
		return core.Photo{}, store.ErrNotFound
	}
	p.ID = s.nextID()
	s.photos[p.ID] = p
	return p, nil
}

func (s *Store) DeletePhoto(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

// Reviews

func (s *Store) ListReviews(context.Context) ([]core.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.reviews, func(r core.Review) int64 { return r.ID })
	slices.Reverse(out)
	return out, nil
}

func (s *Store) CreateReview(_ context.Context, r core.Review) (core.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID()
	r.Comment = strings.TrimSpace(r.Comment)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.reviews[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReview(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

// Users

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, exists := s.users[key]; exists {
		return core.User{}, store.ErrConflict
	}
	u.ID = s.nextID()
	s.users[key] = u
	return u, nil
}

// Count

func (s *Store) Count(_ context.Context, entity store.Entity) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch entity {
	case store.EntityReservations:
		return len(s.reservations), nil
	case store.EntityClients:
		return len(s.clients), nil
	case store.EntityPhotographers:
		return len(s.photographers), nil
	case store.EntityServices:
		return len(s.services), nil
	case store.EntityPackages:
		return len(s.packages), nil
	case store.EntityReviews:
		return len(s.reviews), nil
	case store.EntityPayments:
		return len(s.payments), nil
	case store.EntityGalleries:
		return len(s.galleries), nil
	case store.EntityPhotos:
		return len(s.photos), nil
	default:
		return 0, store.ErrNotFound
	}
}
