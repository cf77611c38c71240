package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/core"
	"aguin/internal/store"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
}

func TestBookAndDashboardRows(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(fixedClock)

	client, res, err := s.Book(ctx,
		core.Client{FullName: "Ana López", Phone: "5555-1234"},
		core.Reservation{RequestedDate: core.NewDate(2025, 3, 20), Comments: "Paquete solicitado: Boda"})
	require.NoError(t, err)
	assert.Equal(t, client.ID, res.ClientID)
	assert.Equal(t, core.StatusPending, res.Status)
	assert.Equal(t, fixedClock(), client.RegisteredAt)

	_, err = s.RecordPayment(ctx, core.Payment{ReservationID: res.ID, Total: decimal.NewFromInt(500)})
	require.NoError(t, err)

	rows, err := s.DashboardRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana López", rows[0].Client.FullName)
	assert.True(t, rows[0].Payment.Present)
	assert.Equal(t, string(core.StatusPaid), rows[0].Status)
	assert.Equal(t, "2025-03-20", rows[0].RequestedDate)
}

func TestRecordPayment_UnknownReservation(t *testing.T) {
	s := New()
	_, err := s.RecordPayment(context.Background(), core.Payment{ReservationID: 42, Total: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteClientCascades(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, res, err := s.Book(ctx, core.Client{FullName: "Luis"}, core.Reservation{RequestedDate: core.NewDate(2025, 1, 2)})
	require.NoError(t, err)
	_, err = s.RecordPayment(ctx, core.Payment{ReservationID: res.ID, Total: decimal.NewFromInt(100)})
	require.NoError(t, err)
	gallery, err := s.CreateGallery(ctx, core.Gallery{Name: "Boda", ReservationID: &res.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteClient(ctx, res.ClientID))

	for _, e := range []store.Entity{store.EntityClients, store.EntityReservations, store.EntityPayments} {
		n, err := s.Count(ctx, e)
		require.NoError(t, err)
		assert.Zero(t, n, e)
	}
	galleries, err := s.ListGalleries(ctx)
	require.NoError(t, err)
	require.Len(t, galleries, 1)
	assert.Equal(t, gallery.ID, galleries[0].ID)
	assert.Nil(t, galleries[0].ReservationID)
}

func TestPackagesReplaceServiceLinks(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.CreateService(ctx, core.Service{Name: "Sesión", Price: decimal.NewFromInt(300)})
	b, _ := s.CreateService(ctx, core.Service{Name: "Álbum", Price: decimal.NewFromInt(450)})

	_, err := s.CreatePackage(ctx, core.Package{Name: "Roto", ServiceIDs: []int64{999}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	p, err := s.CreatePackage(ctx, core.Package{Name: "Básico", ServiceIDs: []int64{a.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, p.ServiceIDs)

	p.ServiceIDs = []int64{b.ID}
	require.NoError(t, s.UpdatePackage(ctx, p))
	require.NoError(t, s.DeleteService(ctx, b.ID))

	pkgs, err := s.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Empty(t, pkgs[0].ServiceIDs)
}

func TestUsersAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateUser(ctx, core.User{Username: "Admin", PasswordHash: "x", Role: core.RoleAdmin})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.User{Username: "admin", PasswordHash: "y", Role: core.RoleViewer})
	assert.ErrorIs(t, err, store.ErrConflict)

	u, err := s.GetUserByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)
}

func TestListReservationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, _ := s.CreateClient(ctx, core.Client{FullName: "Eva"})
	for _, d := range []core.Date{core.NewDate(2025, 1, 5), core.NewDate(2025, 6, 1), {}} {
		_, err := s.CreateReservation(ctx, core.Reservation{ClientID: c.ID, RequestedDate: d})
		require.NoError(t, err)
	}

	list, err := s.ListReservations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-06-01", list[0].RequestedDate.String())
	assert.True(t, list[2].RequestedDate.IsZero())
}

func TestDashboardRowsConsistentWithConcurrentPayments(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(fixedClock)

	var ids []int64
	for i := 0; i < 50; i++ {
		_, res, err := s.Book(ctx, core.Client{FullName: "Cliente"}, core.Reservation{RequestedDate: core.NewDate(2025, 3, 1+i%28)})
		require.NoError(t, err)
		ids = append(ids, res.ID)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, id := range ids {
			_, err := s.RecordPayment(ctx, core.Payment{ReservationID: id, Total: decimal.NewFromInt(100)})
			assert.NoError(t, err)
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		rows, err := s.DashboardRows(ctx)
		require.NoError(t, err)
		for _, row := range rows {
			assert.Equal(t, row.Payment.Present, row.Status == string(core.StatusPaid), "reservation %d", row.ID)
		}
	}
}
