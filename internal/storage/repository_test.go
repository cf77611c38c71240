package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "aguin.db"), log.Discard())
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRebind(t *testing.T) {
	sqliteRepo := &Repository{dialect: DialectSQLite}
	pgRepo := &Repository{dialect: DialectPostgres}
	q := "UPDATE x SET a = ?, b = ? WHERE id = ?"

	assert.Equal(t, q, sqliteRepo.rebind(q))
	assert.Equal(t, "UPDATE x SET a = $1, b = $2 WHERE id = $3", pgRepo.rebind(q))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aguin.db")
	require.NoError(t, RunMigrations(DialectSQLite, SQLiteDSN(path)))
	require.NoError(t, RunMigrations(DialectSQLite, SQLiteDSN(path)))
}

func TestBookRecordPaymentAndDashboardRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	client, res, err := repo.Book(ctx,
		core.Client{FullName: "Ana López", Phone: "5555-1234"},
		core.Reservation{RequestedDate: core.NewDate(2025, 3, 20), Comments: "Paquete solicitado: Boda"})
	require.NoError(t, err)
	assert.Positive(t, client.ID)
	assert.Equal(t, core.StatusPending, res.Status)

	_, undated, err := repo.Book(ctx, core.Client{FullName: "Sin fecha"}, core.Reservation{})
	require.NoError(t, err)

	pay, err := repo.RecordPayment(ctx, core.Payment{ReservationID: res.ID, Total: decimal.RequireFromString("1250.5")})
	require.NoError(t, err)

	got, err := repo.GetPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("1250.50")))

	stored, err := repo.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, stored.Status)

	rows, err := repo.DashboardRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, res.ID, rows[0].ID)
	assert.Equal(t, "2025-03-20", rows[0].RequestedDate)
	assert.Equal(t, "Ana López", rows[0].Client.FullName)
	assert.Equal(t, pay.ID, rows[0].Payment.ID)
	assert.Equal(t, undated.ID, rows[1].ID)
	assert.Empty(t, rows[1].RequestedDate)
	assert.False(t, rows[1].Payment.Present)
}

func TestDashboardRows_KeepsMalformedDates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	client, _, err := repo.Book(ctx, core.Client{FullName: "Luis Pérez"},
		core.Reservation{RequestedDate: core.NewDate(2025, 3, 20)})
	require.NoError(t, err)
	_, err = repo.db.ExecContext(ctx,
		"INSERT INTO reservations (client_id, status, requested_date) VALUES (?, 'pendiente', 'not-a-date')", client.ID)
	require.NoError(t, err)

	rows, err := repo.DashboardRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var dates []string
	for _, row := range rows {
		dates = append(dates, row.RequestedDate)
	}
	assert.ElementsMatch(t, []string{"2025-03-20", "not-a-date"}, dates)
}

func TestRecordPayment_UnknownReservationRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.RecordPayment(ctx, core.Payment{ReservationID: 99, Total: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := repo.Count(ctx, store.EntityPayments)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateReservation_UnknownClient(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateReservation(context.Background(), core.Reservation{ClientID: 404, RequestedDate: core.NewDate(2025, 1, 1)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPackagesReplaceLinks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, err := repo.CreateService(ctx, core.Service{Name: "Sesión", Price: decimal.NewFromInt(300)})
	require.NoError(t, err)
	b, err := repo.CreateService(ctx, core.Service{Name: "Álbum", Price: decimal.RequireFromString("450.75")})
	require.NoError(t, err)

	p, err := repo.CreatePackage(ctx, core.Package{Name: "Boda", ServiceIDs: []int64{a.ID, b.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, p.ServiceIDs)

	p.Name = "Boda premium"
	p.ServiceIDs = []int64{b.ID}
	require.NoError(t, repo.UpdatePackage(ctx, p))

	_, err = repo.CreatePackage(ctx, core.Package{Name: "Vacío"})
	require.NoError(t, err)

	pkgs, err := repo.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "Boda premium", pkgs[0].Name)
	assert.Equal(t, []int64{b.ID}, pkgs[0].ServiceIDs)
	assert.Empty(t, pkgs[1].ServiceIDs)

	services, err := repo.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	prices := map[int64]string{}
	for _, s := range services {
		prices[s.ID] = s.Price.StringFixed(2)
	}
	assert.Equal(t, "300.00", prices[a.ID])
	assert.Equal(t, "450.75", prices[b.ID])
}

func TestDeleteClientCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	client, res, err := repo.Book(ctx, core.Client{FullName: "Luis"}, core.Reservation{RequestedDate: core.NewDate(2025, 2, 2)})
	require.NoError(t, err)
	_, err = repo.RecordPayment(ctx, core.Payment{ReservationID: res.ID, Total: decimal.NewFromInt(100)})
	require.NoError(t, err)
	g, err := repo.CreateGallery(ctx, core.Gallery{Name: "Boda", ReservationID: &res.ID})
	require.NoError(t, err)
	_, err = repo.AddPhoto(ctx, core.Photo{GalleryID: g.ID, URL: "https://cdn.example.com/1.jpg"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteClient(ctx, client.ID))

	for _, e := range []store.Entity{store.EntityReservations, store.EntityPayments} {
		n, err := repo.Count(ctx, e)
		require.NoError(t, err)
		assert.Zero(t, n, e)
	}
	galleries, err := repo.ListGalleries(ctx)
	require.NoError(t, err)
	require.Len(t, galleries, 1)
	assert.Nil(t, galleries[0].ReservationID)

	require.NoError(t, repo.DeleteGallery(ctx, g.ID))
	n, err := repo.Count(ctx, store.EntityPhotos)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsersUniqueIgnoringCase(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.CreateUser(ctx, core.User{Username: "Admin", PasswordHash: "hash", Role: core.RoleAdmin})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, core.User{Username: "admin", PasswordHash: "hash", Role: core.RoleViewer})
	assert.ErrorIs(t, err, store.ErrConflict)

	u, err := repo.GetUserByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReviewsNewestFirstAndMissingDeletes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.CreateReview(ctx, core.Review{Score: 4, Comment: "  Muy buen servicio  ", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, "Muy buen servicio", first.Comment)
	second, err := repo.CreateReview(ctx, core.Review{Score: 5, Comment: "Fotos preciosas", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	list, err := repo.ListReviews(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	assert.ErrorIs(t, repo.DeleteReview(ctx, 12345), store.ErrNotFound)
	assert.ErrorIs(t, repo.DeletePhotographer(ctx, 12345), store.ErrNotFound)
}
