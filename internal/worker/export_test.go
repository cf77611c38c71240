package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/amqp"
	"aguin/internal/core"
	"aguin/internal/metrics"
	"aguin/internal/services"
	"aguin/internal/sheets"
	ledgermem "aguin/internal/sheets/memory"
	storemem "aguin/internal/store/memory"
)

var fixedNow = time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store  *storemem.Store
	ledger *ledgermem.Ledger
	m      *metrics.Metrics
	w      *ExportWorker
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := storemem.New().WithClock(func() time.Time { return fixedNow })
	l := ledgermem.New()
	m := metrics.New(prometheus.NewRegistry())
	return fixture{store: st, ledger: l, m: m, w: NewExportWorker(st, l, m, nil, time.Hour)}
}

func (f fixture) reservation(t *testing.T, name string) core.Reservation {
	t.Helper()
	ctx := context.Background()
	c, err := f.store.CreateClient(ctx, core.Client{FullName: name})
	require.NoError(t, err)
	r, err := f.store.CreateReservation(ctx, core.Reservation{
		ClientID:      c.ID,
		Status:        core.StatusPending,
		RequestedDate: core.NewDate(2025, 4, 2),
	})
	require.NoError(t, err)
	return r
}

func event(kind amqp.EventKind, id, version int64) amqp.StudioEvent {
	ev := amqp.NewStudioEvent(kind, id)
	ev.Version = version
	return ev
}

func TestHandle_ReservationCreated(t *testing.T) {
	f := newFixture(t)
	r := f.reservation(t, "Ana López")

	require.NoError(t, f.w.Handle(context.Background(), event(amqp.ReservationCreated, r.ID, 1)))

	rows := f.ledger.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{sheets.ReservationKey(r.ID), sheets.KindReservation, "2025-04-02", "Ana López", "pendiente", ""}, rows[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.LedgerRows.WithLabelValues(sheets.KindReservation)))
}

func TestHandle_PaymentRecorded(t *testing.T) {
	f := newFixture(t)
	r := f.reservation(t, "Luis Pérez")
	p, err := f.store.RecordPayment(context.Background(), core.Payment{ReservationID: r.ID, Total: decimal.RequireFromString("450")})
	require.NoError(t, err)

	require.NoError(t, f.w.Handle(context.Background(), event(amqp.PaymentRecorded, p.ID, 1)))

	rows := f.ledger.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{sheets.PaymentKey(p.ID), sheets.KindPayment, "2025-03-11", "Luis Pérez", services.ReceiptNumber(p.ID), "450.00"}, rows[0])
}

func TestHandle_SkipsStaleVersions(t *testing.T) {
	f := newFixture(t)
	r := f.reservation(t, "Ana")
	ctx := context.Background()

	require.NoError(t, f.w.Handle(ctx, event(amqp.ReservationUpdated, r.ID, 20)))
	require.NoError(t, f.w.Handle(ctx, event(amqp.ReservationCreated, r.ID, 10)))
	require.NoError(t, f.w.Handle(ctx, event(amqp.ReservationUpdated, r.ID, 20)))
	assert.Len(t, f.ledger.Rows(), 1)

	require.NoError(t, f.w.Handle(ctx, event(amqp.ReservationUpdated, r.ID, 30)))
	assert.Len(t, f.ledger.Rows(), 2)
}

func TestHandle_AcksWithoutExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.w.Handle(ctx, event("gallery.created", 1, 1)))
	assert.NoError(t, f.w.Handle(ctx, event(amqp.ReservationDeleted, 1, 1)))
	assert.NoError(t, f.w.Handle(ctx, event(amqp.ReservationCreated, 999, 1)), "missing entity is acked")
	assert.Empty(t, f.ledger.Rows())
}

type failingLedger struct {
	*ledgermem.Ledger
}

var errSheets = errors.New("sheets down")

func (failingLedger) AppendReservation(context.Context, sheets.ReservationRow) (string, error) {
	return "", errSheets
}

func TestHandle_LedgerFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	r := f.reservation(t, "Ana")
	w := NewExportWorker(f.store, failingLedger{ledgermem.New()}, nil, nil, 0)

	err := w.Handle(context.Background(), event(amqp.ReservationCreated, r.ID, 5))
	assert.ErrorIs(t, err, errSheets)
	assert.False(t, w.stale(sheets.ReservationKey(r.ID), 5), "failed export must not mark the version as done")
}

func TestReexport_WritesOnlyMissingKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.reservation(t, "Ana")
	r2 := f.reservation(t, "Luis")
	_, err := f.store.RecordPayment(ctx, core.Payment{ReservationID: r2.ID, Total: decimal.NewFromInt(100)})
	require.NoError(t, err)

	require.NoError(t, f.w.Handle(ctx, event(amqp.ReservationCreated, r1.ID, 1)))

	n, err := f.w.Reexport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.ledger.Rows(), 3)

	n, err = f.w.Reexport(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReexport_CollectsErrors(t *testing.T) {
	f := newFixture(t)
	f.reservation(t, "Ana")
	w := NewExportWorker(f.store, failingLedger{ledgermem.New()}, nil, nil, 0)

	n, err := w.Reexport(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, err, errSheets)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	f.reservation(t, "Ana")
	ctx := t.Context()

	require.NoError(t, f.w.Start(ctx))
	assert.True(t, f.w.IsRunning())
	assert.Error(t, f.w.Start(ctx), "second start must fail")

	require.Eventually(t, func() bool { return len(f.ledger.Rows()) == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, f.w.Stop(stopCtx))
	assert.False(t, f.w.IsRunning())
	assert.NoError(t, f.w.Stop(stopCtx))
}
