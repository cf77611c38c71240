// Package worker exports studio activity to the spreadsheet ledger. Events
// arrive over AMQP; a periodic pass re-exports anything the ledger is missing.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aguin/internal/amqp"
	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/metrics"
	"aguin/internal/services"
	"aguin/internal/sheets"
	"aguin/internal/store"
)

const DefaultReexportInterval = 15 * time.Minute

// Source is the read side of the store the worker needs.
type Source interface {
	GetReservation(ctx context.Context, id int64) (core.Reservation, error)
	GetClient(ctx context.Context, id int64) (core.Client, error)
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	ListReservations(ctx context.Context) ([]core.Reservation, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
}

// ExportWorker appends one ledger row per reservation or payment event.
type ExportWorker struct {
	source   Source
	ledger   sheets.Ledger
	metrics  *metrics.Metrics
	logger   *log.Logger
	interval time.Duration

	// last exported version per ledger key
	versionsMu sync.Mutex
	versions   map[string]int64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExportWorker creates the worker. A zero interval uses DefaultReexportInterval.
func NewExportWorker(source Source, ledger sheets.Ledger, m *metrics.Metrics, logger *log.Logger, interval time.Duration) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if interval <= 0 {
		interval = DefaultReexportInterval
	}
	return &ExportWorker{
		source:   source,
		ledger:   ledger,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentWorker),
		interval: interval,
		versions: make(map[string]int64),
	}
}

// Handle processes one event. A returned error asks the broker to redeliver.
func (w *ExportWorker) Handle(ctx context.Context, ev amqp.StudioEvent) error {
	logger := w.logger.With(log.FieldEventKind, ev.Kind, log.FieldEventID, ev.ID.String(), log.FieldEntityID, ev.EntityID)

	var key string
	switch ev.Kind {
	case amqp.ReservationCreated, amqp.ReservationUpdated:
		key = sheets.ReservationKey(ev.EntityID)
	case amqp.PaymentRecorded:
		key = sheets.PaymentKey(ev.EntityID)
	case amqp.ReservationDeleted:
		logger.InfoContext(ctx, "Deleted reservation stays in the ledger as history")
		return nil
	default:
		logger.WarnContext(ctx, "Ignoring event of unknown kind")
		return nil
	}

	if w.stale(key, ev.Version) {
		logger.DebugContext(ctx, "Skipping stale event", "version", ev.Version)
		return nil
	}

	var err error
	if ev.Kind == amqp.PaymentRecorded {
		err = w.exportPayment(ctx, ev.EntityID)
	} else {
		err = w.exportReservation(ctx, ev.EntityID)
	}
	if errors.Is(err, store.ErrNotFound) {
		logger.WarnContext(ctx, "Entity vanished before export")
		return nil
	}
	if err != nil {
		logger.Fail(ctx, "Ledger export failed", log.OpExport, err)
		return err
	}
	w.remember(key, ev.Version)
	return nil
}

// Reexport appends every reservation and payment whose key is missing from
// the ledger and returns how many rows were written.
func (w *ExportWorker) Reexport(ctx context.Context) (int, error) {
	keys, err := w.ledger.ExportedKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("read exported keys: %w", err)
	}
	reservations, err := w.source.ListReservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reservations: %w", err)
	}
	payments, err := w.source.ListPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}

	var (
		written int
		errs    []error
	)
	for _, r := range reservations {
		if _, ok := keys[sheets.ReservationKey(r.ID)]; ok {
			continue
		}
		if err := w.appendReservation(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("reservation %d: %w", r.ID, err))
			continue
		}
		written++
	}
	for _, p := range payments {
		if _, ok := keys[sheets.PaymentKey(p.ID)]; ok {
			continue
		}
		if err := w.appendPayment(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("payment %d: %w", p.ID, err))
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

func (w *ExportWorker) exportReservation(ctx context.Context, id int64) error {
	r, err := w.source.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	return w.appendReservation(ctx, r)
}

func (w *ExportWorker) appendReservation(ctx context.Context, r core.Reservation) error {
	row := sheets.ReservationRow{
		ReservationID: r.ID,
		Client:        w.clientName(ctx, r.ClientID),
		RequestedDate: r.RequestedDate.String(),
		Status:        string(r.Status),
	}
	ref, err := w.ledger.AppendReservation(ctx, row)
	if err != nil {
		return fmt.Errorf("append reservation row: %w", err)
	}
	w.count(sheets.KindReservation)
	w.logger.InfoContext(ctx, "Reservation exported", log.FieldReservationID, r.ID, "sheets_ref", ref)
	return nil
}

func (w *ExportWorker) exportPayment(ctx context.Context, id int64) error {
	p, err := w.source.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	return w.appendPayment(ctx, p)
}

func (w *ExportWorker) appendPayment(ctx context.Context, p core.Payment) error {
	client := ""
	if r, err := w.source.GetReservation(ctx, p.ReservationID); err == nil {
		client = w.clientName(ctx, r.ClientID)
	}
	row := sheets.PaymentRow{
		PaymentID:     p.ID,
		ReservationID: p.ReservationID,
		Client:        client,
		Receipt:       services.ReceiptNumber(p.ID),
		Total:         p.Total,
		RegisteredAt:  p.RegisteredAt,
	}
	ref, err := w.ledger.AppendPayment(ctx, row)
	if err != nil {
		return fmt.Errorf("append payment row: %w", err)
	}
	w.count(sheets.KindPayment)
	w.logger.InfoContext(ctx, "Payment exported", log.FieldPaymentID, p.ID, "sheets_ref", ref)
	return nil
}

func (w *ExportWorker) clientName(ctx context.Context, id int64) string {
	if id <= 0 {
		return ""
	}
	c, err := w.source.GetClient(ctx, id)
	if err != nil {
		w.logger.DebugContext(ctx, "Client lookup failed", log.FieldEntityID, id, log.FieldError, err)
		return ""
	}
	return c.FullName
}

func (w *ExportWorker) count(kind string) {
	if w.metrics != nil {
		w.metrics.LedgerRows.WithLabelValues(kind).Inc()
	}
}

func (w *ExportWorker) stale(key string, version int64) bool {
	w.versionsMu.Lock()
	defer w.versionsMu.Unlock()
	last, ok := w.versions[key]
	return ok && version <= last
}

func (w *ExportWorker) remember(key string, version int64) {
	w.versionsMu.Lock()
	defer w.versionsMu.Unlock()
	if version > w.versions[key] {
		w.versions[key] = version
	}
}

// Start runs Reexport immediately and then on every interval tick.
// Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Re-export loop started", "interval", w.interval)
	return nil
}

// Stop signals the loop and waits for the pass in progress to finish.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Re-export loop stopped")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Re-export loop stop timed out")
		return ctx.Err()
	}
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.reexport(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reexport(ctx)
		}
	}
}

func (w *ExportWorker) reexport(ctx context.Context) {
	n, err := w.Reexport(ctx)
	if err != nil {
		w.logger.Fail(ctx, "Re-export pass incomplete", log.OpExport, err, "written", n)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Re-export pass completed", "written", n)
	}
}
