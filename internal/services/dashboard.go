package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"aguin/internal/cache"
	"aguin/internal/dashboard"
	"aguin/internal/log"
	"aguin/internal/metrics"
	"aguin/internal/store"
)

// ErrDashboardUnavailable wraps any failure while loading dashboard data.
var ErrDashboardUnavailable = errors.New("dashboard data unavailable")

// DashboardUnavailableMessage is shown in place of the panel when loading fails.
const DashboardUnavailableMessage = "No pudimos obtener la información del panel. Revisa la configuración de la base de datos o intenta nuevamente."

// DefaultDashboardTimeout bounds the whole fan-out.
const DefaultDashboardTimeout = 7 * time.Second

const summaryCacheKey = "dashboard:summary"

// DashboardSource is the read side the dashboard needs.
type DashboardSource interface {
	DashboardRows(ctx context.Context) ([]dashboard.Reservation, error)
	Count(ctx context.Context, entity store.Entity) (int, error)
}

// CachedSummary is what the dashboard cache stores. Day is the studio-local
// date the summary was computed for, since upcoming depends on it.
type CachedSummary struct {
	Day     string            `json:"day"`
	Summary dashboard.Summary `json:"summary"`
}

type DashboardService struct {
	source  DashboardSource
	cache   cache.Cache[CachedSummary]
	metrics *metrics.Metrics
	logger  *log.Logger
	tracer  trace.Tracer
	timeout time.Duration

	// generation is bumped by Invalidate so a fetch that overlapped a write
	// never stores its result.
	generation atomic.Uint64
}

type DashboardOption func(*DashboardService)

// WithSummaryCache caches summaries until Invalidate or the cache TTL.
func WithSummaryCache(c cache.Cache[CachedSummary]) DashboardOption {
	return func(s *DashboardService) { s.cache = c }
}

func WithDashboardMetrics(m *metrics.Metrics) DashboardOption {
	return func(s *DashboardService) { s.metrics = m }
}

func WithDashboardTimeout(d time.Duration) DashboardOption {
	return func(s *DashboardService) { s.timeout = d }
}

func NewDashboardService(source DashboardSource, logger *log.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &DashboardService{
		source:  source,
		logger:  logger.WithComponent(log.ComponentDashboard),
		tracer:  otel.Tracer("aguin/services"),
		timeout: DefaultDashboardTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary loads every reservation row and the six collection counts
// concurrently and aggregates them relative to now. Loading is
// all-or-nothing: on any failure the result is dashboard.Empty() together
// with an error wrapping ErrDashboardUnavailable.
func (s *DashboardService) Summary(ctx context.Context, now time.Time) (dashboard.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Summary")
	defer span.End()

	day := now.Format("2006-01-02")
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, summaryCacheKey); ok && cached.Day == day {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			s.count(metrics.ResultCached)
			return cached.Summary, nil
		}
	}

	gen := s.generation.Load()
	rows, counts, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count(metrics.ResultError)
		s.logger.Fail(ctx, "Dashboard data unavailable", log.OpSummarize, err)
		return dashboard.Empty(), fmt.Errorf("%w: %w", ErrDashboardUnavailable, err)
	}

	summary := dashboard.Summarize(rows, counts, now)
	span.SetAttributes(attribute.Int("reservations", summary.Totals.ReservationCount))
	s.count(metrics.ResultOK)

	if s.cache != nil && s.generation.Load() == gen {
		s.cache.Set(ctx, summaryCacheKey, CachedSummary{Day: day, Summary: summary})
		if s.generation.Load() != gen {
			s.cache.Delete(ctx, summaryCacheKey)
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary.
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Delete(ctx, summaryCacheKey)
	}
}

func (s *DashboardService) fetch(ctx context.Context) ([]dashboard.Reservation, dashboard.Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.DashboardLatency.Observe(time.Since(start).Seconds())
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	var rows []dashboard.Reservation
	g.Go(func() error {
		r, err := s.source.DashboardRows(gctx)
		if err != nil {
			return fmt.Errorf("load reservations: %w", err)
		}
		rows = r
		return nil
	})

	totals := make([]int, len(store.CountedEntities))
	for i, entity := range store.CountedEntities {
		g.Go(func() error {
			n, err := s.source.Count(gctx, entity)
			if err != nil {
				return fmt.Errorf("count %s: %w", entity, err)
			}
			totals[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, dashboard.Counts{}, err
	}

	var counts dashboard.Counts
	for i, entity := range store.CountedEntities {
		switch entity {
		case store.EntityClients:
			counts.Clients = totals[i]
		case store.EntityPhotographers:
			counts.Photographers = totals[i]
		case store.EntityServices:
			counts.Services = totals[i]
		case store.EntityPackages:
			counts.Packages = totals[i]
		case store.EntityReviews:
			counts.Reviews = totals[i]
		case store.EntityPayments:
			counts.Payments = totals[i]
		}
	}
	return rows, counts, nil
}

func (s *DashboardService) count(result string) {
	if s.metrics != nil {
		s.metrics.DashboardBuilds.WithLabelValues(result).Inc()
	}
}
