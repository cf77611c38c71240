package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"aguin/internal/amqp"
	"aguin/internal/dashboard"
	"aguin/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.StudioEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.StudioEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// countingSource wraps a DashboardSource and counts row loads.
type countingSource struct {
	DashboardSource
	loads atomic.Int32
}

func (s *countingSource) DashboardRows(ctx context.Context) ([]dashboard.Reservation, error) {
	s.loads.Add(1)
	return s.DashboardSource.DashboardRows(ctx)
}

// failingSource fails the count of one entity.
type failingSource struct {
	DashboardSource
	entity store.Entity
}

var errBoom = errors.New("boom")

func (s failingSource) Count(ctx context.Context, e store.Entity) (int, error) {
	if e == s.entity {
		return 0, errBoom
	}
	return s.DashboardSource.Count(ctx, e)
}

// blockingSource never answers before ctx is done.
// gatedSource holds its first DashboardRows call: it signals entered after
// reading the rows and waits for release before returning them.
type gatedSource struct {
	DashboardSource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedSource) DashboardRows(ctx context.Context) ([]dashboard.Reservation, error) {
	rows, err := s.DashboardSource.DashboardRows(ctx)
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return rows, err
}

type blockingSource struct{}

func (blockingSource) DashboardRows(ctx context.Context) ([]dashboard.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingSource) Count(ctx context.Context, _ store.Entity) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

type fakeUploader struct {
	url  string
	err  error
	name string
}

func (u *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	u.name = filename
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return u.url, u.err
}
