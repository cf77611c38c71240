package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aguin/internal/core"
	"aguin/internal/store"
)

type DirectoryStore interface {
	store.ClientStore
	store.PhotographerStore
}

type ClientForm struct {
	FullName string
	Phone    string
	Email    string
}

type PhotographerForm struct {
	FullName  string
	Phone     string
	Email     string
	Specialty string
	Status    string
}

// DirectoryService manages clients and photographers.
type DirectoryService struct {
	store    DirectoryStore
	notifier *Notifier
}

func NewDirectoryService(store DirectoryStore, notifier *Notifier) *DirectoryService {
	return &DirectoryService{store: store, notifier: notifier}
}

func (f ClientForm) client(id int64) core.Client {
	return core.Client{
		ID:       id,
		FullName: strings.TrimSpace(f.FullName),
		Phone:    strings.TrimSpace(f.Phone),
		Email:    strings.TrimSpace(f.Email),
	}
}

func (s *DirectoryService) Clients(ctx context.Context) ([]core.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *DirectoryService) CreateClient(ctx context.Context, form ClientForm) (core.Client, error) {
	c := form.client(0)
	c.RegisteredAt = time.Now()
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	c, err := s.store.CreateClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	s.notifier.Changed(ctx)
	return c, nil
}

func (s *DirectoryService) UpdateClient(ctx context.Context, id int64, form ClientForm) error {
	current, err := s.store.GetClient(ctx, id)
	if err != nil {
		return fmt.Errorf("get client (id=%d): %w", id, err)
	}
	c := form.client(id)
	c.RegisteredAt = current.RegisteredAt
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateClient(ctx, c); err != nil {
		return fmt.Errorf("update client (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

// DeleteClient removes the client together with its reservations.
func (s *DirectoryService) DeleteClient(ctx context.Context, id int64) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("delete client (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

func (f PhotographerForm) photographer(id int64) core.Photographer {
	status := core.PhotographerStatus(strings.ToLower(strings.TrimSpace(f.Status)))
	if status == "" {
		status = core.PhotographerActive
	}
	return core.Photographer{
		ID:        id,
		FullName:  strings.TrimSpace(f.FullName),
		Phone:     strings.TrimSpace(f.Phone),
		Email:     strings.TrimSpace(f.Email),
		Specialty: strings.TrimSpace(f.Specialty),
		Status:    status,
	}
}

func (s *DirectoryService) Photographers(ctx context.Context) ([]core.Photographer, error) {
	list, err := s.store.ListPhotographers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photographers: %w", err)
	}
	return list, nil
}

func (s *DirectoryService) CreatePhotographer(ctx context.Context, form PhotographerForm) (core.Photographer, error) {
	p := form.photographer(0)
	if err := p.Validate(); err != nil {
		return core.Photographer{}, err
	}
	p, err := s.store.CreatePhotographer(ctx, p)
	if err != nil {
		return core.Photographer{}, fmt.Errorf("create photographer: %w", err)
	}
	s.notifier.Changed(ctx)
	return p, nil
}

func (s *DirectoryService) UpdatePhotographer(ctx context.Context, id int64, form PhotographerForm) error {
	p := form.photographer(id)
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdatePhotographer(ctx, p); err != nil {
		return fmt.Errorf("update photographer (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

func (s *DirectoryService) DeletePhotographer(ctx context.Context, id int64) error {
	if err := s.store.DeletePhotographer(ctx, id); err != nil {
		return fmt.Errorf("delete photographer (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}
