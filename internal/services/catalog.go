package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"aguin/internal/core"
	"aguin/internal/store"
)

type CatalogStore interface {
	store.ServiceStore
	store.PackageStore
}

type ServiceForm struct {
	Name        string
	Description string
	Price       string
}

// PackageView is a package with its linked services resolved.
type PackageView struct {
	core.Package
	Services       []core.Service
	EstimatedTotal decimal.Decimal
}

// HasEstimate reports whether the estimated total is worth showing.
func (p PackageView) HasEstimate() bool { return p.EstimatedTotal.IsPositive() }

// CatalogService manages the services and packages offered by the studio.
type CatalogService struct {
	store    CatalogStore
	notifier *Notifier
}

func NewCatalogService(store CatalogStore, notifier *Notifier) *CatalogService {
	return &CatalogService{store: store, notifier: notifier}
}

func (s *CatalogService) Services(ctx context.Context) ([]core.Service, error) {
	list, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return list, nil
}

func (f ServiceForm) service(id int64) (core.Service, error) {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Price) == "" {
		return core.Service{}, &core.ValidationError{Field: "servicio", Message: "Completa el nombre y el precio del servicio."}
	}
	price, err := core.ParseAmount(f.Price)
	if err != nil {
		return core.Service{}, &core.ValidationError{Field: "precio", Message: "El precio debe ser un número válido."}
	}
	svc := core.Service{
		ID:          id,
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
	}
	return svc, svc.Validate()
}

func (s *CatalogService) CreateService(ctx context.Context, form ServiceForm) (core.Service, error) {
	svc, err := form.service(0)
	if err != nil {
		return core.Service{}, err
	}
	svc, err = s.store.CreateService(ctx, svc)
	if err != nil {
		return core.Service{}, fmt.Errorf("create service: %w", err)
	}
	s.notifier.Changed(ctx)
	return svc, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, id int64, form ServiceForm) error {
	svc, err := form.service(id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateService(ctx, svc); err != nil {
		return fmt.Errorf("update service (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

// DeleteService removes the service and unlinks it from every package.
func (s *CatalogService) DeleteService(ctx context.Context, id int64) error {
	if err := s.store.DeleteService(ctx, id); err != nil {
		return fmt.Errorf("delete service (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

// Packages lists packages with their services and estimated totals.
func (s *CatalogService) Packages(ctx context.Context) ([]PackageView, error) {
	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	services, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]core.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	views := make([]PackageView, 0, len(pkgs))
	for _, p := range pkgs {
		linked := make([]core.Service, 0, len(p.ServiceIDs))
		for _, id := range p.ServiceIDs {
			if svc, ok := byID[id]; ok {
				linked = append(linked, svc)
			}
		}
		views = append(views, PackageView{Package: p, Services: linked, EstimatedTotal: EstimatedTotal(linked)})
	}
	return views, nil
}

// EstimatedTotal is the sum of the prices of a package's services.
func EstimatedTotal(services []core.Service) decimal.Decimal {
	return core.SumPrices(services)
}

func (s *CatalogService) CreatePackage(ctx context.Context, name string, serviceIDs []int64) (core.Package, error) {
	p := core.Package{Name: strings.TrimSpace(name), ServiceIDs: serviceIDs}
	if p.Name == "" {
		return core.Package{}, &core.ValidationError{Field: "nombre", Message: "Especifica un nombre para el paquete."}
	}
	if err := p.Validate(); err != nil {
		return core.Package{}, err
	}
	p, err := s.store.CreatePackage(ctx, p)
	if err != nil {
		return core.Package{}, fmt.Errorf("create package: %w", err)
	}
	s.notifier.Changed(ctx)
	return p, nil
}

// UpdatePackage renames the package and replaces its service links.
func (s *CatalogService) UpdatePackage(ctx context.Context, id int64, name string, serviceIDs []int64) error {
	p := core.Package{ID: id, Name: strings.TrimSpace(name), ServiceIDs: serviceIDs}
	if p.Name == "" {
		return &core.ValidationError{Field: "nombre", Message: "Especifica un nombre para el paquete."}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdatePackage(ctx, p); err != nil {
		return fmt.Errorf("update package (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

func (s *CatalogService) DeletePackage(ctx context.Context, id int64) error {
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return fmt.Errorf("delete package (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}
