package services

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/media"
	"aguin/internal/metrics"
	"aguin/internal/store"
)

// GalleryView is a gallery with its photos.
type GalleryView struct {
	core.Gallery
	Photos []core.Photo
}

type GalleryService struct {
	store    store.GalleryStore
	uploader media.Uploader
	notifier *Notifier
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// NewGalleryService builds the service. A nil uploader disables uploads.
func NewGalleryService(store store.GalleryStore, uploader media.Uploader, notifier *Notifier, m *metrics.Metrics, logger *log.Logger) *GalleryService {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &GalleryService{
		store:    store,
		uploader: uploader,
		notifier: notifier,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentMedia),
	}
}

// UploadsEnabled reports whether photos can be uploaded instead of linked.
func (s *GalleryService) UploadsEnabled() bool {
	_, disabled := s.uploader.(media.Disabled)
	return !disabled
}

// Galleries lists galleries in creation order, each with its photos newest first.
func (s *GalleryService) Galleries(ctx context.Context) ([]GalleryView, error) {
	galleries, err := s.store.ListGalleries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	photos, err := s.store.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	slices.Reverse(photos)
	byGallery := make(map[int64][]core.Photo)
	for _, p := range photos {
		byGallery[p.GalleryID] = append(byGallery[p.GalleryID], p)
	}
	views := make([]GalleryView, 0, len(galleries))
	for _, g := range galleries {
		views = append(views, GalleryView{Gallery: g, Photos: byGallery[g.ID]})
	}
	return views, nil
}

// Portfolio returns every photo with a usable URL, newest first.
func (s *GalleryService) Portfolio(ctx context.Context) ([]core.Photo, error) {
	photos, err := s.store.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]core.Photo, 0, len(photos))
	for _, p := range slices.Backward(photos) {
		if strings.TrimSpace(p.URL) != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreateGallery creates a gallery, optionally tied to a reservation.
func (s *GalleryService) CreateGallery(ctx context.Context, name string, reservationID *int64) (core.Gallery, error) {
	g := core.Gallery{Name: strings.TrimSpace(name), ReservationID: reservationID, CreatedAt: time.Now()}
	if err := g.Validate(); err != nil {
		return core.Gallery{}, err
	}
	g, err := s.store.CreateGallery(ctx, g)
	if err != nil {
		return core.Gallery{}, fmt.Errorf("create gallery: %w", err)
	}
	s.notifier.Changed(ctx)
	return g, nil
}

func (s *GalleryService) DeleteGallery(ctx context.Context, id int64) error {
	if err := s.store.DeleteGallery(ctx, id); err != nil {
		return fmt.Errorf("delete gallery (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}

// AddPhoto links an already hosted image to a gallery.
func (s *GalleryService) AddPhoto(ctx context.Context, galleryID int64, url string) (core.Photo, error) {
	if strings.TrimSpace(url) == "" {
		return core.Photo{}, &core.ValidationError{Field: "url", Message: "Agrega la URL pública de la imagen."}
	}
	p := core.Photo{GalleryID: galleryID, URL: strings.TrimSpace(url)}
	if err := p.Validate(); err != nil {
		return core.Photo{}, err
	}
	p, err := s.store.AddPhoto(ctx, p)
	if err != nil {
		return core.Photo{}, fmt.Errorf("add photo (gallery=%d): %w", galleryID, err)
	}
	s.notifier.Changed(ctx)
	return p, nil
}

// UploadPhoto stores the image with the uploader and links it to the gallery.
func (s *GalleryService) UploadPhoto(ctx context.Context, galleryID int64, filename string, r io.Reader) (core.Photo, error) {
	if galleryID <= 0 {
		return core.Photo{}, &core.ValidationError{Field: "galeria", Message: "Selecciona una galería para asociar la fotografía."}
	}
	url, err := s.uploader.Upload(ctx, filename, r)
	if s.metrics != nil {
		s.metrics.Uploads.WithLabelValues(metrics.Result(err)).Inc()
	}
	if err != nil {
		return core.Photo{}, fmt.Errorf("upload photo %q: %w", filename, err)
	}
	s.logger.InfoContext(ctx, "Photo uploaded", "gallery_id", galleryID, "url", url)
	return s.AddPhoto(ctx, galleryID, url)
}

func (s *GalleryService) DeletePhoto(ctx context.Context, id int64) error {
	if err := s.store.DeletePhoto(ctx, id); err != nil {
		return fmt.Errorf("delete photo (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}
