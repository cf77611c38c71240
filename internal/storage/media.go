package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"aguin/internal/core"
)

func (r *Repository) ListGalleries(ctx context.Context) ([]core.Gallery, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, reservation_id, created_at FROM galleries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	defer rows.Close()

	var out []core.Gallery
	for rows.Next() {
		var (
			g   core.Gallery
			rid sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Name, &rid, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery: %w", err)
		}
		if rid.Valid {
			v := rid.Int64
			g.ReservationID = &v
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateGallery(ctx context.Context, g core.Gallery) (core.Gallery, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = r.now().UTC()
	}
	var rid any
	if g.ReservationID != nil {
		rid = *g.ReservationID
	}
	id, err := r.insert(ctx, r.db,
		"INSERT INTO galleries (name, reservation_id, created_at) VALUES (?, ?, ?)",
		g.Name, rid, g.CreatedAt)
	if err != nil {
		return core.Gallery{}, fmt.Errorf("create gallery: %w", err)
	}
	g.ID = id
	return g, nil
}

func (r *Repository) DeleteGallery(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM galleries WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete gallery (id=%d): %w", id, err)
	}
	return nil
}

func (r *Repository) ListPhotos(ctx context.Context) ([]core.Photo, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, gallery_id, url FROM photos ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var out []core.Photo
	for rows.Next() {
		var p core.Photo
		if err := rows.Scan(&p.ID, &p.GalleryID, &p.URL); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) AddPhoto(ctx context.Context, p core.Photo) (core.Photo, error) {
	p.URL = strings.TrimSpace(p.URL)
	id, err := r.insert(ctx, r.db, "INSERT INTO photos (gallery_id, url) VALUES (?, ?)", p.GalleryID, p.URL)
	if err != nil {
		return core.Photo{}, fmt.Errorf("add photo (gallery=%d): %w", p.GalleryID, err)
	}
	p.ID = id
	return p, nil
}

func (r *Repository) DeletePhoto(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM photos WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete photo (id=%d): %w", id, err)
	}
	return nil
}
