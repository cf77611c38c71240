package storage

import (
	"context"
	"database/sql"
	"fmt"

	"aguin/internal/core"
)

// Photographers

func (r *Repository) ListPhotographers(ctx context.Context) ([]core.Photographer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, full_name, phone, email, specialty, status FROM photographers ORDER BY full_name, id")
	if err != nil {
		return nil, fmt.Errorf("list photographers: %w", err)
	}
	defer rows.Close()

	var out []core.Photographer
	for rows.Next() {
		var (
			p      core.Photographer
			status string
		)
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &p.Specialty, &status); err != nil {
			return nil, fmt.Errorf("scan photographer: %w", err)
		}
		p.Status = core.PhotographerStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CreatePhotographer(ctx context.Context, p core.Photographer) (core.Photographer, error) {
	id, err := r.insert(ctx, r.db,
		"INSERT INTO photographers (full_name, phone, email, specialty, status) VALUES (?, ?, ?, ?, ?)",
		p.FullName, p.Phone, p.Email, p.Specialty, string(p.Status))
	if err != nil {
		return core.Photographer{}, fmt.Errorf("create photographer: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *Repository) UpdatePhotographer(ctx context.Context, p core.Photographer) error {
	err := mustAffect(r.exec(ctx, r.db,
		"UPDATE photographers SET full_name = ?, phone = ?, email = ?, specialty = ?, status = ? WHERE id = ?",
		p.FullName, p.Phone, p.Email, p.Specialty, string(p.Status), p.ID))
	if err != nil {
		return fmt.Errorf("update photographer (id=%d): %w", p.ID, err)
	}
	return nil
}

func (r *Repository) DeletePhotographer(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM photographers WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete photographer (id=%d): %w", id, err)
	}
	return nil
}

// Services

func (r *Repository) ListServices(ctx context.Context) ([]core.Service, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description, price FROM services ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []core.Service
	for rows.Next() {
		var s core.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CreateService(ctx context.Context, s core.Service) (core.Service, error) {
	id, err := r.insert(ctx, r.db,
		"INSERT INTO services (name, description, price) VALUES (?, ?, ?)",
		s.Name, s.Description, s.Price.StringFixed(2))
	if err != nil {
		return core.Service{}, fmt.Errorf("create service: %w", err)
	}
	s.ID = id
	return s, nil
}

func (r *Repository) UpdateService(ctx context.Context, s core.Service) error {
	err := mustAffect(r.exec(ctx, r.db,
		"UPDATE services SET name = ?, description = ?, price = ? WHERE id = ?",
		s.Name, s.Description, s.Price.StringFixed(2), s.ID))
	if err != nil {
		return fmt.Errorf("update service (id=%d): %w", s.ID, err)
	}
	return nil
}

func (r *Repository) DeleteService(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM services WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete service (id=%d): %w", id, err)
	}
	return nil
}

// Packages

func (r *Repository) ListPackages(ctx context.Context) ([]core.Package, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.name, ps.service_id
FROM packages p
LEFT JOIN package_services ps ON ps.package_id = p.id
ORDER BY p.id, ps.service_id`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []core.Package
	for rows.Next() {
		var (
			id        int64
			name      string
			serviceID sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &serviceID); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, core.Package{ID: id, Name: name})
		}
		if serviceID.Valid {
			last := &out[len(out)-1]
			last.ServiceIDs = append(last.ServiceIDs, serviceID.Int64)
		}
	}
	return out, rows.Err()
}

func (r *Repository) CreatePackage(ctx context.Context, p core.Package) (core.Package, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := r.insert(ctx, tx, "INSERT INTO packages (name) VALUES (?)", p.Name)
		if err != nil {
			return err
		}
		p.ID = id
		p.ServiceIDs, err = r.linkServices(ctx, tx, p.ID, p.ServiceIDs)
		return err
	})
	if err != nil {
		return core.Package{}, fmt.Errorf("create package: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdatePackage(ctx context.Context, p core.Package) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := mustAffect(r.exec(ctx, tx, "UPDATE packages SET name = ? WHERE id = ?", p.Name, p.ID)); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, "DELETE FROM package_services WHERE package_id = ?", p.ID); err != nil {
			return err
		}
		_, err := r.linkServices(ctx, tx, p.ID, p.ServiceIDs)
		return err
	})
	if err != nil {
		return fmt.Errorf("update package (id=%d): %w", p.ID, err)
	}
	return nil
}

// linkServices inserts package links, skipping duplicates, and returns the
// linked ids in input order.
func (r *Repository) linkServices(ctx context.Context, tx *sql.Tx, packageID int64, serviceIDs []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(serviceIDs))
	var linked []int64
	for _, sid := range serviceIDs {
		if seen[sid] {
			continue
		}
		seen[sid] = true
		if _, err := r.exec(ctx, tx,
			"INSERT INTO package_services (package_id, service_id) VALUES (?, ?)", packageID, sid); err != nil {
			return nil, fmt.Errorf("link service %d: %w", sid, err)
		}
		linked = append(linked, sid)
	}
	return linked, nil
}

func (r *Repository) DeletePackage(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM packages WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete package (id=%d): %w", id, err)
	}
	return nil
}
