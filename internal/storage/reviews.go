package storage

import (
	"context"
	"fmt"
	"strings"

	"aguin/internal/core"
)

func (r *Repository) ListReviews(ctx context.Context) ([]core.Review, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, score, comment, created_at FROM reviews ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []core.Review
	for rows.Next() {
		var rv core.Review
		if err := rows.Scan(&rv.ID, &rv.Score, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repository) CreateReview(ctx context.Context, rv core.Review) (core.Review, error) {
	rv.Comment = strings.TrimSpace(rv.Comment)
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = r.now().UTC()
	}
	id, err := r.insert(ctx, r.db,
		"INSERT INTO reviews (score, comment, created_at) VALUES (?, ?, ?)",
		rv.Score, rv.Comment, rv.CreatedAt)
	if err != nil {
		return core.Review{}, fmt.Errorf("create review: %w", err)
	}
	rv.ID = id
	return rv, nil
}

func (r *Repository) DeleteReview(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM reviews WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete review (id=%d): %w", id, err)
	}
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var (
		u    core.User
		role string
	)
	err := r.db.QueryRowContext(ctx,
		r.rebind("SELECT id, username, password_hash, role FROM users WHERE LOWER(username) = LOWER(?)"),
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &role)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, classify(err))
	}
	u.Role = core.Role(role)
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	id, err := r.insert(ctx, r.db,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		u.Username, u.PasswordHash, string(u.Role))
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", u.Username, err)
	}
	u.ID = id
	return u, nil
}
