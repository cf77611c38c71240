package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aguin/internal/core"
	"aguin/internal/store"
)

// ReviewStats is the public rating summary.
type ReviewStats struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

type ReviewService struct {
	store    store.ReviewStore
	notifier *Notifier
}

func NewReviewService(store store.ReviewStore, notifier *Notifier) *ReviewService {
	return &ReviewService{store: store, notifier: notifier}
}

// List returns reviews newest first.
func (s *ReviewService) List(ctx context.Context) ([]core.Review, error) {
	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Stats returns the average score rounded to one decimal and the count.
func (s *ReviewService) Stats(ctx context.Context) (ReviewStats, error) {
	reviews, err := s.List(ctx)
	if err != nil {
		return ReviewStats{}, err
	}
	return ReviewStats{Average: core.AverageScore(reviews), Count: len(reviews)}, nil
}

func (s *ReviewService) Create(ctx context.Context, score int, comment string) (core.Review, error) {
	r := core.Review{Score: score, Comment: strings.TrimSpace(comment), CreatedAt: time.Now()}
	if err := r.Validate(); err != nil {
		return core.Review{}, err
	}
	r, err := s.store.CreateReview(ctx, r)
	if err != nil {
		return core.Review{}, fmt.Errorf("create review: %w", err)
	}
	s.notifier.Changed(ctx)
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("delete review (id=%d): %w", id, err)
	}
	s.notifier.Changed(ctx)
	return nil
}
