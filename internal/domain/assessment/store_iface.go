package assessment

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, staffID string, reviewers Reviewers, in NewAssessment) (Assessment, error)
	Get(ctx context.Context, id string) (Assessment, error)
	GetDetail(ctx context.Context, id string) (Detail, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Detail, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// Mutate loads the row under a lock, applies fn and persists the result
	// in one transaction. Nothing is written when fn returns an error.
	Mutate(ctx context.Context, id string, fn func(a *Assessment) error) (Assessment, error)
	Delete(ctx context.Context, id string, check func(a Assessment) error) (Assessment, error)
	ReleaseAll(ctx context.Context, releasedAt time.Time) ([]string, error)
	ResolveReviewers(ctx context.Context, staffID string) (Reviewers, error)
}
