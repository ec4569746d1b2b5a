package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles an inner generator to a requests-per-minute budget.
type RateLimited struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimited allows rpm requests per minute with a burst of one.
func NewRateLimited(inner Generator, rpm int) *RateLimited {
	limit := rate.Limit(float64(rpm) / 60.0)
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (r *RateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Generate(ctx, req)
}
