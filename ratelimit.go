package org

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitProvider wraps a Provider with proactive request-rate limiting,
// so a burst of agent loops ticking at once does not all hit the model
// client in the same instant.
type rateLimitProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// RateLimitOption configures a rateLimitProvider.
type RateLimitOption func(*rateLimitProvider)

// RPM sets the maximum requests per minute, with a burst equal to n (at
// least 1), so a cold start can use its full first-minute budget.
func RPM(n int) RateLimitOption {
	return func(r *rateLimitProvider) {
		perSecond := rate.Limit(float64(n) / 60.0)
		r.limiter = rate.NewLimiter(perSecond, max(1, n))
	}
}

// WithRateLimit wraps p with proactive rate limiting.
//
//	chatLLM = org.WithRateLimit(provider, org.RPM(60))
//	chatLLM = org.WithRateLimit(org.WithRetry(provider), org.RPM(60))
func WithRateLimit(p Provider, opts ...RateLimitOption) Provider {
	r := &rateLimitProvider{inner: p, limiter: rate.NewLimiter(rate.Inf, 1)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *rateLimitProvider) Name() string { return r.inner.Name() }

func (r *rateLimitProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ChatResponse{}, err
	}
	return r.inner.Chat(ctx, req)
}

var _ Provider = (*rateLimitProvider)(nil)
