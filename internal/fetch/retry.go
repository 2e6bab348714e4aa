package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
)

// RetryConfig controls the retry loop around a Fetcher.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// Retrying wraps a Fetcher with bounded retries and a fixed delay
// between attempts. Network errors and non-2xx statuses are treated
// as transient; context cancellation is not retried.
type Retrying struct {
	inner   Fetcher
	cfg     RetryConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRetrying builds the retry decorator.
func NewRetrying(inner Fetcher, cfg RetryConfig, logger *zap.Logger, m *metrics.Metrics) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{inner: inner, cfg: cfg, logger: logger, metrics: m}
}

// Fetch attempts the request up to MaxAttempts times. Exhausting the
// budget yields a *fetch.Error wrapping the last cause.
func (r *Retrying) Fetch(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if r.metrics != nil {
			r.metrics.FetchAttempts.Inc()
		}
		resp, err := r.inner.Fetch(ctx, req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if r.metrics != nil {
				r.metrics.FetchDuration.Observe(resp.Duration.Seconds())
			}
			return resp, nil
		}
		if err == nil {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < r.cfg.MaxAttempts {
			if r.metrics != nil {
				r.metrics.FetchRetries.Inc()
			}
			r.logger.Warn("request failed, retrying",
				zap.String("url", req.URL),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.cfg.MaxAttempts),
				zap.Error(err),
			)
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
			}
		}
	}

	if r.metrics != nil {
		r.metrics.FetchFailures.Inc()
	}
	r.logger.Error("request failed after all attempts",
		zap.String("url", req.URL),
		zap.Int("attempts", r.cfg.MaxAttempts),
		zap.Error(lastErr),
	)
	return Response{}, &Error{URL: req.URL, Attempts: r.cfg.MaxAttempts, Err: lastErr}
}
