package storage

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Datastore and bounds the rate of backend operations.
// Useful against shared backends with request quotas.
type RateLimited struct {
	next    Datastore
	limiter *rate.Limiter
}

// NewRateLimited wraps a datastore with a token-bucket limiter allowing
// opsPerSecond sustained operations with the given burst.
func NewRateLimited(next Datastore, opsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), burst),
	}
}

func (d *RateLimited) ID() string { return d.next.ID() }

func (d *RateLimited) Exists(ctx context.Context, path string) (bool, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return d.next.Exists(ctx, path)
}

func (d *RateLimited) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.ListVersions(ctx, location, name)
}

func (d *RateLimited) Read(ctx context.Context, path string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.Read(ctx, path)
}

func (d *RateLimited) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.next.Write(ctx, path, data, overwrite)
}

func (d *RateLimited) Close() error { return d.next.Close() }

var _ Datastore = (*RateLimited)(nil)
