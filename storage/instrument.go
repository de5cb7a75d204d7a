package storage

import (
	"context"
	"time"

	"github.com/datrocity/pond/internal/metrics"
)

// Instrumented wraps a Datastore and records Prometheus metrics for every
// operation.
type Instrumented struct {
	next      Datastore
	collector *metrics.Collector
}

// NewInstrumented wraps a datastore with the given collector.
func NewInstrumented(next Datastore, collector *metrics.Collector) *Instrumented {
	return &Instrumented{next: next, collector: collector}
}

func (d *Instrumented) ID() string { return d.next.ID() }

func (d *Instrumented) Exists(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	ok, err := d.next.Exists(ctx, path)
	d.collector.ObserveOp(d.next.ID(), "exists", err, time.Since(start))
	return ok, err
}

func (d *Instrumented) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	start := time.Now()
	names, err := d.next.ListVersions(ctx, location, name)
	d.collector.ObserveOp(d.next.ID(), "list_versions", err, time.Since(start))
	return names, err
}

func (d *Instrumented) Read(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := d.next.Read(ctx, path)
	d.collector.ObserveOp(d.next.ID(), "read", err, time.Since(start))
	d.collector.ObserveBytes(d.next.ID(), "read", len(data))
	return data, err
}

func (d *Instrumented) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	start := time.Now()
	err := d.next.Write(ctx, path, data, overwrite)
	d.collector.ObserveOp(d.next.ID(), "write", err, time.Since(start))
	if err == nil {
		d.collector.ObserveBytes(d.next.ID(), "write", len(data))
	}
	return err
}

func (d *Instrumented) Close() error { return d.next.Close() }

var _ Datastore = (*Instrumented)(nil)
