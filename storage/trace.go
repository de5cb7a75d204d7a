package storage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/datrocity/pond/storage"

// Traced wraps a Datastore and emits an OpenTelemetry span per operation.
// When no tracer provider is configured the spans are noop.
type Traced struct {
	next   Datastore
	tracer trace.Tracer
}

// NewTraced wraps a datastore with tracing using the global tracer
// provider.
func NewTraced(next Datastore) *Traced {
	return &Traced{next: next, tracer: otel.Tracer(tracerName)}
}

func (d *Traced) ID() string { return d.next.ID() }

func (d *Traced) span(ctx context.Context, op, path string) (context.Context, trace.Span) {
	return d.tracer.Start(ctx, "datastore."+op, trace.WithAttributes(
		attribute.String("pond.datastore", d.next.ID()),
		attribute.String("pond.path", path),
	))
}

func (d *Traced) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (d *Traced) Exists(ctx context.Context, path string) (bool, error) {
	ctx, span := d.span(ctx, "exists", path)
	ok, err := d.next.Exists(ctx, path)
	d.end(span, err)
	return ok, err
}

func (d *Traced) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	ctx, span := d.span(ctx, "list_versions", JoinPath(location, name))
	names, err := d.next.ListVersions(ctx, location, name)
	span.SetAttributes(attribute.Int("pond.versions", len(names)))
	d.end(span, err)
	return names, err
}

func (d *Traced) Read(ctx context.Context, path string) ([]byte, error) {
	ctx, span := d.span(ctx, "read", path)
	data, err := d.next.Read(ctx, path)
	span.SetAttributes(attribute.Int("pond.bytes", len(data)))
	d.end(span, err)
	return data, err
}

func (d *Traced) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	ctx, span := d.span(ctx, "write", path)
	span.SetAttributes(
		attribute.Int("pond.bytes", len(data)),
		attribute.Bool("pond.overwrite", overwrite),
	)
	err := d.next.Write(ctx, path, data, overwrite)
	d.end(span, err)
	return err
}

func (d *Traced) Close() error { return d.next.Close() }

var _ Datastore = (*Traced)(nil)
