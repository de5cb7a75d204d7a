// Package telemetry initializes the OpenTelemetry SDK for pond: a
// TracerProvider and MeterProvider exporting over OTLP gRPC. With
// telemetry disabled nothing is created and the global providers stay
// noop, so the storage tracing wrapper costs nothing.
package telemetry
