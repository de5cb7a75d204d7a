/*
Package metrics provides Prometheus metrics for datastore operations.

The Collector registers three instruments through promauto:

  - datastore_ops_total: operation counter, labelled by datastore id,
    operation and status.
  - datastore_op_duration_seconds: operation latency histogram.
  - datastore_bytes_total: payload bytes moved, labelled by direction.

Metrics are recorded by the storage.Instrumented wrapper, so backends stay
free of instrumentation code.
*/
package metrics
