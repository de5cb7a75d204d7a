// Package testutil provides shared helpers for pond's tests: bounded
// test contexts, temporary datastores and sample artifact data.
package testutil
