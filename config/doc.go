// Package config loads the pond configuration from YAML files and
// environment variables, and builds the configured datastore with its
// metrics, rate-limit and tracing wrappers applied.
//
// Precedence: defaults, then the YAML file, then environment variables.
package config
