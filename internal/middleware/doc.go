// Package middleware provides the HTTP middleware chain of the jukebox
// HTTP frontend.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics keyed by route template
//   - gzip response compression
//   - Optional HTTP basic auth against a bcrypt hash
package middleware
