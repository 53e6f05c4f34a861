// Package memory keeps the Go heap inside container limits.
//
// [ApplyLimit] sets GOMEMLIMIT from the container memory limit, reserving
// part of it for gst-launch children. It is called once from main before
// the library is loaded. An explicit GOMEMLIMIT environment variable
// always takes precedence.
//
// [Guard] provides backpressure for the cover cache. Image decoding is the
// only bursty allocation in the server, so cache workers call [Guard.Wait]
// before decoding and block while heap usage sits above the pause mark.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go soft limit, wins over everything else
//   - JUKEBOX_MEMORY_LIMIT: container limit in bytes (Kubernetes Downward API)
//   - JUKEBOX_MEMORY_RATIO: share of the limit for the heap (default 0.85)
//
// # Metrics
//
//   - jukebox_memory_usage_ratio
//   - jukebox_memory_paused
//   - jukebox_memory_pauses_total
package memory
