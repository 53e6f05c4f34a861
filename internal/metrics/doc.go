// Package metrics provides Prometheus instrumentation for the jukebox server.
//
// All metrics are prefixed with "jukebox_" and registered with the default
// registry through promauto, so importing the package is enough to expose
// them on the HTTP frontend's /metrics endpoint.
//
// # Metric Categories
//
//   - HTTP: request counts, latency, in-flight requests, websocket clients
//   - Library: store operation counts and latency, track and playlist gauges
//   - Providers: setup outcomes and the number of ready providers
//   - Subsystems: running gauge, exits by outcome, interrupt signals received
//   - Sync: runs, imported tracks and failures per provider
//   - Cache: cover art hits, misses and failures by phase
//   - Player: state transitions, tracks played, queue length
//   - MPD: open connections and handled commands
//
// Call [InitializeMetrics] once at startup so label combinations are exported
// before the first event, and run a [Collector] to keep the library gauges
// current.
package metrics
