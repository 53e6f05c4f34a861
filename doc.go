// Package main provides the entry point for the jukebox server.
//
// jukebox collects tracks from several music providers into one library
// and plays them through a local backend. Clients control playback over the
// MPD protocol or the HTTP API.
//
// # Application Lifecycle
//
//  1. Environment: an optional .env file is loaded with godotenv.
//  2. Configuration: config.toml is decoded (path from --config or
//     JUKEBOX_CONFIG). A missing or malformed file is fatal.
//  3. Providers: every configured provider is registered and set up.
//     Setup failures are logged and the provider stays registered.
//  4. Library: the memory or sqlite store is opened. Failure is fatal.
//  5. Backend: the playback backend is selected. Failure is fatal.
//  6. Subsystems: sync, cache and player always run; the MPD and HTTP
//     frontends run when their sections are present.
//  7. Shutdown: SIGINT or SIGTERM triggers the shutdown signal once, and
//     the process exits after every subsystem has returned.
//
// # Commands
//
//	jukebox [--config path] [--log-level level]
//	jukebox check [--config path]
//	jukebox version [--format json]
//
// # Environment Variables
//
//   - JUKEBOX_CONFIG: path to config.toml (default: config.toml)
//   - JUKEBOX_LOG_LEVEL: overrides log_level from the config file
//   - JUKEBOX_MEMORY_LIMIT: container memory limit in bytes, sets GOMEMLIMIT
//   - JUKEBOX_MEMORY_RATIO: share of that limit given to the heap (default 0.85)
//   - LOG_FORMAT: "json" switches the log encoder
//   - DEBUG: enables debug logging before the config is read
//
// # Related Packages
//
//   - [jukebox/internal/bootstrap]: startup sequence and subsystem plan
//   - [jukebox/internal/config]: config.toml decoding
//   - [jukebox/internal/frontend/mpd]: MPD protocol frontend
//   - [jukebox/internal/frontend/httpapi]: HTTP and websocket frontend
//   - [jukebox/internal/startup]: lifecycle logging
package main
