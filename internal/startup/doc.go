// Package startup holds build information and the sectioned lifecycle
// log lines written while the server starts and stops.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// # Lifecycle Logging
//
//   - [LogStart]: banner, system information and configuration summary
//   - [LogProviderSetup]: outcome of the provider setup protocol
//   - [LogLibraryInit], [LogBackendInit]: collaborator construction
//   - [LogSubsystemLaunched]: one line per launched subsystem
//   - [LogHTTPRoutes]: registered HTTP routes (debug level)
//   - [LogShutdownInitiated], [LogShutdownComplete]: shutdown progress
package startup
