// Package logging provides the leveled logging interface used throughout the
// jukebox server.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// Output goes through a zap SugaredLogger. The level is read from LOG_LEVEL
// (or DEBUG=true) on first use and can be overridden with [SetLevel] once the
// configuration has been loaded. LOG_FORMAT=json selects the JSON encoder.
package logging
