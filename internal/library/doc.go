// Package library holds the track and playlist catalogue shared by every
// subsystem of the jukebox.
//
// Two [Store] implementations exist: an in-process memory store, used when
// the configuration has no library section, and a SQLite store persisted to
// a single file guarded by an exclusive lock file. [New] selects between
// them from the configured store tag.
package library
