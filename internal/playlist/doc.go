// Package playlist parses playlist files found in a local music directory.
//
// Supported formats are M3U/M3U8 (plain and extended) and Windows Media
// Player WPL. Entries are resolved relative to the playlist file first and
// then by file name against the music directory; entries that cannot be
// found are kept with Exists=false so callers can report them.
package playlist
