// Package mediatypes provides shared type definitions for the files the local
// provider finds in a music directory.
//
// It has no dependencies beyond the standard library so any package can import
// it without creating cycles.
//
//	switch mediatypes.FileTypeOf(path) {
//	case mediatypes.FileTypeAudio:
//	    // becomes a library track
//	case mediatypes.FileTypePlaylist:
//	    // parsed with the playlist package
//	}
//
// Files whose extension is not recognised can still be sniffed by content; use
// IsAudioMime on the detected MIME type.
package mediatypes
