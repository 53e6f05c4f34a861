package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of a file found while scanning a music directory.
type FileType string

const (
	// FileTypeAudio represents a playable audio file.
	FileTypeAudio FileType = "audio"
	// FileTypeCover represents album artwork stored next to the audio files.
	FileTypeCover FileType = "cover"
	// FileTypePlaylist represents a playlist file.
	FileTypePlaylist FileType = "playlist"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
	".aiff": true,
	".aif":  true,
	".wma":  true,
}

// CoverExtensions maps image extensions accepted as album artwork.
var CoverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// PlaylistExtensions maps file extensions to whether they are supported playlist formats.
var PlaylistExtensions = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".wpl":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",
	".wma":  "audio/x-ms-wma",

	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",

	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
	".wpl":  "application/vnd.ms-wpl",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp3").
func GetFileType(ext string) FileType {
	switch {
	case AudioExtensions[ext]:
		return FileTypeAudio
	case CoverExtensions[ext]:
		return FileTypeCover
	case PlaylistExtensions[ext]:
		return FileTypePlaylist
	default:
		return FileTypeOther
	}
}

// FileTypeOf is GetFileType for a path; the extension is lowercased first.
func FileTypeOf(path string) FileType {
	return GetFileType(strings.ToLower(filepath.Ext(path)))
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsAudioMime reports whether a sniffed MIME type is audio.
func IsAudioMime(mime string) bool {
	return strings.HasPrefix(mime, "audio/") || mime == "application/ogg"
}
