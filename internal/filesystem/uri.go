package filesystem

import (
	"net/url"
	"path/filepath"
)

// FileURL returns the file:// URL for path with reserved characters such as
// '#', '?' and '%' percent-escaped. url.Parse(FileURL(p)).Path == p.
func FileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
