package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Playlist is a playlist file with its entries resolved against the music
// directory.
type Playlist struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Items []Item `json:"items"`
}

// Item is one playlist entry.
type Item struct {
	// Path is relative to the music directory when the entry could be
	// resolved, otherwise just the file name.
	Path     string `json:"path"`
	OrigPath string `json:"origPath"`
	Exists   bool   `json:"exists"`
}

// Parse dispatches on the file extension.
func Parse(path, musicDir string) (*Playlist, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wpl":
		return ParseWPL(path, musicDir)
	case ".m3u", ".m3u8":
		return ParseM3U(path, musicDir)
	default:
		return nil, fmt.Errorf("unsupported playlist format: %s", filepath.Ext(path))
	}
}

func build(path, musicDir, title string, sources []string) *Playlist {
	pl := &Playlist{
		Name: title,
		Path: path,
	}
	if pl.Name == "" {
		pl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	dir := filepath.Dir(path)
	for _, src := range sources {
		pl.Items = append(pl.Items, resolve(src, dir, musicDir))
	}
	return pl
}

// resolve tries, in order: the entry relative to the playlist file, the
// entry as an absolute path inside musicDir, then the bare file name at the
// top of musicDir.
func resolve(src, playlistDir, musicDir string) Item {
	// Windows playlists use backslashes
	clean := strings.ReplaceAll(src, "\\", "/")
	item := Item{OrigPath: src}

	var candidates []string
	if filepath.IsAbs(clean) {
		candidates = append(candidates, clean)
	} else {
		candidates = append(candidates, filepath.Join(playlistDir, clean))
	}
	candidates = append(candidates, filepath.Join(musicDir, filepath.Base(clean)))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		rel, err := filepath.Rel(musicDir, candidate)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		item.Path = filepath.ToSlash(rel)
		item.Exists = true
		return item
	}

	item.Path = filepath.Base(clean)
	return item
}
