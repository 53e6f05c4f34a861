package playlist

import (
	"bufio"
	"os"
	"strings"
)

// ParseM3U reads a plain or extended M3U playlist. #EXTM3U directives and
// comments are skipped except #PLAYLIST, which names the playlist.
func ParseM3U(m3uPath, musicDir string) (*Playlist, error) {
	f, err := os.Open(m3uPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var (
		title   string
		sources []string
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		switch {
		case line == "":
		case strings.HasPrefix(line, "#PLAYLIST:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "#PLAYLIST:"))
		case strings.HasPrefix(line, "#"):
		default:
			sources = append(sources, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return build(m3uPath, musicDir, title, sources), nil
}
