package playlist

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// wplDocument is the subset of the Windows Media Player SMIL layout that
// carries a title and the media sources.
type wplDocument struct {
	XMLName xml.Name `xml:"smil"`
	Title   string   `xml:"head>title"`
	Media   []struct {
		Src string `xml:"src,attr"`
	} `xml:"body>seq>media"`
}

// ParseWPL reads a Windows Media Player playlist and resolves its entries
// against musicDir.
func ParseWPL(wplPath, musicDir string) (*Playlist, error) {
	f, err := os.Open(wplPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var doc wplDocument
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid wpl playlist: %w", err)
	}

	sources := make([]string, 0, len(doc.Media))
	for _, m := range doc.Media {
		if src := strings.TrimSpace(m.Src); src != "" {
			sources = append(sources, src)
		}
	}

	return build(wplPath, musicDir, strings.TrimSpace(doc.Title), sources), nil
}
