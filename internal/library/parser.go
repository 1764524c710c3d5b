package library

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/mediafile"
	"github.com/jaa/mvpipe/internal/tags"
)

var filenameSeparator = regexp.MustCompile(`\s+-\s+|\s+–\s+|\s*_\s*-\s*_\s*`)

// ParseFilename splits "Artist - Title" style base names. Only the first
// separator counts.
func ParseFilename(base string) (string, string, bool) {
	parts := filenameSeparator.Split(base, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

type Parser struct {
	OpenTags func(path string) (tags.Reader, error)
}

func NewParser() *Parser {
	return &Parser{OpenTags: tags.Open}
}

// Identify resolves artist and title from embedded tags, then from the file
// name. Both are empty unless both could be found.
func (p *Parser) Identify(path string) (string, string) {
	artist, title := p.fromTags(path)
	if artist == "" || title == "" {
		if fileArtist, fileTitle, ok := ParseFilename(mediafile.BaseName(path)); ok {
			if artist == "" {
				artist = fileArtist
			}
			if title == "" {
				title = fileTitle
			}
		}
	}
	if artist == "" || title == "" {
		return "", ""
	}
	return artist, title
}

func (p *Parser) fromTags(path string) (string, string) {
	open := p.OpenTags
	if open == nil {
		open = tags.Open
	}
	reader, err := open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not read tags")
		return "", ""
	}
	artist, _ := reader.Get(tags.FieldArtist)
	title, _ := reader.Get(tags.FieldTitle)
	return artist, title
}
