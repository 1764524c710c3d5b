package tags

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

type vorbisReader struct {
	values
}

func (r *vorbisReader) Format() string { return "vorbis" }

var vorbisKeys = map[string]Field{
	"ARTIST":       FieldArtist,
	"TITLE":        FieldTitle,
	"ALBUM":        FieldAlbum,
	"GENRE":        FieldGenre,
	"DATE":         FieldDate,
	"YEAR":         FieldYear,
	"ALBUMARTIST":  FieldAlbumArtist,
	"ALBUM ARTIST": FieldAlbumArtist,
	"TRACKNUMBER":  FieldTrackNumber,
	"DISCNUMBER":   FieldDiscNumber,
	"COMPILATION":  FieldCompilation,
	"COMPOSER":     FieldComposer,
	"COMMENT":      FieldComment,
	"DESCRIPTION":  FieldComment,
}

func OpenVorbis(path string) (Reader, error) {
	file, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flac metadata: %w", err)
	}

	v := values{}
	for _, block := range file.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return nil, fmt.Errorf("parse vorbis comment: %w", err)
		}
		applyVorbisComments(v, comment.Comments)
	}
	return &vorbisReader{values: v}, nil
}

// applyVorbisComments keeps the first value of each multi-valued key.
func applyVorbisComments(v values, comments []string) {
	for _, entry := range comments {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		field, known := vorbisKeys[strings.ToUpper(strings.TrimSpace(key))]
		if !known {
			continue
		}
		v.setFirst(field, value)
	}
}
