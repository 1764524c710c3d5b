// Package tags reads descriptive metadata from audio containers through one
// uniform contract, whatever the underlying tag family.
package tags

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jaa/mvpipe/internal/mediafile"
)

type Field string

const (
	FieldArtist      Field = "artist"
	FieldTitle       Field = "title"
	FieldAlbum       Field = "album"
	FieldGenre       Field = "genre"
	FieldDate        Field = "date"
	FieldYear        Field = "year"
	FieldAlbumArtist Field = "albumartist"
	FieldTrackNumber Field = "tracknumber"
	FieldDiscNumber  Field = "discnumber"
	FieldCompilation Field = "compilation"
	FieldComposer    Field = "composer"
	FieldComment     Field = "comment"
)

// Fields lists every canonical field in transfer order.
var Fields = []Field{
	FieldArtist,
	FieldTitle,
	FieldAlbum,
	FieldGenre,
	FieldDate,
	FieldYear,
	FieldAlbumArtist,
	FieldTrackNumber,
	FieldDiscNumber,
	FieldCompilation,
	FieldComposer,
	FieldComment,
}

var ErrUnsupported = errors.New("unsupported tag container")

type Reader interface {
	// Format names the tag family, e.g. "id3v2" or "vorbis".
	Format() string
	// Get returns the first raw value stored for field.
	Get(field Field) (string, bool)
}

// values is the shared storage behind every reader variant.
type values map[Field]string

func (v values) Get(field Field) (string, bool) {
	value, ok := v[field]
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func (v values) setFirst(field Field, candidates ...string) {
	if _, ok := v[field]; ok {
		return
	}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			v[field] = candidate
			return
		}
	}
}

type Opener func(path string) (Reader, error)

var openers = map[string]Opener{
	".mp3":  OpenID3,
	".flac": OpenVorbis,
	".m4a":  OpenAtoms,
	".mp4":  OpenAtoms,
	".aac":  OpenProbe,
	".ogg":  OpenProbe,
	".opus": OpenProbe,
	".aiff": OpenProbe,
	".wav":  OpenProbe,
}

// Open selects a reader variant by file extension. Files without a
// dedicated reader fall back to container probing.
func Open(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	opener, ok := openers[mediafile.Ext(path)]
	if !ok {
		opener = OpenProbe
	}
	return opener(path)
}
