package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaa/mvpipe/internal/tags"
)

type NumberPair struct {
	Number int
	Total  int
}

func (p NumberPair) String() string {
	if p.Total > 0 {
		return fmt.Sprintf("%d/%d", p.Number, p.Total)
	}
	return strconv.Itoa(p.Number)
}

// TagSet is the coerced, container-neutral set of fields written onto a
// video. Nil pointers mean the source did not carry the field.
type TagSet struct {
	Text        map[tags.Field]string
	Year        string
	Track       *NumberPair
	Disc        *NumberPair
	Compilation *bool
}

var textFields = []tags.Field{
	tags.FieldArtist,
	tags.FieldTitle,
	tags.FieldAlbum,
	tags.FieldGenre,
	tags.FieldAlbumArtist,
	tags.FieldComposer,
	tags.FieldComment,
}

func (t TagSet) Len() int {
	n := len(t.Text)
	if t.Year != "" {
		n++
	}
	if t.Track != nil {
		n++
	}
	if t.Disc != nil {
		n++
	}
	if t.Compilation != nil {
		n++
	}
	return n
}

// ParseNumberPair reads "N" or "N/M". Missing or non-numeric parts become 0.
func ParseNumberPair(raw string) (NumberPair, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NumberPair{}, false
	}
	number, total, hasTotal := strings.Cut(raw, "/")
	pair := NumberPair{Number: atoiOrZero(number)}
	if hasTotal {
		pair.Total = atoiOrZero(total)
	}
	return pair, true
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseCompilation treats any non-zero integer as true and blank as false.
func ParseCompilation(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, false
	}
	return n != 0, true
}

// ParseYear keeps the first four characters of a date when they are digits.
func ParseYear(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return "", false
	}
	year := raw[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return year, true
}

// FromReader coerces every transferable field the reader exposes.
func FromReader(reader tags.Reader) TagSet {
	set := TagSet{Text: map[tags.Field]string{}}
	for _, field := range textFields {
		if value, ok := reader.Get(field); ok {
			set.Text[field] = value
		}
	}

	for _, field := range []tags.Field{tags.FieldDate, tags.FieldYear} {
		raw, ok := reader.Get(field)
		if !ok {
			continue
		}
		if year, ok := ParseYear(raw); ok {
			set.Year = year
			break
		}
	}

	if raw, ok := reader.Get(tags.FieldTrackNumber); ok {
		if pair, ok := ParseNumberPair(raw); ok {
			set.Track = &pair
		}
	}
	if raw, ok := reader.Get(tags.FieldDiscNumber); ok {
		if pair, ok := ParseNumberPair(raw); ok {
			set.Disc = &pair
		}
	}
	if raw, ok := reader.Get(tags.FieldCompilation); ok {
		if compilation, ok := ParseCompilation(raw); ok {
			set.Compilation = &compilation
		}
	}
	return set
}

var ffmpegKeys = map[tags.Field]string{
	tags.FieldArtist:      "artist",
	tags.FieldTitle:       "title",
	tags.FieldAlbum:       "album",
	tags.FieldGenre:       "genre",
	tags.FieldAlbumArtist: "album_artist",
	tags.FieldComposer:    "composer",
	tags.FieldComment:     "comment",
}

// MetadataArgs renders the set as ffmpeg "key=value" metadata entries in a
// stable order.
func (t TagSet) MetadataArgs() []string {
	args := []string{}
	for _, field := range textFields {
		if value, ok := t.Text[field]; ok {
			args = append(args, ffmpegKeys[field]+"="+value)
		}
	}
	if t.Year != "" {
		args = append(args, "date="+t.Year)
	}
	if t.Track != nil {
		args = append(args, "track="+t.Track.String())
	}
	if t.Disc != nil {
		args = append(args, "disc="+t.Disc.String())
	}
	if t.Compilation != nil {
		value := "0"
		if *t.Compilation {
			value = "1"
		}
		args = append(args, "compilation="+value)
	}
	return args
}
