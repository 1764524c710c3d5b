package tags

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zhaarey/go-mp4tag"
)

type atomReader struct {
	values
}

func (r *atomReader) Format() string { return "mp4" }

func OpenAtoms(path string) (Reader, error) {
	file, err := mp4tag.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp4 atoms: %w", err)
	}
	defer file.Close()

	atoms, err := file.Read()
	if err != nil {
		return nil, fmt.Errorf("read mp4 atoms: %w", err)
	}

	return &atomReader{values: atomValues(atoms)}, nil
}

// atomValues maps the standard atoms first, then freeform "----" atoms whose
// names match a vorbis key, in sorted name order.
func atomValues(atoms *mp4tag.MP4Tags) values {
	v := values{}
	v.setFirst(FieldArtist, atoms.Artist)
	v.setFirst(FieldTitle, atoms.Title)
	v.setFirst(FieldAlbum, atoms.Album)
	v.setFirst(FieldGenre, atoms.CustomGenre)
	v.setFirst(FieldDate, atoms.Date)
	v.setFirst(FieldAlbumArtist, atoms.AlbumArtist)
	v.setFirst(FieldTrackNumber, numberPair(atoms.TrackNumber, atoms.TrackTotal))
	v.setFirst(FieldDiscNumber, numberPair(atoms.DiscNumber, atoms.DiscTotal))
	v.setFirst(FieldComposer, atoms.Composer)
	v.setFirst(FieldComment, atoms.Comment)

	names := make([]string, 0, len(atoms.Custom))
	for name := range atoms.Custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if field, ok := vorbisKeys[strings.ToUpper(strings.TrimSpace(name))]; ok {
			v.setFirst(field, atoms.Custom[name])
		}
	}
	return v
}

func numberPair(number, total int16) string {
	if number <= 0 {
		return ""
	}
	if total <= 0 {
		return strconv.Itoa(int(number))
	}
	return strconv.Itoa(int(number)) + "/" + strconv.Itoa(int(total))
}
