package tags

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

type id3Reader struct {
	values
}

func (r *id3Reader) Format() string { return "id3v2" }

func OpenID3(path string) (Reader, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("read id3 tags: %w", err)
	}
	defer tag.Close()

	text := func(id string) string {
		return tag.GetTextFrame(id).Text
	}

	v := values{}
	v.setFirst(FieldArtist, text("TPE1"), text("TPE2"))
	v.setFirst(FieldTitle, text("TIT2"), text("TIT1"))
	v.setFirst(FieldAlbum, text("TALB"))
	v.setFirst(FieldGenre, text("TCON"))
	v.setFirst(FieldDate, text("TDRC"), text("TYER"))
	v.setFirst(FieldYear, text("TYER"))
	v.setFirst(FieldAlbumArtist, text("TPE2"))
	v.setFirst(FieldTrackNumber, text("TRCK"))
	v.setFirst(FieldDiscNumber, text("TPOS"))
	v.setFirst(FieldCompilation, text("TCMP"))
	v.setFirst(FieldComposer, text("TCOM"))
	for _, frame := range tag.GetFrames(tag.CommonID("Comments")) {
		if comment, ok := frame.(id3v2.CommentFrame); ok {
			v.setFirst(FieldComment, comment.Text)
		}
	}
	return &id3Reader{values: v}, nil
}
