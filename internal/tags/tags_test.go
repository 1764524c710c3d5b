package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func TestOpenID3FallsBackToAlbumArtistAndGrouping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	tag := id3v2.NewEmptyTag()
	tag.AddTextFrame("TPE2", tag.DefaultEncoding(), "Band Name")
	tag.AddTextFrame("TIT1", tag.DefaultEncoding(), "Grouped Title")
	tag.AddTextFrame("TRCK", tag.DefaultEncoding(), "3/12")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tag.WriteTo(file); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	_ = file.Close()

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if reader.Format() != "id3v2" {
		t.Fatalf("expected id3v2 reader, got %s", reader.Format())
	}
	if artist, _ := reader.Get(FieldArtist); artist != "Band Name" {
		t.Fatalf("expected TPE2 fallback, got %q", artist)
	}
	if title, _ := reader.Get(FieldTitle); title != "Grouped Title" {
		t.Fatalf("expected TIT1 fallback, got %q", title)
	}
	if track, _ := reader.Get(FieldTrackNumber); track != "3/12" {
		t.Fatalf("unexpected track %q", track)
	}
	if _, ok := reader.Get(FieldAlbum); ok {
		t.Fatalf("expected album to be missing")
	}
}

func TestApplyVorbisCommentsKeepsFirstValue(t *testing.T) {
	v := values{}
	applyVorbisComments(v, []string{
		"artist=First",
		"ARTIST=Second",
		"Title=  Song  ",
		"COMPILATION=1",
		"malformed",
		"UNKNOWN=x",
	})
	reader := &vorbisReader{values: v}

	if got, _ := reader.Get(FieldArtist); got != "First" {
		t.Fatalf("expected first artist value, got %q", got)
	}
	if got, _ := reader.Get(FieldTitle); got != "Song" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if got, _ := reader.Get(FieldCompilation); got != "1" {
		t.Fatalf("unexpected compilation %q", got)
	}
	if len(v) != 3 {
		t.Fatalf("expected 3 known fields, got %d", len(v))
	}
}

func TestParseProbeReadsFormatAndStreamTags(t *testing.T) {
	raw := `{
		"format": {"tags": {"TITLE": "Probe Song", "album_artist": "Various"}},
		"streams": [{"tags": {"ARTIST": "Stream Artist", "TITLE": "Ignored"}}]
	}`
	reader, err := parseProbe([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := reader.Get(FieldTitle); got != "Probe Song" {
		t.Fatalf("expected container title to win, got %q", got)
	}
	if got, _ := reader.Get(FieldArtist); got != "Stream Artist" {
		t.Fatalf("expected stream artist, got %q", got)
	}
	if got, _ := reader.Get(FieldAlbumArtist); got != "Various" {
		t.Fatalf("unexpected album artist %q", got)
	}
}

func TestOpenUsesProbeForOtherContainers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.ogg")
	if err := os.WriteFile(path, []byte("ogg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	orig := probeFile
	probeFile = func(string) (string, error) {
		return `{"format":{"tags":{"artist":"A","title":"T"}}}`, nil
	}
	t.Cleanup(func() { probeFile = orig })

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if reader.Format() != "ffprobe" {
		t.Fatalf("expected probe reader, got %s", reader.Format())
	}
	if got, _ := reader.Get(FieldArtist); got != "A" {
		t.Fatalf("unexpected artist %q", got)
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseProbePrefersKeysInFixedOrder(t *testing.T) {
	raw := `{"format": {"tags": {
		"albumartist": "Joined",
		"album_artist": "Underscored",
		"tracknumber": "5",
		"track": "3/12",
		"DISCNUMBER": "2",
		"disc": "1/2",
		"Title": "Upper",
		"title": "Lower"
	}}}`
	for i := 0; i < 20; i++ {
		reader, err := parseProbe([]byte(raw))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		want := map[Field]string{
			FieldAlbumArtist: "Underscored",
			FieldTrackNumber: "3/12",
			FieldDiscNumber:  "1/2",
			FieldTitle:       "Upper",
		}
		for field, value := range want {
			if got, _ := reader.Get(field); got != value {
				t.Fatalf("run %d: %s = %q, want %q", i, field, got, value)
			}
		}
	}
}
