package tags

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeReader struct {
	values
}

func (r *probeReader) Format() string { return "ffprobe" }

var probeFile = func(path string) (string, error) {
	return ffmpeg.Probe(path)
}

// probeKeys is ordered by priority: when two keys name the same field, the
// earlier one wins.
var probeKeys = []struct {
	key   string
	field Field
}{
	{"artist", FieldArtist},
	{"title", FieldTitle},
	{"album", FieldAlbum},
	{"genre", FieldGenre},
	{"date", FieldDate},
	{"year", FieldYear},
	{"album_artist", FieldAlbumArtist},
	{"albumartist", FieldAlbumArtist},
	{"track", FieldTrackNumber},
	{"tracknumber", FieldTrackNumber},
	{"disc", FieldDiscNumber},
	{"discnumber", FieldDiscNumber},
	{"compilation", FieldCompilation},
	{"composer", FieldComposer},
	{"comment", FieldComment},
}

type probeDocument struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		Tags map[string]string `json:"tags"`
	} `json:"streams"`
}

// OpenProbe reads container and stream tags through ffprobe. Ogg and Opus
// files keep their comments on the audio stream rather than the container.
func OpenProbe(path string) (Reader, error) {
	raw, err := probeFile(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbe([]byte(raw))
}

func parseProbe(raw []byte) (Reader, error) {
	var doc probeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	v := values{}
	applyProbeTags(v, doc.Format.Tags)
	for _, stream := range doc.Streams {
		applyProbeTags(v, stream.Tags)
	}
	return &probeReader{values: v}, nil
}

func applyProbeTags(v values, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Keys differing only in case keep the first in sorted order.
	lowered := make(map[string]string, len(tags))
	for _, key := range keys {
		lower := strings.ToLower(key)
		if _, seen := lowered[lower]; !seen {
			lowered[lower] = tags[key]
		}
	}

	for _, probe := range probeKeys {
		if value, ok := lowered[probe.key]; ok {
			v.setFirst(probe.field, value)
		}
	}
}
