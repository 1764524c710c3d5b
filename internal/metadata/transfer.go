package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/tags"
)

var ErrNoTags = errors.New("no transferable tags found")

type Writer interface {
	Write(ctx context.Context, videoPath string, set TagSet) error
}

type Transferer struct {
	OpenTags func(path string) (tags.Reader, error)
	Writer   Writer
}

func NewTransferer(writer Writer) *Transferer {
	return &Transferer{OpenTags: tags.Open, Writer: writer}
}

// Transfer copies the audio file's descriptive tags onto the video and
// returns the number of fields written. The video is rewritten at most once.
func (t *Transferer) Transfer(ctx context.Context, audioPath, videoPath string) (int, error) {
	for _, path := range []string{audioPath, videoPath} {
		if _, err := os.Stat(path); err != nil {
			return 0, fmt.Errorf("metadata transfer: %w", err)
		}
	}

	open := t.OpenTags
	if open == nil {
		open = tags.Open
	}
	reader, err := open(audioPath)
	if err != nil {
		return 0, fmt.Errorf("read source tags: %w", err)
	}

	set := FromReader(reader)
	count := set.Len()
	if count == 0 {
		log.Info().Str("audio", filepath.Base(audioPath)).Msg("no transferable tags")
		return 0, ErrNoTags
	}

	if err := t.Writer.Write(ctx, videoPath, set); err != nil {
		return 0, fmt.Errorf("write video tags: %w", err)
	}
	log.Info().Int("fields", count).Str("audio", filepath.Base(audioPath)).Str("video", filepath.Base(videoPath)).Msg("metadata transferred")
	return count, nil
}
