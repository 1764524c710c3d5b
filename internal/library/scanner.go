package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/mediafile"
)

type Entry struct {
	Path   string
	Artist string
	Title  string
}

func (e Entry) Complete() bool {
	return e.Artist != "" && e.Title != ""
}

type Identifier interface {
	Identify(path string) (string, string)
}

type Scanner struct {
	Identifier Identifier
}

func NewScanner(identifier Identifier) *Scanner {
	if identifier == nil {
		identifier = NewParser()
	}
	return &Scanner{Identifier: identifier}
}

func (s *Scanner) Scan(ctx context.Context, root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		log.Error().Str("root", root).Msg("music library is not a directory")
		return nil, fmt.Errorf("music library %q is not a directory", root)
	}

	entries := []Entry{}
	scanned := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		scanned++
		if !mediafile.IsAudio(path) {
			return nil
		}
		entries = append(entries, s.identify(path))
		return nil
	})
	if walkErr != nil {
		return entries, walkErr
	}

	log.Info().Int("scanned", scanned).Int("audio", len(entries)).Str("root", root).Msg("library scan finished")
	return entries, nil
}

func (s *Scanner) identify(path string) (entry Entry) {
	entry = Entry{Path: path}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("path", path).Interface("panic", r).Msg("tag parser failed")
			entry = Entry{Path: path}
		}
	}()
	entry.Artist, entry.Title = s.Identifier.Identify(path)
	return entry
}
