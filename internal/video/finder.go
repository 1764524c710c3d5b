package video

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const DefaultSearchLimit = 5

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Finder runs the two-query search strategy: an "official music video"
// query first, then the bare artist and title.
type Finder struct {
	Searcher Searcher
	Limit    int
}

func NewFinder(searcher Searcher, limit int) *Finder {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Finder{Searcher: searcher, Limit: limit}
}

func Queries(artist, title string) []string {
	base := fmt.Sprintf("%s - %s", artist, title)
	return []string{base + " official music video", base}
}

func (f *Finder) Find(ctx context.Context, artist, title string) (string, bool) {
	for _, query := range Queries(artist, title) {
		if ctx.Err() != nil {
			return "", false
		}
		results, err := f.Searcher.Search(ctx, query, f.Limit)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("video search failed")
			continue
		}
		log.Debug().Str("query", query).Int("results", len(results)).Msg("video search finished")
		if id, ok := Select(results, artist, title); ok {
			return id, true
		}
	}
	log.Info().Str("artist", artist).Str("title", title).Msg("no suitable video found")
	return "", false
}
