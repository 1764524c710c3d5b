package video

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var negativeKeywords = []string{
	"lyric", "cover", "remix", "live", "reaction", "instrumental", "karaoke",
	"parody", "chipmunk", "slowed", "reverb", "bass boosted", "tutorial",
	"lesson", "interview", "teaser", "trailer", "fan cam", "album version",
	"full album", "topic", "provided to youtube by", "8d audio", "nightcore",
	"extended", "mashup", "megamix", "clean version",
}

var positiveMarkers = []string{"official music video", "official video", "official audio"}

var strictNegativeKeywords = func() []string {
	relaxed := map[string]bool{"official audio": true, "topic": true, "provided to youtube by": true}
	out := make([]string, 0, len(negativeKeywords))
	for _, keyword := range negativeKeywords {
		if !relaxed[keyword] {
			out = append(out, keyword)
		}
	}
	return out
}()

const (
	positiveBonus       = 10
	softNegativePenalty = 5
	hardNegativePenalty = 20
	minKeepScore        = 2
	minSelectScore      = 8
	minLeadOverRunnerUp = 5
)

type scoredCandidate struct {
	id    string
	score int
}

// Select picks the most plausible official music video for artist and
// title. It returns false when no candidate is convincing enough.
func Select(results []SearchResult, artist, title string) (string, bool) {
	if len(results) == 0 {
		return "", false
	}
	artistLower := strings.ToLower(strings.TrimSpace(artist))
	titleLower := strings.ToLower(strings.TrimSpace(title))

	for _, result := range results {
		if result.ID != "" && isOfficialUpload(result, artistLower) {
			log.Info().Str("id", result.ID).Str("title", result.Title).Msg("prioritized official upload")
			return result.ID, true
		}
	}

	candidates := make([]scoredCandidate, 0, len(results))
	for _, result := range results {
		videoTitle := strings.ToLower(result.Title)
		positive := containsAny(videoTitle, positiveMarkers)
		negative := containsAny(videoTitle, negativeKeywords)

		score := 0
		if negative {
			if positive {
				score -= softNegativePenalty
			} else {
				score -= hardNegativePenalty
			}
		}
		if positive {
			score += positiveBonus
		}
		if !negative && (strings.Contains(videoTitle, titleLower) || score > minKeepScore) {
			candidates = append(candidates, scoredCandidate{id: result.ID, score: score})
		}
	}
	if len(candidates) == 0 {
		log.Info().Str("artist", artist).Str("title", title).Msg("no plausible candidates")
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0]
	clearLead := len(candidates) == 1 || best.score-candidates[1].score >= minLeadOverRunnerUp
	if best.id != "" && best.score >= minSelectScore && clearLead {
		log.Info().Str("id", best.id).Int("score", best.score).Msg("auto-selected candidate")
		return best.id, true
	}
	log.Info().Str("artist", artist).Str("title", title).Int("top_score", best.score).Msg("no clear automatic match")
	return "", false
}

func isOfficialUpload(result SearchResult, artistLower string) bool {
	videoTitle := strings.ToLower(result.Title)
	if !containsAny(videoTitle, positiveMarkers) {
		return false
	}
	if containsAny(videoTitle, strictNegativeKeywords) {
		return false
	}
	return channelMatchesArtist(result, artistLower)
}

func channelMatchesArtist(result SearchResult, artistLower string) bool {
	channel := strings.ToLower(result.ChannelName())
	uploaderID := strings.ToLower(result.UploaderID)
	switch {
	case channel == artistLower:
		return true
	case strings.Contains(channel, artistLower+" official"):
		return true
	case strings.Contains(channel, artistLower+"vevo"):
		return true
	case strings.Contains(channel, "vevo") && strings.Contains(channel, artistLower):
		return true
	case strings.Contains(uploaderID, "vevo") && strings.Contains(uploaderID, artistLower):
		return true
	case result.Verified && strings.Contains(channel, artistLower):
		return true
	}
	return false
}

func containsAny(value string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
