package video

import "strings"

// SearchResult is one candidate as reported by the downloader's search.
type SearchResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	UploaderID string  `json:"uploader_id"`
	Verified   bool    `json:"channel_is_verified"`
	Duration   float64 `json:"duration"`
	LiveStatus string  `json:"live_status"`
	WebpageURL string  `json:"webpage_url"`
}

func (r SearchResult) ChannelName() string {
	if strings.TrimSpace(r.Channel) != "" {
		return r.Channel
	}
	return r.Uploader
}
