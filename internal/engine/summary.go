package engine

import "github.com/jaa/mvpipe/internal/output"

// SongOutcome records what happened to one library entry. The pipeline
// merges outcomes into the RunSummary; nothing else mutates counters.
type SongOutcome struct {
	Path                 string
	Skipped              bool
	OutputDirError       bool
	Searched             bool
	VideoSelected        bool
	VideoDownloaded      bool
	DownloadFailed       bool
	MetadataTransferred  bool
	AudioTranscribed     bool
	VideoTranscribed     bool
	TranscriptionErrored bool
	Outputs              []string
}

// Succeeded reports whether the song produced at least one output.
func (o SongOutcome) Succeeded() bool {
	return o.VideoDownloaded || o.AudioTranscribed || o.VideoTranscribed
}

type RunSummary struct {
	RunID                   string
	TotalFound              int
	SkippedMissingTags      int
	OutputDirErrors         int
	Attempted               int
	Succeeded               int
	VideosSearched          int
	VideosSelected          int
	VideosDownloaded        int
	VideosNotFound          int
	DownloadErrors          int
	MetadataTransferred     int
	AudioTranscribed        int
	VideosTranscribed       int
	SongsWithTranscribeErrs int
	Interrupted             bool
}

func (s *RunSummary) Merge(outcome SongOutcome) {
	if outcome.Skipped {
		s.SkippedMissingTags++
		return
	}
	s.Attempted++
	if outcome.OutputDirError {
		s.OutputDirErrors++
		return
	}
	if outcome.Searched {
		s.VideosSearched++
	}
	if outcome.VideoSelected {
		s.VideosSelected++
	} else if outcome.Searched {
		s.VideosNotFound++
	}
	if outcome.VideoDownloaded {
		s.VideosDownloaded++
	}
	if outcome.DownloadFailed {
		s.DownloadErrors++
	}
	if outcome.MetadataTransferred {
		s.MetadataTransferred++
	}
	if outcome.AudioTranscribed {
		s.AudioTranscribed++
	}
	if outcome.VideoTranscribed {
		s.VideosTranscribed++
	}
	if outcome.TranscriptionErrored {
		s.SongsWithTranscribeErrs++
	}
	if outcome.Succeeded() {
		s.Succeeded++
	}
}

func (s RunSummary) Sections() []output.SummarySection {
	return []output.SummarySection{
		{
			Title: "Library",
			Rows: []output.SummaryRow{
				{Label: "Total audio files found", Value: s.TotalFound},
				{Label: "Skipped (missing tags)", Value: s.SkippedMissingTags},
				{Label: "Attempted", Value: s.Attempted},
				{Label: "Output directory errors", Value: s.OutputDirErrors},
				{Label: "Successfully processed", Value: s.Succeeded},
			},
		},
		{
			Title: "Videos",
			Rows: []output.SummaryRow{
				{Label: "Searched", Value: s.VideosSearched},
				{Label: "Found and selected", Value: s.VideosSelected},
				{Label: "Downloaded", Value: s.VideosDownloaded},
				{Label: "Not found", Value: s.VideosNotFound},
				{Label: "Download errors", Value: s.DownloadErrors},
				{Label: "Metadata transferred", Value: s.MetadataTransferred},
			},
		},
		{
			Title: "Transcription",
			Rows: []output.SummaryRow{
				{Label: "Audio transcribed", Value: s.AudioTranscribed},
				{Label: "Videos transcribed", Value: s.VideosTranscribed},
				{Label: "Songs with errors", Value: s.SongsWithTranscribeErrs},
			},
		},
	}
}

func (s RunSummary) details() map[string]any {
	return map[string]any{
		"total":                 s.TotalFound,
		"skipped":               s.SkippedMissingTags,
		"attempted":             s.Attempted,
		"succeeded":             s.Succeeded,
		"output_dir_errors":     s.OutputDirErrors,
		"videos_searched":       s.VideosSearched,
		"videos_selected":       s.VideosSelected,
		"videos_downloaded":     s.VideosDownloaded,
		"videos_not_found":      s.VideosNotFound,
		"download_errors":       s.DownloadErrors,
		"metadata_transferred":  s.MetadataTransferred,
		"audio_transcribed":     s.AudioTranscribed,
		"videos_transcribed":    s.VideosTranscribed,
		"transcription_errored": s.SongsWithTranscribeErrs,
	}
}
