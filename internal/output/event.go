package output

import "time"

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRunStarted            EventName = "run_started"
	EventScanFinished          EventName = "scan_finished"
	EventSongStarted           EventName = "song_started"
	EventSongSkipped           EventName = "song_skipped"
	EventVideoSelected         EventName = "video_selected"
	EventVideoMissing          EventName = "video_missing"
	EventDownloadFinished      EventName = "download_finished"
	EventDownloadFailed        EventName = "download_failed"
	EventMetadataTransferred   EventName = "metadata_transferred"
	EventMetadataSkipped       EventName = "metadata_skipped"
	EventTranscriptionFinished EventName = "transcription_finished"
	EventTranscriptionFailed   EventName = "transcription_failed"
	EventSongFinished          EventName = "song_finished"
	EventRunFinished           EventName = "run_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	RunID     string         `json:"run_id,omitempty"`
	Song      string         `json:"song,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
