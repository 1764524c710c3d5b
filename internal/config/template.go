package config

import "fmt"

// DefaultTemplate returns a commented JSON config. Keys starting with
// "_comment" are ignored by the loader.
func DefaultTemplate() string {
	device := DefaultDevice()
	return fmt.Sprintf(`{
  "_comment_paths": "Set both before running. Absolute paths are recommended. ~ and $VARS are expanded.",
  "music_library": null,
  "output_dir": null,

  "_comment_tools": "Executables are looked up on PATH unless a full path is given.",
  "yt_dlp_path": %q,
  "ffmpeg_path": %q,
  "whisper_path": %q,

  "_comment_search": "Format selector passed to yt-dlp and the number of search results inspected per query.",
  "video_quality": %q,
  "search_results": %d,
  "search_timeout_seconds": %d,
  "download_timeout_seconds": %d,

  "_comment_transcribe": "Device is cpu or cuda. Language null means auto-detect.",
  "transcribe_model_size": %q,
  "transcribe_model_dir": "",
  "transcribe_device": %q,
  "transcribe_compute_type": %q,
  "transcribe_vad": false,
  "transcribe_beam_size": %d,
  "transcribe_language": null
}
`,
		DefaultYtDlpPath,
		DefaultFFmpegPath,
		DefaultWhisperPath,
		DefaultVideoQuality,
		DefaultSearchResults,
		DefaultSearchTimeoutSeconds,
		DefaultDownloadTimeoutSeconds,
		DefaultModelSize,
		device,
		DefaultComputeType(device),
		DefaultBeamSize,
	)
}
