package config

import (
	"fmt"
	"strings"
)

var computeTypes = map[string]struct{}{
	"auto":          {},
	"default":       {},
	"int8":          {},
	"int8_float16":  {},
	"int8_float32":  {},
	"int8_bfloat16": {},
	"int16":         {},
	"float16":       {},
	"bfloat16":      {},
	"float32":       {},
}

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the fully merged configuration. Paths are only checked for
// presence here; existence is checked by the commands that need them.
func Validate(cfg Config) error {
	problems := []string{}

	if strings.TrimSpace(cfg.MusicLibrary) == "" {
		problems = append(problems, "music_library must be set")
	} else if _, err := ExpandPath(cfg.MusicLibrary); err != nil {
		problems = append(problems, fmt.Sprintf("music_library is invalid: %v", err))
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		problems = append(problems, "output_dir must be set")
	} else if _, err := ExpandPath(cfg.OutputDir); err != nil {
		problems = append(problems, fmt.Sprintf("output_dir is invalid: %v", err))
	}

	if strings.TrimSpace(cfg.YtDlpPath) == "" {
		problems = append(problems, "yt_dlp_path must be set")
	}
	if strings.TrimSpace(cfg.FFmpegPath) == "" {
		problems = append(problems, "ffmpeg_path must be set")
	}
	if strings.TrimSpace(cfg.VideoQuality) == "" {
		problems = append(problems, "video_quality must be set")
	}
	if cfg.SearchResults <= 0 {
		problems = append(problems, "search_results must be > 0")
	}
	if cfg.SearchTimeoutSeconds <= 0 {
		problems = append(problems, "search_timeout_seconds must be > 0")
	}
	if cfg.DownloadTimeoutSeconds <= 0 {
		problems = append(problems, "download_timeout_seconds must be > 0")
	}

	if strings.TrimSpace(cfg.Transcribe.ModelSize) == "" {
		problems = append(problems, "transcribe_model_size must be set")
	}
	switch cfg.Transcribe.Device {
	case DeviceCPU, DeviceCUDA:
	default:
		problems = append(problems, fmt.Sprintf("transcribe_device %q must be cpu or cuda", cfg.Transcribe.Device))
	}
	if _, ok := computeTypes[cfg.Transcribe.ComputeType]; !ok {
		problems = append(problems, fmt.Sprintf("transcribe_compute_type %q is not supported", cfg.Transcribe.ComputeType))
	}
	if cfg.Transcribe.BeamSize <= 0 {
		problems = append(problems, "transcribe_beam_size must be > 0")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
