package config

import "testing"

func TestValidateSuccess(t *testing.T) {
	cfg := Config{
		MusicLibrary:           "/srv/music",
		OutputDir:              "/srv/videos",
		YtDlpPath:              DefaultYtDlpPath,
		FFmpegPath:             DefaultFFmpegPath,
		WhisperPath:            DefaultWhisperPath,
		VideoQuality:           DefaultVideoQuality,
		SearchResults:          5,
		SearchTimeoutSeconds:   60,
		DownloadTimeoutSeconds: 600,
		Transcribe: Transcribe{
			ModelSize:   "small",
			Device:      DeviceCPU,
			ComputeType: "int8",
			BeamSize:    5,
		},
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateFailure(t *testing.T) {
	cfg := Config{
		SearchResults:          0,
		SearchTimeoutSeconds:   -1,
		DownloadTimeoutSeconds: 0,
		Transcribe: Transcribe{
			Device:      "tpu",
			ComputeType: "int3",
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Problems) < 8 {
		t.Fatalf("expected multiple problems, got %v", validationErr.Problems)
	}
}
