package config

const (
	DefaultYtDlpPath              = "yt-dlp"
	DefaultFFmpegPath             = "ffmpeg"
	DefaultWhisperPath            = "whisper-ctranslate2"
	DefaultVideoQuality           = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/bestvideo[height<=1080]+bestaudio/best[height<=1080]"
	DefaultSearchResults          = 5
	DefaultSearchTimeoutSeconds   = 60
	DefaultDownloadTimeoutSeconds = 600
	DefaultModelSize              = "large-v2"
	DefaultBeamSize               = 5

	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
	DeviceAuto = "auto"
)

type Config struct {
	MusicLibrary           string `yaml:"music_library"`
	OutputDir              string `yaml:"output_dir"`
	YtDlpPath              string `yaml:"yt_dlp_path"`
	FFmpegPath             string `yaml:"ffmpeg_path"`
	WhisperPath            string `yaml:"whisper_path"`
	VideoQuality           string `yaml:"video_quality"`
	SearchResults          int    `yaml:"search_results"`
	SearchTimeoutSeconds   int    `yaml:"search_timeout_seconds"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`

	Transcribe Transcribe `yaml:",inline"`
}

type Transcribe struct {
	ModelSize   string `yaml:"transcribe_model_size"`
	ModelDir    string `yaml:"transcribe_model_dir"`
	Device      string `yaml:"transcribe_device"`
	ComputeType string `yaml:"transcribe_compute_type"`
	VAD         bool   `yaml:"transcribe_vad"`
	BeamSize    int    `yaml:"transcribe_beam_size"`
	Language    string `yaml:"transcribe_language"`
}

func DefaultConfig() Config {
	device := DefaultDevice()
	return Config{
		YtDlpPath:              DefaultYtDlpPath,
		FFmpegPath:             DefaultFFmpegPath,
		WhisperPath:            DefaultWhisperPath,
		VideoQuality:           DefaultVideoQuality,
		SearchResults:          DefaultSearchResults,
		SearchTimeoutSeconds:   DefaultSearchTimeoutSeconds,
		DownloadTimeoutSeconds: DefaultDownloadTimeoutSeconds,
		Transcribe: Transcribe{
			ModelSize:   DefaultModelSize,
			Device:      device,
			ComputeType: DefaultComputeType(device),
			BeamSize:    DefaultBeamSize,
		},
	}
}
