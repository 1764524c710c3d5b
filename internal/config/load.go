package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix     = "MVPIPE_"
	commentPrefix = "_comment"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

// fileConfig mirrors Config with pointers so that a file only overrides the
// keys it actually sets.
type fileConfig struct {
	MusicLibrary           *string `yaml:"music_library"`
	OutputDir              *string `yaml:"output_dir"`
	YtDlpPath              *string `yaml:"yt_dlp_path"`
	FFmpegPath             *string `yaml:"ffmpeg_path"`
	WhisperPath            *string `yaml:"whisper_path"`
	VideoQuality           *string `yaml:"video_quality"`
	SearchResults          *int    `yaml:"search_results"`
	SearchTimeoutSeconds   *int    `yaml:"search_timeout_seconds"`
	DownloadTimeoutSeconds *int    `yaml:"download_timeout_seconds"`
	TranscribeModelSize    *string `yaml:"transcribe_model_size"`
	TranscribeModelDir     *string `yaml:"transcribe_model_dir"`
	TranscribeDevice       *string `yaml:"transcribe_device"`
	TranscribeComputeType  *string `yaml:"transcribe_compute_type"`
	TranscribeVAD          *bool   `yaml:"transcribe_vad"`
	TranscribeBeamSize     *int    `yaml:"transcribe_beam_size"`
	TranscribeLanguage     *string `yaml:"transcribe_language"`
}

var knownKeys = map[string]struct{}{
	"music_library":            {},
	"output_dir":               {},
	"yt_dlp_path":              {},
	"ffmpeg_path":              {},
	"whisper_path":             {},
	"video_quality":            {},
	"search_results":           {},
	"search_timeout_seconds":   {},
	"download_timeout_seconds": {},
	"transcribe_model_size":    {},
	"transcribe_model_dir":     {},
	"transcribe_device":        {},
	"transcribe_compute_type":  {},
	"transcribe_vad":           {},
	"transcribe_beam_size":     {},
	"transcribe_language":      {},
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	warnUnknownKeys(path, payload)

	setString(&cfg.MusicLibrary, fc.MusicLibrary)
	setString(&cfg.OutputDir, fc.OutputDir)
	setString(&cfg.YtDlpPath, fc.YtDlpPath)
	setString(&cfg.FFmpegPath, fc.FFmpegPath)
	setString(&cfg.WhisperPath, fc.WhisperPath)
	setString(&cfg.VideoQuality, fc.VideoQuality)
	if fc.SearchResults != nil {
		cfg.SearchResults = *fc.SearchResults
	}
	if fc.SearchTimeoutSeconds != nil {
		cfg.SearchTimeoutSeconds = *fc.SearchTimeoutSeconds
	}
	if fc.DownloadTimeoutSeconds != nil {
		cfg.DownloadTimeoutSeconds = *fc.DownloadTimeoutSeconds
	}

	setString(&cfg.Transcribe.ModelSize, fc.TranscribeModelSize)
	setString(&cfg.Transcribe.ModelDir, fc.TranscribeModelDir)
	setString(&cfg.Transcribe.ComputeType, fc.TranscribeComputeType)
	setString(&cfg.Transcribe.Language, fc.TranscribeLanguage)
	if fc.TranscribeDevice != nil {
		setDevice(cfg, strings.TrimSpace(*fc.TranscribeDevice), fc.TranscribeComputeType != nil)
	}
	if fc.TranscribeVAD != nil {
		cfg.Transcribe.VAD = *fc.TranscribeVAD
	}
	if fc.TranscribeBeamSize != nil {
		cfg.Transcribe.BeamSize = *fc.TranscribeBeamSize
	}

	return nil
}

// setDevice switches the device. Unless the compute type was given alongside
// it, the compute type is cleared so normalize picks the device's default.
func setDevice(cfg *Config, device string, computeTypeSet bool) {
	cfg.Transcribe.Device = device
	if !computeTypeSet {
		cfg.Transcribe.ComputeType = ""
	}
}

func warnUnknownKeys(path string, payload []byte) {
	var raw map[string]any
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return
	}
	unknown := []string{}
	for key := range raw {
		if strings.HasPrefix(key, commentPrefix) {
			continue
		}
		if _, ok := knownKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return
	}
	sort.Strings(unknown)
	log.Warn().Str("path", path).Strs("keys", unknown).Msg("ignoring unknown config keys")
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	lookup := func(key string) string {
		return strings.TrimSpace(env[EnvPrefix+key])
	}
	textBindings := map[string]*string{
		"MUSIC_LIBRARY":           &cfg.MusicLibrary,
		"OUTPUT_DIR":              &cfg.OutputDir,
		"YT_DLP_PATH":             &cfg.YtDlpPath,
		"FFMPEG_PATH":             &cfg.FFmpegPath,
		"WHISPER_PATH":            &cfg.WhisperPath,
		"VIDEO_QUALITY":           &cfg.VideoQuality,
		"TRANSCRIBE_MODEL_SIZE":   &cfg.Transcribe.ModelSize,
		"TRANSCRIBE_MODEL_DIR":    &cfg.Transcribe.ModelDir,
		"TRANSCRIBE_COMPUTE_TYPE": &cfg.Transcribe.ComputeType,
		"TRANSCRIBE_LANGUAGE":     &cfg.Transcribe.Language,
	}
	for key, target := range textBindings {
		if value := lookup(key); value != "" {
			*target = value
		}
	}
	if value := lookup("TRANSCRIBE_DEVICE"); value != "" {
		setDevice(cfg, value, lookup("TRANSCRIBE_COMPUTE_TYPE") != "")
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"SEARCH_RESULTS", &cfg.SearchResults},
		{"SEARCH_TIMEOUT_SECONDS", &cfg.SearchTimeoutSeconds},
		{"DOWNLOAD_TIMEOUT_SECONDS", &cfg.DownloadTimeoutSeconds},
		{"TRANSCRIBE_BEAM_SIZE", &cfg.Transcribe.BeamSize},
	}
	for _, binding := range ints {
		value := lookup(binding.key)
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s%s value %q: %w", EnvPrefix, binding.key, value, err)
		}
		*binding.target = parsed
	}

	if value := lookup("TRANSCRIBE_VAD"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %sTRANSCRIBE_VAD value %q: %w", EnvPrefix, value, err)
		}
		cfg.Transcribe.VAD = parsed
	}
	return nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.YtDlpPath) == "" {
		cfg.YtDlpPath = DefaultYtDlpPath
	}
	if strings.TrimSpace(cfg.FFmpegPath) == "" {
		cfg.FFmpegPath = DefaultFFmpegPath
	}
	if strings.TrimSpace(cfg.WhisperPath) == "" {
		cfg.WhisperPath = DefaultWhisperPath
	}
	if strings.TrimSpace(cfg.VideoQuality) == "" {
		cfg.VideoQuality = DefaultVideoQuality
	}
	if strings.TrimSpace(cfg.Transcribe.ModelSize) == "" {
		cfg.Transcribe.ModelSize = DefaultModelSize
	}
	cfg.Transcribe.Device = strings.ToLower(strings.TrimSpace(cfg.Transcribe.Device))
	if cfg.Transcribe.Device == "" || cfg.Transcribe.Device == DeviceAuto {
		cfg.Transcribe.Device = DefaultDevice()
	}
	if strings.TrimSpace(cfg.Transcribe.ComputeType) == "" {
		cfg.Transcribe.ComputeType = DefaultComputeType(cfg.Transcribe.Device)
	}
}

func setString(target *string, value *string) {
	if value != nil {
		*target = strings.TrimSpace(*value)
	}
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}
