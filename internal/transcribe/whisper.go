package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/engine"
	"github.com/jaa/mvpipe/internal/mediafile"
)

const (
	DefaultBinary    = "whisper-ctranslate2"
	DefaultModel     = "large-v2"
	DefaultBeamWidth = 5
)

var ErrUnavailable = errors.New("speech-to-text runtime unavailable")

type Options struct {
	Binary      string
	Model       string
	ModelDir    string
	Device      string
	ComputeType string
	Language    string
	BeamWidth   int
	VADFilter   bool
}

// WhisperTranscriber drives the faster-whisper command line tool. Each call
// is a fresh process, so the model is loaded and released per input.
type WhisperTranscriber struct {
	runner    engine.ExecRunner
	opts      Options
	available bool
	lookPath  func(string) (string, error)
	tempDir   func(dir, pattern string) (string, error)
}

func NewWhisperTranscriber(runner engine.ExecRunner, opts Options) *WhisperTranscriber {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = DefaultBinary
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = DefaultModel
	}
	if opts.BeamWidth <= 0 {
		opts.BeamWidth = DefaultBeamWidth
	}
	t := &WhisperTranscriber{
		runner:   runner,
		opts:     opts,
		lookPath: exec.LookPath,
		tempDir:  os.MkdirTemp,
	}
	t.checkAvailable()
	return t
}

func (t *WhisperTranscriber) checkAvailable() {
	if _, err := t.lookPath(t.opts.Binary); err != nil {
		log.Warn().Str("binary", t.opts.Binary).Msg("transcription disabled: speech-to-text runtime not found")
		t.available = false
		return
	}
	t.available = true
}

func (t *WhisperTranscriber) Available() bool {
	return t.available
}

func (t *WhisperTranscriber) BuildArgs(mediaPath, workDir string) []string {
	args := []string{
		mediaPath,
		"--model", t.opts.Model,
		"--task", "transcribe",
		"--beam_size", strconv.Itoa(t.opts.BeamWidth),
		"--vad_filter", pythonBool(t.opts.VADFilter),
		"--output_format", "json",
		"--output_dir", workDir,
		"--verbose", "False",
	}
	if t.opts.ModelDir != "" {
		args = append(args, "--model_directory", t.opts.ModelDir)
	}
	if t.opts.Device != "" {
		args = append(args, "--device", t.opts.Device)
	}
	if t.opts.ComputeType != "" {
		args = append(args, "--compute_type", t.opts.ComputeType)
	}
	if t.opts.Language != "" {
		args = append(args, "--language", t.opts.Language)
	}
	return args
}

func pythonBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}

// Formats lists the files written for mediaPath: subtitles for videos,
// synced lyrics for audio, plain text for both.
func Formats(mediaPath string) []string {
	if mediafile.IsVideo(mediaPath) {
		return []string{FormatText, FormatSRT, FormatVTT}
	}
	return []string{FormatText, FormatLRC}
}

// Transcribe writes one file per format as <stem>.<format>. The stem falls
// back to the media base name.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, mediaPath, outputDir, stem string) (map[string]string, error) {
	if !t.available {
		return nil, ErrUnavailable
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	segments, info, err := t.run(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("media", filepath.Base(mediaPath)).
		Str("language", info.Language).
		Float64("probability", info.LanguageProbability).
		Float64("duration", info.Duration).
		Int("segments", len(segments)).
		Msg("transcription finished")

	if strings.TrimSpace(stem) == "" {
		stem = mediafile.BaseName(mediaPath)
	}
	written := map[string]string{}
	for _, format := range Formats(mediaPath) {
		content, err := Render(format, segments)
		if err != nil {
			return written, err
		}
		path := filepath.Join(outputDir, stem+"."+format)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("write %s transcript: %w", format, err)
		}
		written[format] = path
	}
	return written, nil
}

// run executes one transcription inside a private work directory that is
// always removed afterwards.
func (t *WhisperTranscriber) run(ctx context.Context, mediaPath string) ([]Segment, Info, error) {
	workDir, err := t.tempDir("", "mvpipe-whisper-*")
	if err != nil {
		return nil, Info{}, fmt.Errorf("transcribe: create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn().Err(err).Str("dir", workDir).Msg("could not remove transcription work dir")
		}
		log.Debug().Str("model", t.opts.Model).Msg("transcription model released")
	}()

	log.Debug().Str("model", t.opts.Model).Str("device", t.opts.Device).Str("compute_type", t.opts.ComputeType).Msg("loading transcription model")
	args := t.BuildArgs(mediaPath, workDir)
	result := t.runner.Run(ctx, engine.ExecSpec{
		Bin:            t.opts.Binary,
		Args:           args,
		DisplayCommand: t.opts.Binary + " " + strings.Join(args, " "),
	})
	if result.ExitCode != 0 || result.Interrupted || result.TimedOut {
		log.Error().Str("media", mediaPath).Int("exit_code", result.ExitCode).Str("stderr", result.StderrTail).Msg("transcription command failed")
		return nil, Info{}, fmt.Errorf("%s: %s", t.opts.Binary, result.Describe())
	}

	jsonPath := filepath.Join(workDir, mediafile.BaseName(mediaPath)+".json")
	return loadTranscript(jsonPath)
}

type transcriptDocument struct {
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration"`
	Segments            []Segment `json:"segments"`
}

func loadTranscript(path string) ([]Segment, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read transcript: %w", err)
	}
	var doc transcriptDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Info{}, fmt.Errorf("decode transcript: %w", err)
	}
	info := Info{
		Language:            doc.Language,
		LanguageProbability: doc.LanguageProbability,
		Duration:            doc.Duration,
	}
	if info.Duration == 0 && len(doc.Segments) > 0 {
		info.Duration = doc.Segments[len(doc.Segments)-1].End
	}
	return doc.Segments, info, nil
}
