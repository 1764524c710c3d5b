package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jaa/mvpipe/internal/adapters/ytdlp"
	"github.com/jaa/mvpipe/internal/config"
	"github.com/jaa/mvpipe/internal/engine"
	"github.com/jaa/mvpipe/internal/exitcode"
	"github.com/jaa/mvpipe/internal/library"
	"github.com/jaa/mvpipe/internal/metadata"
	"github.com/jaa/mvpipe/internal/output"
	"github.com/jaa/mvpipe/internal/transcribe"
	"github.com/jaa/mvpipe/internal/video"
)

const lockFileName = ".mvpipe.lock"

type runFlags struct {
	musicLibrary    string
	outputDir       string
	ytDlpPath       string
	ffmpegPath      string
	whisperPath     string
	videoQuality    string
	searchResults   int
	searchTimeout   int
	downloadTimeout int
	modelSize       string
	modelDir        string
	device          string
	computeType     string
	vad             bool
	beamSize        int
	language        string
	eventsLog       string
}

func newRunCommand(app *AppContext) *cobra.Command {
	flags := runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every song in the music library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			applyRunFlags(cmd, &cfg, flags)

			libraryDir, outputDir, err := resolveRunPaths(cfg)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("create output directory %s: %w", outputDir, err))
			}
			lock := flock.New(filepath.Join(outputDir, lockFileName))
			locked, err := lock.TryLock()
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("lock output directory: %w", err))
			}
			if !locked {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("another run is already writing to %s", outputDir))
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					log.Warn().Err(err).Msg("release output directory lock")
				}
			}()

			emitter, closeEvents, err := buildEmitter(app, flags.eventsLog)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			defer closeEvents()

			pipeline, transcriptionReady := buildPipeline(app, cfg, emitter)

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			summary, runErr := pipeline.Run(ctx, engine.RunOptions{
				LibraryDir:            libraryDir,
				OutputDir:             outputDir,
				TranscriptionDisabled: !transcriptionReady,
			})

			if !app.Opts.JSON {
				color := !app.Opts.NoColor && output.IsTerminal(app.IO.Out)
				fmt.Fprint(app.IO.Out, output.RenderSummary(summary.Sections(), color))
			}

			if runErr != nil {
				if errors.Is(runErr, engine.ErrInterrupted) {
					return withExitCode(exitcode.Interrupted, runErr)
				}
				return withExitCode(exitcode.RuntimeFailure, runErr)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.musicLibrary, "music-library", "", "Root directory of the music library")
	f.StringVar(&flags.outputDir, "output-dir", "", "Directory that receives one folder per song")
	f.StringVar(&flags.ytDlpPath, "yt-dlp-path", "", "yt-dlp executable")
	f.StringVar(&flags.ffmpegPath, "ffmpeg-path", "", "ffmpeg executable used for metadata transfer")
	f.StringVar(&flags.whisperPath, "whisper-path", "", "faster-whisper command line executable")
	f.StringVar(&flags.videoQuality, "video-quality", "", "yt-dlp format selector")
	f.IntVar(&flags.searchResults, "search-results", 0, "Search results inspected per query")
	f.IntVar(&flags.searchTimeout, "search-timeout", 0, "Search timeout in seconds")
	f.IntVar(&flags.downloadTimeout, "download-timeout", 0, "Download timeout in seconds")
	f.StringVar(&flags.modelSize, "transcribe-model-size", "", "Whisper model size (tiny, base, small, medium, large-v2, ...)")
	f.StringVar(&flags.modelDir, "transcribe-model-dir", "", "Directory holding downloaded Whisper models")
	f.StringVar(&flags.device, "transcribe-device", "", "Transcription device: cpu or cuda")
	f.StringVar(&flags.computeType, "transcribe-compute-type", "", "Transcription compute type (int8, float16, ...)")
	f.BoolVar(&flags.vad, "transcribe-vad", false, "Enable the voice activity detection filter")
	f.IntVar(&flags.beamSize, "transcribe-beam-size", 0, "Transcription beam size")
	f.StringVar(&flags.language, "transcribe-language", "", "Transcription language code (default: auto-detect)")
	f.StringVar(&flags.eventsLog, "events-log", "", "Also append JSON events to this file")
	return cmd
}

// applyRunFlags layers explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) {
	changed := cmd.Flags().Changed
	setString := func(name string, target *string, value string) {
		if changed(name) {
			*target = value
		}
	}
	setInt := func(name string, target *int, value int) {
		if changed(name) {
			*target = value
		}
	}

	setString("music-library", &cfg.MusicLibrary, flags.musicLibrary)
	setString("output-dir", &cfg.OutputDir, flags.outputDir)
	setString("yt-dlp-path", &cfg.YtDlpPath, flags.ytDlpPath)
	setString("ffmpeg-path", &cfg.FFmpegPath, flags.ffmpegPath)
	setString("whisper-path", &cfg.WhisperPath, flags.whisperPath)
	setString("video-quality", &cfg.VideoQuality, flags.videoQuality)
	setInt("search-results", &cfg.SearchResults, flags.searchResults)
	setInt("search-timeout", &cfg.SearchTimeoutSeconds, flags.searchTimeout)
	setInt("download-timeout", &cfg.DownloadTimeoutSeconds, flags.downloadTimeout)
	setString("transcribe-model-size", &cfg.Transcribe.ModelSize, flags.modelSize)
	setString("transcribe-model-dir", &cfg.Transcribe.ModelDir, flags.modelDir)
	setString("transcribe-language", &cfg.Transcribe.Language, flags.language)
	setInt("transcribe-beam-size", &cfg.Transcribe.BeamSize, flags.beamSize)
	if changed("transcribe-device") {
		device := strings.ToLower(strings.TrimSpace(flags.device))
		if device == config.DeviceAuto {
			device = config.DefaultDevice()
		}
		cfg.Transcribe.Device = device
		if !changed("transcribe-compute-type") {
			cfg.Transcribe.ComputeType = config.DefaultComputeType(device)
		}
	}
	setString("transcribe-compute-type", &cfg.Transcribe.ComputeType, flags.computeType)
	if changed("transcribe-vad") {
		cfg.Transcribe.VAD = flags.vad
	}
}

func resolveRunPaths(cfg config.Config) (string, string, error) {
	if cfg.MusicLibrary == "" {
		return "", "", withExitCode(exitcode.InvalidUsage, errors.New("music library is required (--music-library or music_library in config)"))
	}
	if cfg.OutputDir == "" {
		return "", "", withExitCode(exitcode.InvalidUsage, errors.New("output directory is required (--output-dir or output_dir in config)"))
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", "", withExitCode(exitcode.RuntimeFailure, fmt.Errorf("resolve working directory: %w", err))
	}
	libraryDir, err := config.ResolvePath(wd, cfg.MusicLibrary)
	if err != nil {
		return "", "", withExitCode(exitcode.InvalidConfig, err)
	}
	outputDir, err := config.ResolvePath(wd, cfg.OutputDir)
	if err != nil {
		return "", "", withExitCode(exitcode.InvalidConfig, err)
	}

	info, err := os.Stat(libraryDir)
	if err != nil || !info.IsDir() {
		return "", "", withExitCode(exitcode.InvalidUsage, fmt.Errorf("music library directory not found: %s", libraryDir))
	}
	return libraryDir, outputDir, nil
}

func buildEmitter(app *AppContext, eventsLog string) (output.EventEmitter, func(), error) {
	var primary output.EventEmitter
	if app.Opts.JSON {
		primary = output.NewJSONEmitter(app.IO.Out)
	} else {
		primary = output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, app.Opts.Quiet, app.Opts.Verbose)
	}
	if eventsLog == "" {
		return primary, func() {}, nil
	}

	file, err := os.OpenFile(eventsLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open events log: %w", err)
	}
	closeFn := func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Str("path", eventsLog).Msg("close events log")
		}
	}
	return output.NewMultiEmitter(primary, output.NewJSONEmitter(file)), closeFn, nil
}

func buildPipeline(app *AppContext, cfg config.Config, emitter output.EventEmitter) (*engine.Pipeline, bool) {
	runner := engine.NewSubprocessRunner(nil, nil, nil)

	var progress io.Writer
	switch {
	case app.Opts.Quiet:
		progress = io.Discard
	case app.Opts.Verbose || app.Opts.JSON:
		progress = app.IO.ErrOut
	default:
		progress = output.NewProgressWriter(app.IO.ErrOut)
	}

	downloader := ytdlp.New(runner, ytdlp.Options{
		Binary:          cfg.YtDlpPath,
		Format:          cfg.VideoQuality,
		SearchTimeout:   time.Duration(cfg.SearchTimeoutSeconds) * time.Second,
		DownloadTimeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		Progress:        progress,
	})
	finder := video.NewFinder(downloader, cfg.SearchResults)
	scanner := library.NewScanner(library.NewParser())
	tagger := metadata.NewTransferer(metadata.NewFFmpegWriter(runner, cfg.FFmpegPath))
	transcriber := transcribe.NewWhisperTranscriber(runner, transcribe.Options{
		Binary:      cfg.WhisperPath,
		Model:       cfg.Transcribe.ModelSize,
		ModelDir:    cfg.Transcribe.ModelDir,
		Device:      cfg.Transcribe.Device,
		ComputeType: cfg.Transcribe.ComputeType,
		Language:    cfg.Transcribe.Language,
		BeamWidth:   cfg.Transcribe.BeamSize,
		VADFilter:   cfg.Transcribe.VAD,
	})

	pipeline := engine.NewPipeline(scanner, finder, downloader, tagger, transcriber, emitter)
	return pipeline, transcriber.Available()
}
