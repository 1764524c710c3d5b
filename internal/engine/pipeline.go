package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/fileops"
	"github.com/jaa/mvpipe/internal/library"
	"github.com/jaa/mvpipe/internal/mediafile"
	"github.com/jaa/mvpipe/internal/output"
)

var ErrInterrupted = errors.New("run interrupted")

// downloaderArtifactSuffixes are the partial files the downloader may leave
// behind when it fails mid-transfer.
var downloaderArtifactSuffixes = []string{".part", ".ytdl", ".temp"}

type Pipeline struct {
	Scanner     LibraryScanner
	Finder      VideoFinder
	Downloader  VideoDownloader
	Tagger      MetadataTagger
	Transcriber Transcriber
	Emitter     output.EventEmitter
	Now         func() time.Time
	NewRunID    func() string
}

func NewPipeline(scanner LibraryScanner, finder VideoFinder, downloader VideoDownloader, tagger MetadataTagger, transcriber Transcriber, emitter output.EventEmitter) *Pipeline {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Pipeline{
		Scanner:     scanner,
		Finder:      finder,
		Downloader:  downloader,
		Tagger:      tagger,
		Transcriber: transcriber,
		Emitter:     emitter,
		Now:         time.Now,
		NewRunID:    func() string { return uuid.NewString() },
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

type songRun struct {
	*Pipeline
	runID string
	song  string
}

func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunSummary, error) {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewRunID == nil {
		p.NewRunID = func() string { return uuid.NewString() }
	}
	summary := RunSummary{RunID: p.NewRunID()}
	run := songRun{Pipeline: p, runID: summary.RunID}

	run.emit(output.LevelInfo, output.EventRunStarted, fmt.Sprintf("scanning %s", opts.LibraryDir), map[string]any{
		"library_dir": opts.LibraryDir,
		"output_dir":  opts.OutputDir,
	})

	entries, err := p.Scanner.Scan(ctx, opts.LibraryDir)
	if err != nil {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return summary, ErrInterrupted
		}
		return summary, fmt.Errorf("scan library: %w", err)
	}
	summary.TotalFound = len(entries)
	run.emit(output.LevelDebug, output.EventScanFinished, fmt.Sprintf("found %d audio file(s)", len(entries)), map[string]any{
		"total": len(entries),
	})

	if len(entries) == 0 {
		run.emit(output.LevelWarn, output.EventRunFinished, "no audio files found", summary.details())
		return summary, nil
	}

	for i, entry := range entries {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		song := run.forSong(entry)
		song.emit(output.LevelInfo, output.EventSongStarted, fmt.Sprintf("[%d/%d] %s", i+1, len(entries), song.song), map[string]any{
			"path": entry.Path,
		})
		outcome := song.process(ctx, entry, opts)
		summary.Merge(outcome)
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
	}

	if summary.Interrupted {
		run.emit(output.LevelError, output.EventRunFinished, "run interrupted", summary.details())
		return summary, ErrInterrupted
	}

	run.emit(output.LevelInfo, output.EventRunFinished, fmt.Sprintf(
		"run finished: attempted=%d succeeded=%d skipped=%d",
		summary.Attempted, summary.Succeeded, summary.SkippedMissingTags,
	), summary.details())
	return summary, nil
}

func (r songRun) forSong(entry library.Entry) songRun {
	name := filepath.Base(entry.Path)
	if entry.Complete() {
		name = entry.Artist + " - " + entry.Title
	}
	return songRun{Pipeline: r.Pipeline, runID: r.runID, song: name}
}

func (r songRun) process(ctx context.Context, entry library.Entry, opts RunOptions) SongOutcome {
	outcome := SongOutcome{Path: entry.Path}
	if !entry.Complete() {
		outcome.Skipped = true
		r.emit(output.LevelWarn, output.EventSongSkipped, fmt.Sprintf("skipping %s: missing artist or title", filepath.Base(entry.Path)), map[string]any{
			"path": entry.Path,
		})
		return outcome
	}

	songDir := filepath.Join(opts.OutputDir, fileops.SanitizeFilename(entry.Artist)+" - "+fileops.SanitizeFilename(entry.Title))
	if err := os.MkdirAll(songDir, 0o755); err != nil {
		outcome.OutputDirError = true
		r.emit(output.LevelError, output.EventSongSkipped, fmt.Sprintf("cannot create output directory: %v", err), map[string]any{
			"dir": songDir,
		})
		return outcome
	}

	videoPath := r.fetchVideo(ctx, entry, songDir, &outcome)
	if ctx.Err() != nil {
		return outcome
	}

	if videoPath != "" {
		r.transferMetadata(ctx, entry.Path, videoPath, &outcome)
	}

	if !opts.TranscriptionDisabled && r.Transcriber != nil {
		if videoPath != "" {
			if paths, ok := r.transcribe(ctx, videoPath, songDir, "", "video"); ok {
				outcome.VideoTranscribed = true
				outcome.Outputs = append(outcome.Outputs, paths...)
			} else {
				outcome.TranscriptionErrored = true
			}
		}
		if ctx.Err() == nil {
			if paths, ok := r.transcribe(ctx, entry.Path, songDir, audioTranscriptStem(entry.Path, filepath.Base(songDir)), "audio"); ok {
				outcome.AudioTranscribed = true
				outcome.Outputs = append(outcome.Outputs, paths...)
			} else {
				outcome.TranscriptionErrored = true
			}
		}
	}

	level := output.LevelInfo
	if !outcome.Succeeded() {
		level = output.LevelWarn
	}
	r.emit(level, output.EventSongFinished, fmt.Sprintf("finished %s (%d output(s))", r.song, len(outcome.Outputs)), map[string]any{
		"outputs":       outcome.Outputs,
		"downloaded":    outcome.VideoDownloaded,
		"metadata":      outcome.MetadataTransferred,
		"transcription": !outcome.TranscriptionErrored,
	})
	return outcome
}

func (r songRun) fetchVideo(ctx context.Context, entry library.Entry, songDir string, outcome *SongOutcome) string {
	outcome.Searched = true
	videoID, ok := r.Finder.Find(ctx, entry.Artist, entry.Title)
	if !ok {
		r.emit(output.LevelWarn, output.EventVideoMissing, fmt.Sprintf("no suitable video for %s", r.song), nil)
		return ""
	}
	outcome.VideoSelected = true
	r.emit(output.LevelInfo, output.EventVideoSelected, fmt.Sprintf("selected video %s", videoID), map[string]any{
		"video_id": videoID,
	})

	preArtifacts, err := snapshotArtifacts(songDir, downloaderArtifactSuffixes)
	if err != nil {
		log.Warn().Err(err).Str("dir", songDir).Msg("unable to snapshot artifacts before download")
	}

	videoPath, err := r.Downloader.Download(ctx, videoID, entry.Artist, entry.Title, songDir)
	if err != nil {
		outcome.DownloadFailed = true
		r.cleanupArtifactsOnFailure(songDir, preArtifacts)
		r.emit(output.LevelError, output.EventDownloadFailed, fmt.Sprintf("download failed for %s: %v", videoID, err), map[string]any{
			"video_id": videoID,
		})
		return ""
	}

	outcome.VideoDownloaded = true
	outcome.Outputs = append(outcome.Outputs, videoPath)
	r.emit(output.LevelInfo, output.EventDownloadFinished, fmt.Sprintf("downloaded %s", filepath.Base(videoPath)), map[string]any{
		"video_id": videoID,
		"path":     videoPath,
	})
	return videoPath
}

func (r songRun) transferMetadata(ctx context.Context, audioPath, videoPath string, outcome *SongOutcome) {
	if r.Tagger == nil {
		return
	}
	written, err := r.Tagger.Transfer(ctx, audioPath, videoPath)
	if err != nil || written == 0 {
		message := "no metadata to transfer"
		if err != nil {
			message = fmt.Sprintf("metadata transfer failed: %v", err)
		}
		r.emit(output.LevelWarn, output.EventMetadataSkipped, message, map[string]any{
			"path": videoPath,
		})
		return
	}
	outcome.MetadataTransferred = true
	r.emit(output.LevelInfo, output.EventMetadataTransferred, fmt.Sprintf("transferred %d metadata field(s)", written), map[string]any{
		"fields": written,
		"path":   videoPath,
	})
}

// audioTranscriptStem returns "<base>.audio" when the audio file shares the
// video's base name (the song directory name), ignoring case. Otherwise the
// transcriber's default applies.
func audioTranscriptStem(audioPath, videoStem string) string {
	stem := mediafile.BaseName(audioPath)
	if strings.EqualFold(stem, videoStem) {
		return stem + ".audio"
	}
	return ""
}

func (r songRun) transcribe(ctx context.Context, mediaPath, outputDir, stem, kind string) ([]string, bool) {
	files, err := r.Transcriber.Transcribe(ctx, mediaPath, outputDir, stem)
	if err != nil {
		r.emit(output.LevelError, output.EventTranscriptionFailed, fmt.Sprintf("%s transcription failed: %v", kind, err), map[string]any{
			"path": mediaPath,
			"kind": kind,
		})
		return nil, false
	}
	formats := make([]string, 0, len(files))
	paths := make([]string, 0, len(files))
	for format, path := range files {
		formats = append(formats, format)
		paths = append(paths, path)
	}
	slices.Sort(formats)
	slices.Sort(paths)
	r.emit(output.LevelInfo, output.EventTranscriptionFinished, fmt.Sprintf("%s transcribed (%s)", kind, strings.Join(formats, ", ")), map[string]any{
		"path":    mediaPath,
		"kind":    kind,
		"outputs": paths,
	})
	return paths, len(paths) > 0
}

func (r songRun) emit(level output.Level, name output.EventName, message string, details map[string]any) {
	_ = r.Emitter.Emit(output.Event{
		Timestamp: r.Now(),
		Level:     level,
		Event:     name,
		RunID:     r.runID,
		Song:      r.song,
		Message:   message,
		Details:   details,
	})
}

func snapshotArtifacts(dir string, suffixes []string) (map[string]struct{}, error) {
	seen := map[string]struct{}{}
	if len(suffixes) == 0 {
		return seen, nil
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seen, nil
		}
		return nil, err
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				seen[path] = struct{}{}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}

func cleanupNewArtifacts(dir string, baseline map[string]struct{}, suffixes []string) ([]string, error) {
	current, err := snapshotArtifacts(dir, suffixes)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0)
	for path := range current {
		if _, existed := baseline[path]; existed {
			continue
		}
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return removed, removeErr
		}
		removed = append(removed, path)
	}
	slices.Sort(removed)
	return removed, nil
}

func (r songRun) cleanupArtifactsOnFailure(dir string, preArtifacts map[string]struct{}) {
	removed, err := cleanupNewArtifacts(dir, preArtifacts, downloaderArtifactSuffixes)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("artifact cleanup failed")
		return
	}
	if len(removed) == 0 {
		return
	}
	log.Info().Strs("removed", removed).Msg("cleaned partial download artifacts")
}
