package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jaa/mvpipe/internal/engine"
	"github.com/jaa/mvpipe/internal/fileops"
	"github.com/jaa/mvpipe/internal/mediafile"
	"github.com/jaa/mvpipe/internal/video"
)

const (
	DefaultBinary          = "yt-dlp"
	DefaultSearchTimeout   = 60 * time.Second
	DefaultDownloadTimeout = 600 * time.Second
	DefaultFormat          = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/bestvideo[height<=1080]+bestaudio/best[height<=1080]"

	searchMatchFilter = "!is_live & duration > 60 & duration < 1200"
	watchURLPrefix    = "https://www.youtube.com/watch?v="
)

var ErrNotFound = errors.New("downloaded file not found")

type Options struct {
	Binary          string
	Format          string
	SearchTimeout   time.Duration
	DownloadTimeout time.Duration
	// Progress receives the downloader's console output during downloads.
	Progress io.Writer
}

type Adapter struct {
	runner engine.ExecRunner
	opts   Options
}

func New(runner engine.ExecRunner, opts Options) *Adapter {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = DefaultBinary
	}
	if strings.TrimSpace(opts.Format) == "" {
		opts.Format = DefaultFormat
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Adapter{runner: runner, opts: opts}
}

func (a *Adapter) Binary() string {
	return a.opts.Binary
}

func (a *Adapter) BuildSearchSpec(query string, limit int) engine.ExecSpec {
	if limit <= 0 {
		limit = video.DefaultSearchLimit
	}
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--match-filter", searchMatchFilter,
		"--ignore-errors",
		"--no-warnings",
		"--extractor-args", "youtube:player_client=web",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	}
	return engine.ExecSpec{
		Bin:            a.opts.Binary,
		Args:           args,
		Timeout:        a.opts.SearchTimeout,
		DisplayCommand: formatCommand(a.opts.Binary, args),
	}
}

func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]video.SearchResult, error) {
	spec := a.BuildSearchSpec(query, limit)
	var stdout bytes.Buffer
	spec.Stdout = &stdout

	result := a.runner.Run(ctx, spec)
	if result.ExitCode != 0 || result.Interrupted || result.TimedOut {
		log.Error().Str("query", query).Int("exit_code", result.ExitCode).Str("stderr", result.StderrTail).Msg("search command failed")
		return nil, fmt.Errorf("search %q: %s", query, result.Describe())
	}

	results, err := ParseSearchOutput(&stdout)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return results, nil
}

// ParseSearchOutput decodes newline-delimited JSON records. Blank lines are
// ignored; any malformed record fails the whole search.
func ParseSearchOutput(r io.Reader) ([]video.SearchResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	results := []video.SearchResult{}
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var result video.SearchResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode search result on line %d: %w", line, err)
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read search output: %w", err)
	}
	return results, nil
}

// FilePrefix is the name prefix shared by every file a download of artist
// and title produces, whatever extension the downloader picks.
func FilePrefix(artist, title string) string {
	return fileops.SanitizeFilename(artist) + " - " + fileops.SanitizeFilename(title) + "."
}

func (a *Adapter) BuildDownloadSpec(videoID, artist, title, outputDir string) engine.ExecSpec {
	template := filepath.Join(outputDir, FilePrefix(artist, title)+"%(ext)s")
	args := []string{
		"-f", a.opts.Format,
		"-o", template,
		"--no-warnings",
		"--ignore-errors",
		"--force-overwrites",
		"--no-part",
		"--concurrent-fragments", strconv.Itoa(4),
		"--",
		watchURLPrefix + videoID,
	}
	return engine.ExecSpec{
		Bin:            a.opts.Binary,
		Args:           args,
		Dir:            outputDir,
		Timeout:        a.opts.DownloadTimeout,
		DisplayCommand: formatCommand(a.opts.Binary, args),
		Stdout:         a.opts.Progress,
		Stderr:         a.opts.Progress,
	}
}

func (a *Adapter) Download(ctx context.Context, videoID, artist, title, outputDir string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", errors.New("missing video id")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	spec := a.BuildDownloadSpec(videoID, artist, title, outputDir)
	result := a.runner.Run(ctx, spec)
	if result.ExitCode != 0 || result.Interrupted || result.TimedOut {
		log.Error().Str("video_id", videoID).Int("exit_code", result.ExitCode).Str("stderr", result.StderrTail).Msg("download command failed")
		return "", fmt.Errorf("download %s: %s", videoID, result.Describe())
	}

	path, ok, err := fileops.FindByPrefix(outputDir, FilePrefix(artist, title), mediafile.IsVideo)
	if err != nil {
		return "", fmt.Errorf("list output directory: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("download %s: %w", videoID, ErrNotFound)
	}
	log.Debug().Str("video_id", videoID).Str("path", path).Dur("duration", result.Duration).Msg("download finished")
	return path, nil
}

func formatCommand(bin string, args []string) string {
	parts := []string{bin}
	for _, arg := range args {
		if strings.ContainsAny(arg, " &<>|[]") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
