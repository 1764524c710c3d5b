package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/jaa/mvpipe/internal/engine"
	"github.com/jaa/mvpipe/internal/fileops"
)

const DefaultFFmpegTimeout = 5 * time.Minute

// FFmpegWriter remuxes the video with stream copy into a sibling temp file
// carrying the new tags, then swaps it in place.
type FFmpegWriter struct {
	Runner  engine.ExecRunner
	Binary  string
	Timeout time.Duration
}

func NewFFmpegWriter(runner engine.ExecRunner, binary string) *FFmpegWriter {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegWriter{Runner: runner, Binary: binary, Timeout: DefaultFFmpegTimeout}
}

func TempPath(videoPath string) string {
	return filepath.Join(filepath.Dir(videoPath), ".tmp-"+filepath.Base(videoPath))
}

// BuildArgs returns the ffmpeg argument list for retagging videoPath into
// tempPath.
func BuildArgs(videoPath, tempPath string, set TagSet) []string {
	kwargs := ffmpeg.KwArgs{
		"map": "0",
		"c":   "copy",
	}
	if metadata := set.MetadataArgs(); len(metadata) > 0 {
		kwargs["metadata"] = metadata
	}
	return ffmpeg.Input(videoPath).
		Output(tempPath, kwargs).
		OverWriteOutput().
		GetArgs()
}

func (w *FFmpegWriter) Write(ctx context.Context, videoPath string, set TagSet) error {
	tempPath := TempPath(videoPath)
	args := BuildArgs(videoPath, tempPath, set)
	result := w.Runner.Run(ctx, engine.ExecSpec{
		Bin:            w.Binary,
		Args:           append([]string{"-hide_banner", "-loglevel", "error"}, args...),
		Dir:            filepath.Dir(videoPath),
		Timeout:        w.Timeout,
		DisplayCommand: w.Binary + " " + strings.Join(args, " "),
	})
	if result.ExitCode != 0 || result.Interrupted || result.TimedOut {
		_ = os.Remove(tempPath)
		return fmt.Errorf("ffmpeg: %s", result.Describe())
	}
	if err := fileops.ReplaceFileSafely(tempPath, videoPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}
