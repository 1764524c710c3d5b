package engine

import (
	"context"
	"io"
	"time"

	"github.com/jaa/mvpipe/internal/library"
)

type ExecSpec struct {
	Bin            string
	Args           []string
	Dir            string
	Timeout        time.Duration
	DisplayCommand string
	// Stdout and Stderr receive the full streams in addition to the
	// runner-level writers and the tail buffers.
	Stdout io.Writer
	Stderr io.Writer
}

type ExecResult struct {
	ExitCode    int
	Duration    time.Duration
	Interrupted bool
	TimedOut    bool
	StdoutTail  string
	StderrTail  string
	Err         error
}

type LibraryScanner interface {
	Scan(ctx context.Context, root string) ([]library.Entry, error)
}

type VideoFinder interface {
	Find(ctx context.Context, artist, title string) (string, bool)
}

type VideoDownloader interface {
	Download(ctx context.Context, videoID, artist, title, outputDir string) (string, error)
}

type MetadataTagger interface {
	// Transfer copies tags from audioPath onto videoPath and reports how
	// many fields were written.
	Transfer(ctx context.Context, audioPath, videoPath string) (int, error)
}

type Transcriber interface {
	// Transcribe writes transcript files named <stem>.<format> into
	// outputDir and returns them keyed by format. An empty stem means the
	// media file's own base name.
	Transcribe(ctx context.Context, mediaPath, outputDir, stem string) (map[string]string, error)
}

type RunOptions struct {
	LibraryDir string
	OutputDir  string
	// TranscriptionDisabled skips both transcription steps, e.g. when the
	// speech-to-text runtime is unavailable.
	TranscriptionDisabled bool
}
