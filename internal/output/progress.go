package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

var (
	downloadPercentPattern     = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)
	downloadDestinationPattern = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	mergerDestinationPattern   = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	alreadyDownloadedPattern   = regexp.MustCompile(`^\[download\] (.+) has already been downloaded$`)
)

type ProgressOptions struct {
	Interactive bool
}

// ProgressWriter condenses the downloader's console output into one status
// line per video. On terminals the status is redrawn in place.
type ProgressWriter struct {
	dst         io.Writer
	interactive bool

	mu         sync.Mutex
	buf        []byte
	activeLine string
	video      videoState
}

type videoState struct {
	Name      string
	Percent   string
	Merged    bool
	Completed bool
	Existing  bool
}

func NewProgressWriter(dst io.Writer) *ProgressWriter {
	return NewProgressWriterWithOptions(dst, ProgressOptions{
		Interactive: IsTerminal(dst),
	})
}

func NewProgressWriterWithOptions(dst io.Writer, opts ProgressOptions) *ProgressWriter {
	return &ProgressWriter{
		dst:         dst,
		interactive: opts.Interactive,
		buf:         make([]byte, 0, 256),
	}
}

func IsTerminal(dst io.Writer) bool {
	file, ok := dst.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (w *ProgressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		switch b {
		case '\n', '\r':
			if err := w.flushLineLocked(); err != nil {
				return 0, err
			}
		default:
			w.buf = append(w.buf, b)
		}
	}
	return len(p), nil
}

// Flush prints the result line of the current video and clears the status
// line. The subprocess runner calls it once the downloader exits.
func (w *ProgressWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.flushLineLocked(); err != nil {
		return err
	}
	if err := w.finalizeVideoLocked(); err != nil {
		return err
	}
	return w.clearActiveLineLocked()
}

func (w *ProgressWriter) flushLineLocked() error {
	if len(w.buf) == 0 {
		return nil
	}
	line := strings.TrimSpace(string(w.buf))
	w.buf = w.buf[:0]
	if line == "" {
		return nil
	}
	return w.handleLineLocked(line)
}

func (w *ProgressWriter) handleLineLocked(line string) error {
	if match := downloadDestinationPattern.FindStringSubmatch(line); len(match) == 2 {
		if w.video.Name == "" {
			w.video.Name = videoNameFromPath(match[1])
		}
		w.video.Percent = ""
		return w.renderStatusLocked("downloading")
	}

	if match := alreadyDownloadedPattern.FindStringSubmatch(line); len(match) == 2 {
		w.video.Name = videoNameFromPath(match[1])
		w.video.Existing = true
		w.video.Completed = true
		return w.renderStatusLocked("already present")
	}

	if match := mergerDestinationPattern.FindStringSubmatch(line); len(match) == 2 {
		w.video.Name = videoNameFromPath(match[1])
		w.video.Merged = true
		w.video.Completed = true
		return w.renderStatusLocked("merging")
	}

	if match := downloadPercentPattern.FindStringSubmatch(line); len(match) == 2 {
		w.video.Percent = match[1]
		if strings.HasPrefix(line, "[download] 100% of ") {
			w.video.Completed = true
		}
		return w.renderStatusLocked("downloading")
	}

	if looksLikeWarningOrError(line) {
		return w.printPersistentLocked(line)
	}
	return nil
}

func (w *ProgressWriter) renderStatusLocked(stage string) error {
	if w.video.Name == "" || !w.interactive {
		return nil
	}

	status := fmt.Sprintf("[in-progress] %s (%s", w.video.Name, stage)
	if w.video.Percent != "" && stage == "downloading" {
		status += " " + w.video.Percent + "%"
	}
	status += ")"

	if status == w.activeLine {
		return nil
	}
	w.activeLine = status
	_, err := fmt.Fprintf(w.dst, "\r\033[2K%s", status)
	return err
}

func (w *ProgressWriter) finalizeVideoLocked() error {
	if !w.video.Completed || strings.TrimSpace(w.video.Name) == "" {
		w.video = videoState{}
		return nil
	}

	line := "[done] " + w.video.Name
	switch {
	case w.video.Existing:
		line = "[skip] " + w.video.Name + " (already-present)"
	case w.video.Merged:
		line += " (merged)"
	}
	w.video = videoState{}
	return w.printPersistentLocked(line)
}

func (w *ProgressWriter) printPersistentLocked(line string) error {
	if err := w.clearActiveLineLocked(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w.dst, line)
	return err
}

func (w *ProgressWriter) clearActiveLineLocked() error {
	if !w.interactive || w.activeLine == "" {
		return nil
	}
	w.activeLine = ""
	_, err := fmt.Fprint(w.dst, "\r\033[2K")
	return err
}

func looksLikeWarningOrError(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "warning:") ||
		strings.HasPrefix(lower, "error:") ||
		strings.Contains(lower, "traceback")
}

func videoNameFromPath(pathLike string) string {
	trimmed := strings.Trim(strings.TrimSpace(pathLike), "\"")
	base := filepath.Base(trimmed)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
