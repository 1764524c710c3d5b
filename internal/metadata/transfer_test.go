package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jaa/mvpipe/internal/engine"
	"github.com/jaa/mvpipe/internal/tags"
)

type recordingWriter struct {
	calls int
	set   TagSet
	err   error
}

func (w *recordingWriter) Write(ctx context.Context, videoPath string, set TagSet) error {
	w.calls++
	w.set = set
	return w.err
}

func writeMedia(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestTransferWritesOnce(t *testing.T) {
	paths := writeMedia(t, t.TempDir(), "song.flac", "clip.mp4")
	writer := &recordingWriter{}
	transferer := &Transferer{
		OpenTags: func(string) (tags.Reader, error) {
			return fakeReader{tags.FieldArtist: "A", tags.FieldTitle: "T", tags.FieldGenre: "Rock"}, nil
		},
		Writer: writer,
	}

	written, err := transferer.Transfer(context.Background(), paths[0], paths[1])
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if written != 3 || writer.calls != 1 {
		t.Fatalf("expected 3 fields in one write, got %d fields / %d writes", written, writer.calls)
	}
	if writer.set.Text[tags.FieldGenre] != "Rock" {
		t.Fatalf("unexpected written set %+v", writer.set)
	}
}

func TestTransferWithoutTagsWritesNothing(t *testing.T) {
	paths := writeMedia(t, t.TempDir(), "song.flac", "clip.mp4")
	writer := &recordingWriter{}
	transferer := &Transferer{
		OpenTags: func(string) (tags.Reader, error) { return fakeReader{}, nil },
		Writer:   writer,
	}
	written, err := transferer.Transfer(context.Background(), paths[0], paths[1])
	if !errors.Is(err, ErrNoTags) || written != 0 {
		t.Fatalf("expected ErrNoTags, got %d %v", written, err)
	}
	if writer.calls != 0 {
		t.Fatalf("expected no write")
	}
}

func TestTransferRequiresBothFiles(t *testing.T) {
	dir := t.TempDir()
	paths := writeMedia(t, dir, "song.flac")
	transferer := &Transferer{Writer: &recordingWriter{}}
	if _, err := transferer.Transfer(context.Background(), paths[0], filepath.Join(dir, "missing.mp4")); err == nil {
		t.Fatalf("expected error for missing video")
	}
}

type fakeRunner struct {
	spec   engine.ExecSpec
	result engine.ExecResult
	create bool
}

func (f *fakeRunner) Run(ctx context.Context, spec engine.ExecSpec) engine.ExecResult {
	f.spec = spec
	if f.create {
		idx := slices.IndexFunc(spec.Args, func(arg string) bool {
			return strings.HasPrefix(filepath.Base(arg), ".tmp-")
		})
		if idx >= 0 {
			_ = os.WriteFile(spec.Args[idx], []byte("retagged"), 0o644)
		}
	}
	return f.result
}

func TestBuildArgsUsesStreamCopyAndRepeatsMetadata(t *testing.T) {
	set := TagSet{Text: map[tags.Field]string{tags.FieldArtist: "A", tags.FieldTitle: "T"}}
	args := BuildArgs("in.mp4", ".tmp-in.mp4", set)
	joined := strings.Join(args, " ")
	for _, want := range []string{"-i in.mp4", "-c copy", "-map 0", "-metadata artist=A", "-metadata title=T", ".tmp-in.mp4", "-y"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %v", want, args)
		}
	}
}

func TestFFmpegWriterReplacesVideo(t *testing.T) {
	paths := writeMedia(t, t.TempDir(), "clip.mp4")
	runner := &fakeRunner{create: true}
	writer := NewFFmpegWriter(runner, "/usr/bin/ffmpeg")

	set := TagSet{Text: map[tags.Field]string{tags.FieldArtist: "A"}}
	if err := writer.Write(context.Background(), paths[0], set); err != nil {
		t.Fatalf("write: %v", err)
	}
	payload, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(payload) != "retagged" {
		t.Fatalf("expected retagged video, got %q", payload)
	}
	if runner.spec.Bin != "/usr/bin/ffmpeg" {
		t.Fatalf("unexpected binary %q", runner.spec.Bin)
	}
	if _, err := os.Stat(TempPath(paths[0])); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file to be gone, stat err: %v", err)
	}
}

func TestFFmpegWriterKeepsOriginalOnFailure(t *testing.T) {
	paths := writeMedia(t, t.TempDir(), "clip.mp4")
	runner := &fakeRunner{create: true, result: engine.ExecResult{ExitCode: 1, StderrTail: "Invalid data"}}
	writer := NewFFmpegWriter(runner, "")

	if err := writer.Write(context.Background(), paths[0], TagSet{Text: map[tags.Field]string{tags.FieldArtist: "A"}}); err == nil {
		t.Fatalf("expected ffmpeg failure")
	}
	payload, _ := os.ReadFile(paths[0])
	if string(payload) != "clip.mp4" {
		t.Fatalf("expected original video to be untouched, got %q", payload)
	}
	if _, err := os.Stat(TempPath(paths[0])); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file cleanup, stat err: %v", err)
	}
	if runner.spec.Bin != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", runner.spec.Bin)
	}
}
