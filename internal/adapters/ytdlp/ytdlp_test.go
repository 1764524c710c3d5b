package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaa/mvpipe/internal/engine"
)

type fakeRunner struct {
	specs  []engine.ExecSpec
	stdout string
	result engine.ExecResult
	onRun  func(spec engine.ExecSpec)
}

func (f *fakeRunner) Run(ctx context.Context, spec engine.ExecSpec) engine.ExecResult {
	f.specs = append(f.specs, spec)
	if spec.Stdout != nil && f.stdout != "" {
		_, _ = spec.Stdout.Write([]byte(f.stdout))
	}
	if f.onRun != nil {
		f.onRun(spec)
	}
	return f.result
}

func TestBuildSearchSpecUsesSearchFlags(t *testing.T) {
	adapter := New(&fakeRunner{}, Options{})
	spec := adapter.BuildSearchSpec("Band - Song official music video", 5)

	joined := strings.Join(spec.Args, " ")
	for _, want := range []string{
		"--dump-json",
		"--no-playlist",
		"--match-filter !is_live & duration > 60 & duration < 1200",
		"--extractor-args youtube:player_client=web",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args %v", want, spec.Args)
		}
	}
	if last := spec.Args[len(spec.Args)-1]; last != "ytsearch5:Band - Song official music video" {
		t.Fatalf("unexpected search target %q", last)
	}
	if spec.Timeout != DefaultSearchTimeout || spec.Bin != "yt-dlp" {
		t.Fatalf("unexpected defaults bin=%s timeout=%s", spec.Bin, spec.Timeout)
	}
}

func TestSearchParsesJSONLines(t *testing.T) {
	runner := &fakeRunner{stdout: `{"id":"a1","title":"Song (Official Video)","channel":"BandVEVO","uploader_id":"@bandvevo","channel_is_verified":true,"duration":215}

{"id":"b2","title":"Song lyrics","uploader":"Lyrics Hub","duration":210.5}
`}
	adapter := New(runner, Options{Binary: "/opt/yt-dlp", SearchTimeout: 5 * time.Second})
	results, err := adapter.Search(context.Background(), "Band - Song", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a1" || !results[0].Verified || results[0].ChannelName() != "BandVEVO" {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].ChannelName() != "Lyrics Hub" {
		t.Fatalf("expected uploader fallback, got %q", results[1].ChannelName())
	}
	if runner.specs[0].Bin != "/opt/yt-dlp" || runner.specs[0].Timeout != 5*time.Second {
		t.Fatalf("unexpected spec %+v", runner.specs[0])
	}
}

func TestSearchFailsOnNonZeroExitOrBadJSON(t *testing.T) {
	adapter := New(&fakeRunner{result: engine.ExecResult{ExitCode: 1, StderrTail: "ERROR: boom"}}, Options{})
	if _, err := adapter.Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error on non-zero exit")
	}

	adapter = New(&fakeRunner{stdout: "{\"id\":\"ok\"}\nnot-json\n"}, Options{})
	if _, err := adapter.Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error on malformed line")
	}

	adapter = New(&fakeRunner{result: engine.ExecResult{ExitCode: -1, TimedOut: true}}, Options{})
	if _, err := adapter.Search(context.Background(), "q", 5); err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestDownloadLocatesFileBySanitizedPrefix(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "AC-DC - Song")
	runner := &fakeRunner{onRun: func(spec engine.ExecSpec) {
		_ = os.WriteFile(filepath.Join(spec.Dir, "ACDC - Back In Black.srt"), []byte("old"), 0o644)
		_ = os.WriteFile(filepath.Join(spec.Dir, "ACDC - Back In Black.mp4"), []byte("video"), 0o644)
	}}
	adapter := New(runner, Options{Format: "best"})

	path, err := adapter.Download(context.Background(), "xyz", "AC/DC", "Back In Black?", outputDir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "ACDC - Back In Black.mp4" {
		t.Fatalf("unexpected path %q", path)
	}

	spec := runner.specs[0]
	wantTemplate := filepath.Join(outputDir, "ACDC - Back In Black.%(ext)s")
	joined := strings.Join(spec.Args, " ")
	for _, want := range []string{"-f best", "-o " + wantTemplate, "--force-overwrites", "--no-part", "--concurrent-fragments 4", "-- https://www.youtube.com/watch?v=xyz"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args %v", want, spec.Args)
		}
	}
	if spec.Timeout != DefaultDownloadTimeout {
		t.Fatalf("unexpected timeout %s", spec.Timeout)
	}
}

func TestDownloadReportsMissingFile(t *testing.T) {
	adapter := New(&fakeRunner{}, Options{})
	_, err := adapter.Download(context.Background(), "xyz", "Band", "Song", t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownloadRejectsEmptyIDAndFailures(t *testing.T) {
	runner := &fakeRunner{result: engine.ExecResult{ExitCode: 1}}
	adapter := New(runner, Options{})
	if _, err := adapter.Download(context.Background(), "", "Band", "Song", t.TempDir()); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if len(runner.specs) != 0 {
		t.Fatalf("expected no command for empty id")
	}
	_, err := adapter.Download(context.Background(), "xyz", "Band", "Song", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), fmt.Sprintf("exit code %d", 1)) {
		t.Fatalf("expected exit code error, got %v", err)
	}
}
