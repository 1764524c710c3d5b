package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/jaa/mvpipe/internal/exitcode"
)

type runFixture struct {
	library string
	output  string
	ytDlp   string
}

func newRunFixture(t *testing.T) runFixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are not supported on windows")
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))

	tmp := t.TempDir()
	library := filepath.Join(tmp, "music")
	if err := os.MkdirAll(filepath.Join(library, "Album"), 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	for _, name := range []string{"Album/Artist - Song.mp3", "Unknown Track.mp3", "cover.jpg"} {
		if err := os.WriteFile(filepath.Join(library, name), []byte{}, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// The fake downloader finds nothing, so every song ends as "no video".
	ytDlp := filepath.Join(tmp, "yt-dlp")
	if err := os.WriteFile(ytDlp, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}

	return runFixture{
		library: library,
		output:  filepath.Join(tmp, "videos"),
		ytDlp:   ytDlp,
	}
}

func (f runFixture) args(extra ...string) []string {
	args := []string{
		"run",
		"--music-library", f.library,
		"--output-dir", f.output,
		"--yt-dlp-path", f.ytDlp,
		"--whisper-path", filepath.Join(f.output, "missing-whisper"),
		"--transcribe-device", "cpu",
	}
	return append(args, extra...)
}

func newTestApp() (*AppContext, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	app := &AppContext{
		Build: BuildInfo{Version: "test"},
		IO:    IOStreams{In: strings.NewReader(""), Out: stdout, ErrOut: stderr},
	}
	return app, stdout, stderr
}

func TestRunProcessesLibraryAndPrintsSummary(t *testing.T) {
	fixture := newRunFixture(t)
	app, stdout, _ := newTestApp()

	root := newRootCommand(app)
	root.SetArgs(fixture.args("--no-color"))
	if err := root.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "Processing Summary") {
		t.Fatalf("expected summary table, got: %s", out)
	}
	if _, err := os.Stat(filepath.Join(fixture.output, "Artist - Song")); err != nil {
		t.Fatalf("expected per-song output directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fixture.output, lockFileName)); err != nil {
		t.Fatalf("expected lock file in output root: %v", err)
	}
}

func TestRunJSONOutputEndsWithRunFinished(t *testing.T) {
	fixture := newRunFixture(t)
	app, stdout, _ := newTestApp()

	root := newRootCommand(app)
	root.SetArgs(append(fixture.args(), "--json"))
	if err := root.Execute(); err != nil {
		t.Fatalf("run --json failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected multiple json events, got: %s", stdout.String())
	}
	last := map[string]any{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatalf("unmarshal last event: %v", err)
	}
	if last["event"] != "run_finished" {
		t.Fatalf("expected final event run_finished, got %v", last["event"])
	}
	details, _ := last["details"].(map[string]any)
	if details["total"] != float64(2) || details["skipped"] != float64(1) {
		t.Fatalf("unexpected run_finished details: %+v", details)
	}
}

func TestRunAcceptsSnakeCaseFlags(t *testing.T) {
	fixture := newRunFixture(t)
	app, _, _ := newTestApp()

	root := newRootCommand(app)
	root.SetArgs([]string{
		"run",
		"--music_library", fixture.library,
		"--output_dir", fixture.output,
		"--yt_dlp_path", fixture.ytDlp,
		"--whisper_path", filepath.Join(fixture.output, "missing-whisper"),
		"--transcribe_device", "cpu",
		"--quiet",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("run with snake_case flags failed: %v", err)
	}
}

func TestRunRequiresMusicLibrary(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))
	t.Setenv("MVPIPE_MUSIC_LIBRARY", "")
	app, _, _ := newTestApp()

	root := newRootCommand(app)
	root.SetArgs([]string{"run", "--output-dir", t.TempDir()})
	err := root.Execute()
	if err == nil {
		t.Fatalf("expected missing library error")
	}
	if got := mapExitCode(err); got != exitcode.InvalidUsage {
		t.Fatalf("expected invalid usage exit code, got %d (%v)", got, err)
	}
}

func TestRunRejectsMissingLibraryDirectory(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))
	app, _, _ := newTestApp()

	root := newRootCommand(app)
	root.SetArgs([]string{"run", "--music-library", filepath.Join(t.TempDir(), "nope"), "--output-dir", t.TempDir()})
	err := root.Execute()
	if got := mapExitCode(err); got != exitcode.InvalidUsage {
		t.Fatalf("expected invalid usage exit code, got %d (%v)", got, err)
	}
}

func TestRunRefusesLockedOutputDirectory(t *testing.T) {
	fixture := newRunFixture(t)
	if err := os.MkdirAll(fixture.output, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	held := flock.New(filepath.Join(fixture.output, lockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-lock output: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	app, _, _ := newTestApp()
	root := newRootCommand(app)
	root.SetArgs(fixture.args())
	err = root.Execute()
	if err == nil {
		t.Fatalf("expected lock contention error")
	}
	var coded *ExitError
	if !errors.As(err, &coded) || coded.Code != exitcode.RuntimeFailure {
		t.Fatalf("expected runtime failure, got %v", err)
	}
}

func TestRunRejectsInvalidLogFormat(t *testing.T) {
	app, _, _ := newTestApp()
	root := newRootCommand(app)
	root.SetArgs([]string{"version", "--log-format", "xml"})
	err := root.Execute()
	if got := mapExitCode(err); got != exitcode.InvalidUsage {
		t.Fatalf("expected invalid usage, got %d (%v)", got, err)
	}
}
