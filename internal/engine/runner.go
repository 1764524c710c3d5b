package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type ExecRunner interface {
	Run(ctx context.Context, spec ExecSpec) ExecResult
}

type SubprocessRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = 64 * 1024
	}
	return &tailBuffer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return len(p), nil
	}
	overflow := len(t.buf) + len(p) - t.max
	if overflow > 0 {
		t.buf = append(t.buf[:0], t.buf[overflow:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

type flushWriter interface {
	Flush() error
}

func NewSubprocessRunner(stdin io.Reader, stdout, stderr io.Writer) *SubprocessRunner {
	return &SubprocessRunner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

func (r *SubprocessRunner) Run(ctx context.Context, spec ExecSpec) ExecResult {
	start := time.Now()
	if spec.Bin == "" {
		return ExecResult{ExitCode: 1, Duration: time.Since(start), Err: errors.New("missing binary")}
	}

	runCtx := ctx
	cancel := func() {}
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = r.Stdin
	configureCommandForTermination(cmd)
	cmd.Cancel = func() error {
		terminateCommand(cmd)
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	stdoutTail := newTailBuffer(64 * 1024)
	stderrTail := newTailBuffer(64 * 1024)
	cmd.Stdout = joinWriters(stdoutTail, r.Stdout, spec.Stdout)
	cmd.Stderr = joinWriters(stderrTail, r.Stderr, spec.Stderr)

	log.Debug().Str("command", displayCommand(spec)).Dur("timeout", spec.Timeout).Msg("running subprocess")
	err := cmd.Run()
	for _, w := range []io.Writer{r.Stdout, r.Stderr, spec.Stdout, spec.Stderr} {
		flushWriterIfSupported(w)
	}
	result := ExecResult{
		Duration:   time.Since(start),
		StdoutTail: stdoutTail.String(),
		StderrTail: stderrTail.String(),
		Err:        err,
	}
	if err == nil {
		result.ExitCode = 0
		return result
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
	}
	if runCtx.Err() == context.Canceled {
		result.Interrupted = true
		result.ExitCode = 130
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result
	}

	if errors.Is(err, exec.ErrNotFound) {
		result.ExitCode = 127
		return result
	}

	result.ExitCode = 1
	return result
}

func joinWriters(tail io.Writer, extra ...io.Writer) io.Writer {
	writers := []io.Writer{tail}
	for _, w := range extra {
		if w != nil {
			writers = append(writers, w)
		}
	}
	if len(writers) == 1 {
		return tail
	}
	return io.MultiWriter(writers...)
}

func displayCommand(spec ExecSpec) string {
	if spec.DisplayCommand != "" {
		return spec.DisplayCommand
	}
	return strings.Join(append([]string{spec.Bin}, spec.Args...), " ")
}

// Describe renders a failed result for logs and error messages.
func (r ExecResult) Describe() string {
	switch {
	case r.Interrupted:
		return "interrupted"
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Second))
	case r.ExitCode == 127:
		return "binary not found"
	}
	tail := strings.TrimSpace(lastLines(r.StderrTail, 5))
	if tail == "" {
		return fmt.Sprintf("exit code %d", r.ExitCode)
	}
	return fmt.Sprintf("exit code %d: %s", r.ExitCode, tail)
}

func lastLines(value string, n int) string {
	lines := strings.Split(strings.TrimRight(value, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func flushWriterIfSupported(w io.Writer) {
	if f, ok := w.(flushWriter); ok {
		_ = f.Flush()
	}
}
