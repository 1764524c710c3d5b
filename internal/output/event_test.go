package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJSONEmitterSerializesEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := NewJSONEmitter(buf)

	event := Event{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     LevelInfo,
		Event:     EventRunStarted,
		RunID:     "run-1",
		Message:   "run started",
		Details: map[string]any{
			"total": 1,
		},
	}

	if err := emitter.Emit(event); err != nil {
		t.Fatalf("emit: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	if decoded["event"] != string(EventRunStarted) {
		t.Fatalf("unexpected event name: %v", decoded["event"])
	}
	if decoded["message"] != "run started" {
		t.Fatalf("unexpected message: %v", decoded["message"])
	}
	if decoded["run_id"] != "run-1" {
		t.Fatalf("unexpected run id: %v", decoded["run_id"])
	}
	if _, ok := decoded["song"]; ok {
		t.Fatalf("expected empty song to be omitted")
	}
}

func TestHumanEmitterFiltersByVerbosity(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	emitter := NewHumanEmitter(stdout, stderr, true, false)

	_ = emitter.Emit(Event{Level: LevelInfo, Event: EventSongStarted, Message: "song"})
	_ = emitter.Emit(Event{Level: LevelWarn, Event: EventVideoMissing, Message: "missing"})
	_ = emitter.Emit(Event{Level: LevelError, Event: EventDownloadFailed, Message: "boom"})
	_ = emitter.Emit(Event{Level: LevelInfo, Event: EventRunFinished, Message: "done"})

	if got := stdout.String(); got != "done\n" {
		t.Fatalf("unexpected quiet stdout %q", got)
	}
	if got := stderr.String(); got != "ERROR: boom\n" {
		t.Fatalf("unexpected quiet stderr %q", got)
	}

	stdout.Reset()
	verbose := NewHumanEmitter(stdout, stderr, false, true)
	_ = verbose.Emit(Event{Level: LevelDebug, Event: EventScanFinished, Message: "scanned"})
	if !strings.Contains(stdout.String(), "scanned") {
		t.Fatalf("expected debug event in verbose mode, got %q", stdout.String())
	}
}
