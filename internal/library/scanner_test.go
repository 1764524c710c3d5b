package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type identifierFunc func(path string) (string, string)

func (f identifierFunc) Identify(path string) (string, string) { return f(path) }

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestScanFindsAudioRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "Band - Song.MP3"))
	writeFile(t, filepath.Join(root, "a", "b", "other.flac"))
	writeFile(t, filepath.Join(root, "cover.jpg"))
	writeFile(t, filepath.Join(root, "clip.mp4"))

	scanner := NewScanner(identifierFunc(func(path string) (string, string) {
		if filepath.Base(path) == "other.flac" {
			return "", ""
		}
		return "Band", "Song"
	}))
	entries, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audio entries, got %d", len(entries))
	}
	complete := 0
	for _, entry := range entries {
		if entry.Complete() {
			complete++
		}
	}
	if complete != 1 {
		t.Fatalf("expected 1 complete entry, got %d", complete)
	}
}

func TestScanRecordsEntryWhenIdentifierPanics(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.mp3"))

	scanner := NewScanner(identifierFunc(func(string) (string, string) {
		panic("bad frame")
	}))
	entries, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 1 || entries[0].Complete() {
		t.Fatalf("expected one incomplete entry, got %+v", entries)
	}
}

func TestScanRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "song.mp3")
	writeFile(t, file)

	entries, err := NewScanner(nil).Scan(context.Background(), file)
	if err == nil {
		t.Fatalf("expected error for file root")
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty result, got %d", len(entries))
	}
}
