package mediafile

import (
	"path/filepath"
	"strings"
)

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".flac": {}, ".m4a": {}, ".aac": {},
	".ogg": {}, ".opus": {}, ".aiff": {}, ".wav": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {}, ".webm": {}, ".flv": {},
}

func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func IsAudio(path string) bool {
	_, ok := audioExtensions[Ext(path)]
	return ok
}

func IsVideo(path string) bool {
	_, ok := videoExtensions[Ext(path)]
	return ok
}

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
