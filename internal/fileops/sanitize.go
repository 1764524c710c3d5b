package fileops

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxFilenameLength = 200
	untitledName      = "Untitled"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	repeatedDots         = regexp.MustCompile(`\.+`)
)

// SanitizeFilename turns an arbitrary artist or title string into a single
// path component that is safe on common filesystems.
func SanitizeFilename(name string) string {
	if name == "" {
		return untitledName
	}
	clean := norm.NFC.String(name)
	clean = illegalFilenameChars.ReplaceAllString(clean, "")
	clean = repeatedDots.ReplaceAllString(clean, ".")
	clean = strings.TrimSpace(clean)
	clean = strings.Trim(clean, ".- ")
	if clean == "" || clean == "." {
		return untitledName
	}

	if utf8.RuneCountInString(clean) <= MaxFilenameLength {
		return clean
	}

	ext := filepath.Ext(clean)
	base := strings.TrimSuffix(clean, ext)
	keep := MaxFilenameLength - utf8.RuneCountInString(ext)
	if ext != "" {
		keep--
	}
	if keep < 1 {
		keep = 1
	}
	truncated := truncateRunes(base, keep) + ext
	log.Warn().Str("original", name).Str("truncated", truncated).Msg("filename truncated")
	return truncated
}

func truncateRunes(value string, n int) string {
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	runes := []rune(value)
	return string(runes[:n])
}

// FindByPrefix returns the first regular file in dir whose name starts with
// prefix and passes accept, in directory order. A nil accept matches all.
func FindByPrefix(dir, prefix string, accept func(name string) bool) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) && (accept == nil || accept(entry.Name())) {
			return filepath.Join(dir, entry.Name()), true, nil
		}
	}
	return "", false, nil
}
