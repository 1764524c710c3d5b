package transcribe

import (
	"fmt"
	"math"
	"strings"
)

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Info struct {
	Language            string
	LanguageProbability float64
	Duration            float64
}

const (
	FormatText = "txt"
	FormatSRT  = "srt"
	FormatVTT  = "vtt"
	FormatLRC  = "lrc"
)

// Timestamp renders seconds as HH:MM:SS followed by sep and milliseconds.
func Timestamp(seconds float64, sep string) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	hours := total / 3_600_000
	total %= 3_600_000
	minutes := total / 60_000
	total %= 60_000
	secs := total / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
}

func cueText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "-->", "->")
}

func SRT(segments []Segment) string {
	var b strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			Timestamp(segment.Start, ","),
			Timestamp(segment.End, ","),
			cueText(segment.Text),
		)
	}
	return b.String()
}

func VTT(segments []Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, segment := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			Timestamp(segment.Start, "."),
			Timestamp(segment.End, "."),
			cueText(segment.Text),
		)
	}
	return b.String()
}

func Text(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, strings.TrimSpace(segment.Text))
	}
	return strings.Join(lines, "\n")
}

// LRC writes one [MM:SS.hh] line per segment start. Minutes are not
// wrapped at an hour.
func LRC(segments []Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		start := segment.Start
		if start < 0 {
			start = 0
		}
		hundredths := int64(start * 100)
		minutes := hundredths / 6000
		secs := (hundredths % 6000) / 100
		fmt.Fprintf(&b, "[%02d:%02d.%02d]%s\n", minutes, secs, hundredths%100, text)
	}
	return b.String()
}

// Render produces the file content for one of the supported formats.
func Render(format string, segments []Segment) (string, error) {
	switch format {
	case FormatText:
		return Text(segments), nil
	case FormatSRT:
		return SRT(segments), nil
	case FormatVTT:
		return VTT(segments), nil
	case FormatLRC:
		return LRC(segments), nil
	}
	return "", fmt.Errorf("unsupported transcript format %q", format)
}
