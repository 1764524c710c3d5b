package metadata

import (
	"slices"
	"testing"

	"github.com/jaa/mvpipe/internal/tags"
)

type fakeReader map[tags.Field]string

func (f fakeReader) Format() string { return "fake" }

func (f fakeReader) Get(field tags.Field) (string, bool) {
	value, ok := f[field]
	return value, ok && value != ""
}

func TestParseYear(t *testing.T) {
	cases := map[string]string{"2019-05-01": "2019", "1999": "1999", " 2001 ": "2001"}
	for input, want := range cases {
		if got, ok := ParseYear(input); !ok || got != want {
			t.Fatalf("ParseYear(%q) = %q, %v", input, got, ok)
		}
	}
	for _, input := range []string{"", "99", "May 2019", "20x9-01-01"} {
		if _, ok := ParseYear(input); ok {
			t.Fatalf("expected ParseYear(%q) to fail", input)
		}
	}
}

func TestParseNumberPair(t *testing.T) {
	cases := map[string]NumberPair{
		"3/12": {Number: 3, Total: 12},
		"7":    {Number: 7},
		"/9":   {Number: 0, Total: 9},
		"4/":   {Number: 4},
		"a/b":  {},
	}
	for input, want := range cases {
		got, ok := ParseNumberPair(input)
		if !ok || got != want {
			t.Fatalf("ParseNumberPair(%q) = %+v, %v; want %+v", input, got, ok, want)
		}
	}
	if _, ok := ParseNumberPair("  "); ok {
		t.Fatalf("expected blank value to be missing")
	}
}

func TestParseCompilation(t *testing.T) {
	if value, ok := ParseCompilation("1"); !ok || !value {
		t.Fatalf("expected 1 to be true")
	}
	if value, ok := ParseCompilation("0"); !ok || value {
		t.Fatalf("expected 0 to be false")
	}
	if value, ok := ParseCompilation(""); !ok || value {
		t.Fatalf("expected blank to be false")
	}
	if _, ok := ParseCompilation("yes"); ok {
		t.Fatalf("expected non-numeric value to be rejected")
	}
}

func TestFromReaderCoercesFields(t *testing.T) {
	set := FromReader(fakeReader{
		tags.FieldArtist:      "Test Artist",
		tags.FieldTitle:       "Test Song",
		tags.FieldDate:        "2019-05-01",
		tags.FieldTrackNumber: "3/12",
		tags.FieldDiscNumber:  "1",
	})

	if set.Year != "2019" {
		t.Fatalf("expected year 2019, got %q", set.Year)
	}
	if set.Track == nil || *set.Track != (NumberPair{Number: 3, Total: 12}) {
		t.Fatalf("unexpected track %+v", set.Track)
	}
	if set.Disc == nil || *set.Disc != (NumberPair{Number: 1}) {
		t.Fatalf("unexpected disc %+v", set.Disc)
	}
	if set.Compilation != nil {
		t.Fatalf("missing compilation must be omitted, got %v", *set.Compilation)
	}
	if set.Len() != 5 {
		t.Fatalf("expected 5 fields, got %d", set.Len())
	}

	args := set.MetadataArgs()
	want := []string{"artist=Test Artist", "title=Test Song", "date=2019", "track=3/12", "disc=1"}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected metadata args %v", args)
	}
}

func TestFromReaderFallsBackToYearAndSkipsInvalidDate(t *testing.T) {
	set := FromReader(fakeReader{
		tags.FieldDate:        "unknown",
		tags.FieldYear:        "1987",
		tags.FieldCompilation: "1",
	})
	if set.Year != "1987" {
		t.Fatalf("expected year fallback, got %q", set.Year)
	}
	if set.Compilation == nil || !*set.Compilation {
		t.Fatalf("expected compilation true")
	}
	if !slices.Contains(set.MetadataArgs(), "compilation=1") {
		t.Fatalf("expected compilation arg, got %v", set.MetadataArgs())
	}
}
