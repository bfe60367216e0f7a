package heuristics

import (
	"testing"

	"mediastream/sourceservice/internal/domain"
)

func TestNormalizeTitleStripsNoiseAndDiacritics(t *testing.T) {
	got := NormalizeTitle("  Amélie.(2001).[1080p]_BluRay!  ")
	if got != "amelie 2001 1080p bluray" {
		t.Fatalf("unexpected normalized title: %q", got)
	}
}

func TestNormalizeTitleCollapsesWhitespace(t *testing.T) {
	got := NormalizeTitle("The   Matrix \t Reloaded")
	if got != "the matrix reloaded" {
		t.Fatalf("unexpected normalized title: %q", got)
	}
}

func TestExtractQualityPrefersExplicitHint(t *testing.T) {
	got := ExtractQuality("Some Movie 720p", "2160p")
	if got != domain.Quality2160P {
		t.Fatalf("expected hint to win, got %s", got)
	}
}

func TestExtractQualityResolvesFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  domain.Quality
	}{
		{"Movie.2023.4K.HDR.mkv", domain.Quality2160P},
		{"Movie 2160p WEB-DL", domain.Quality2160P},
		{"Movie UHD BluRay", domain.Quality2160P},
		{"Movie.1080p.x264", domain.Quality1080P},
		{"Movie 720p BRRip", domain.Quality720P},
		{"Movie 480p DVDRip", domain.Quality480P},
	}
	for _, tc := range cases {
		if got := ExtractQuality(tc.title, ""); got != tc.want {
			t.Fatalf("title %q: expected %s, got %s", tc.title, tc.want, got)
		}
	}
}

func TestExtractQualityDefaultsTo720P(t *testing.T) {
	if got := ExtractQuality("Movie DVDRip XviD", ""); got != domain.Quality720P {
		t.Fatalf("expected default 720P, got %s", got)
	}
}

func TestExtractQualityOrderedPatternsFirstMatchWins(t *testing.T) {
	// 2160p and 1080p both present: the higher-priority pattern wins.
	if got := ExtractQuality("Movie 2160p upscaled from 1080p", ""); got != domain.Quality2160P {
		t.Fatalf("expected 2160P, got %s", got)
	}
}

func TestExtractSizeLabel(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Movie 1080p [2.1 GB]", "2.1GB"},
		{"Movie 700mb xvid", "700MB"},
		{"Movie without size", ""},
	}
	for _, tc := range cases {
		if got := ExtractSizeLabel(tc.title); got != tc.want {
			t.Fatalf("title %q: expected %q, got %q", tc.title, tc.want, got)
		}
	}
}

func TestParseSizeHandlesUnitsAndCommaDecimals(t *testing.T) {
	if got := ParseSize("1.5 GB"); got != int64(1.5*1024*1024*1024) {
		t.Fatalf("unexpected bytes for 1.5 GB: %d", got)
	}
	if got := ParseSize("700MB"); got != 700*1024*1024 {
		t.Fatalf("unexpected bytes for 700MB: %d", got)
	}
	if got := ParseSize("1,7GB"); got != ParseSize("1.7GB") {
		t.Fatalf("comma and dot decimals must parse the same, got %d", got)
	}
	if got := ParseSize("garbage"); got != 0 {
		t.Fatalf("expected 0 for garbage, got %d", got)
	}
}

func TestFormatSizeRoundTripsMagnitude(t *testing.T) {
	if got := FormatSize(2 * 1024 * 1024 * 1024); got != "2.0GB" {
		t.Fatalf("unexpected label: %q", got)
	}
	if got := FormatSize(0); got != "" {
		t.Fatalf("expected empty label for zero size, got %q", got)
	}
}
