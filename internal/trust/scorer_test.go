package trust

import (
	"testing"

	"mediastream/sourceservice/internal/domain"
)

func TestScoreStaysWithinBounds(t *testing.T) {
	best := domain.RawCandidate{
		SourceTag:       "streamlist",
		Family:          domain.FamilyStreamList,
		RawTitle:        "Inception 2010 4K BluRay DTS HDR x265 MULTI YTS",
		SizeBytes:       4 * 1024 * 1024 * 1024,
		Seeds:           5000,
		Downloads:       9000,
		DeclaredQuality: "2160p",
	}
	score := Score(best, "Inception", 2010)
	if score < 0 || score > 100 {
		t.Fatalf("score out of bounds: %d", score)
	}
	if score < 80 {
		t.Fatalf("stacked signals should score high, got %d", score)
	}
}

func TestScoreEmptyCandidateIsZero(t *testing.T) {
	if score := Score(domain.RawCandidate{}, "", 0); score != 0 {
		t.Fatalf("empty candidate must score 0, got %d", score)
	}
}

func TestScoreTitleMatchContributes(t *testing.T) {
	matching := Score(domain.RawCandidate{RawTitle: "Inception 1080p"}, "Inception", 0)
	unrelated := Score(domain.RawCandidate{RawTitle: "Some Other Film 1080p"}, "Inception", 0)
	if matching <= unrelated {
		t.Fatalf("matching title must outscore unrelated: %d <= %d", matching, unrelated)
	}
}

func TestScoreSeedTiersAreMonotonic(t *testing.T) {
	previous := -1
	for _, seeds := range []int{0, 11, 51, 101, 501, 1001} {
		score := Score(domain.RawCandidate{RawTitle: "x", Seeds: seeds}, "x", 0)
		if score < previous {
			t.Fatalf("seed tier regression at %d seeds: %d < %d", seeds, score, previous)
		}
		previous = score
	}
}

func TestScoreSubScoresAreCapped(t *testing.T) {
	// Availability alone: best family bonus plus top seed tier exceeds the
	// cap and must be clamped to 25.
	availabilityOnly := Score(domain.RawCandidate{
		Family: domain.FamilyStreamList,
		Seeds:  100000,
	}, "", 0)
	if availabilityOnly != availabilityCap {
		t.Fatalf("expected availability capped at %d, got %d", availabilityCap, availabilityOnly)
	}
}

func TestScoreSizePlausibilityUsesNarrowestBand(t *testing.T) {
	inBand := Score(domain.RawCandidate{RawTitle: "x", SizeBytes: 4 * 1024 * 1024 * 1024}, "x", 0)
	outOfBand := Score(domain.RawCandidate{RawTitle: "x", SizeBytes: 50 * 1024 * 1024 * 1024}, "x", 0)
	if inBand <= outOfBand {
		t.Fatalf("movie-scale size must outscore implausible size: %d <= %d", inBand, outOfBand)
	}
}

func TestScoreYearMatchContributes(t *testing.T) {
	withYear := Score(domain.RawCandidate{RawTitle: "Film 2010 1080p"}, "Film", 2010)
	wrongYear := Score(domain.RawCandidate{RawTitle: "Film 1999 1080p"}, "Film", 2010)
	if withYear <= wrongYear {
		t.Fatalf("matching year must add score: %d <= %d", withYear, wrongYear)
	}
}
