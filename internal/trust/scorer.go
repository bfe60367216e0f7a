package trust

import (
	"regexp"
	"strconv"
	"strings"

	"mediastream/sourceservice/internal/domain"
	"mediastream/sourceservice/internal/heuristics"
)

// Sub-score caps. Each dimension is capped before summing so no single
// signal can dominate beyond its share of the final 0-100 score.
const (
	titleMatchCap   = 25
	availabilityCap = 25
	qualitySizeCap  = 25
	completenessCap = 25
)

var (
	seTokenPattern = regexp.MustCompile(`(?i)\bs\d{1,2}\s*e\d{1,3}\b`)
	yearPattern    = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// releaseGroups is the fixed allow-list of known release-group tokens that
// earn a title-match bonus.
var releaseGroups = []string{
	"SPARKS", "FGT", "CMRG", "EVO", "RARBG", "YTS", "YIFY",
	"PSA", "ION10", "NTG", "FLUX", "QXR", "TIGOLE", "PAHE",
	"GECKOS", "ROVERS", "DRONES", "KINGDOM", "W4F", "D3G",
}

var audioTokens = []string{"dts", "dd5.1", "atmos", "truehd", "aac"}

var fidelityTokens = []string{"hdr", "10bit", "hevc", "x265"}

var multiLanguageTokens = []string{"multi", "dual audio", "dual-audio", "multilang"}

// Score computes the 0-100 confidence score for a candidate against the
// reference title. It is a heuristic ranking signal, not a correctness
// proof; an all-empty candidate legitimately scores 0.
func Score(candidate domain.RawCandidate, referenceTitle string, referenceYear int) int {
	total := titleMatchScore(candidate, referenceTitle) +
		availabilityScore(candidate) +
		qualitySizeScore(candidate) +
		completenessScore(candidate, referenceYear)
	if total > 100 {
		return 100
	}
	return total
}

func titleMatchScore(candidate domain.RawCandidate, referenceTitle string) int {
	score := 0
	normalizedCandidate := heuristics.NormalizeTitle(candidate.RawTitle)
	normalizedReference := heuristics.NormalizeTitle(referenceTitle)
	if normalizedReference != "" && strings.Contains(normalizedCandidate, normalizedReference) {
		score += 15
	}
	if seTokenPattern.MatchString(candidate.RawTitle) {
		score += 5
	}
	upper := strings.ToUpper(candidate.RawTitle)
	for _, group := range releaseGroups {
		if strings.Contains(upper, group) {
			score += 5
			break
		}
	}
	return capped(score, titleMatchCap)
}

func availabilityScore(candidate domain.RawCandidate) int {
	score := 0
	switch candidate.Family {
	case domain.FamilyStreamList:
		score += 10
	case domain.FamilyQualityIndex:
		score += 8
	case domain.FamilyMetaXref:
		score += 6
	}
	switch {
	case candidate.Seeds > 1000:
		score += 15
	case candidate.Seeds > 500:
		score += 12
	case candidate.Seeds > 100:
		score += 10
	case candidate.Seeds > 50:
		score += 8
	case candidate.Seeds > 10:
		score += 5
	}
	return capped(score, availabilityCap)
}

func qualitySizeScore(candidate domain.RawCandidate) int {
	score := 0
	lower := strings.ToLower(candidate.RawTitle + " " + candidate.DeclaredQuality)
	switch {
	case containsAny(lower, "4k", "2160p", "bluray", "blu-ray"):
		score += 10
	case containsAny(lower, "1080p", "web-dl", "webdl"):
		score += 8
	case containsAny(lower, "720p", "brrip"):
		score += 6
	}
	if containsAny(lower, audioTokens...) {
		score += 5
	}
	score += sizePlausibilityBonus(candidateSizeBytes(candidate))
	return capped(score, qualitySizeCap)
}

// sizePlausibilityBonus favors movie-scale payloads; bands are checked
// narrowest first and only the tightest match counts.
func sizePlausibilityBonus(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 0
	}
	gb := float64(sizeBytes) / (1024 * 1024 * 1024)
	switch {
	case gb >= 1 && gb <= 8:
		return 10
	case gb >= 0.5 && gb <= 15:
		return 8
	case gb >= 0.1 && gb <= 20:
		return 5
	default:
		return 0
	}
}

func completenessScore(candidate domain.RawCandidate, referenceYear int) int {
	score := 0
	if referenceYear > 0 {
		for _, match := range yearPattern.FindAllString(candidate.RawTitle, -1) {
			if year, err := strconv.Atoi(match); err == nil && year == referenceYear {
				score += 8
				break
			}
		}
	}
	lower := strings.ToLower(candidate.RawTitle)
	if containsAny(lower, multiLanguageTokens...) {
		score += 4
	}
	if containsAny(lower, fidelityTokens...) {
		score += 5
	}
	switch {
	case candidate.Downloads > 1000:
		score += 8
	case candidate.Downloads > 500:
		score += 6
	case candidate.Downloads > 100:
		score += 4
	case candidate.Downloads > 10:
		score += 2
	}
	return capped(score, completenessCap)
}

func candidateSizeBytes(candidate domain.RawCandidate) int64 {
	if candidate.SizeBytes > 0 {
		return candidate.SizeBytes
	}
	if candidate.SizeLabel != "" {
		return heuristics.ParseSize(candidate.SizeLabel)
	}
	return heuristics.ParseSize(heuristics.ExtractSizeLabel(candidate.RawTitle))
}

func capped(score, limit int) int {
	if score > limit {
		return limit
	}
	return score
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
