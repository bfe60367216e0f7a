package heuristics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"mediastream/sourceservice/internal/domain"
)

var (
	nonAlnumPattern  = regexp.MustCompile(`[^a-z0-9 ]+`)
	sizeLabelPattern = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(KB|MB|GB|TB)\b`)

	foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// qualityPatterns are evaluated in priority order; the first match wins.
var qualityPatterns = []struct {
	re    *regexp.Regexp
	token domain.Quality
}{
	{regexp.MustCompile(`(?i)\b(4k|2160p|uhd)\b`), domain.Quality2160P},
	{regexp.MustCompile(`(?i)\b1080p\b`), domain.Quality1080P},
	{regexp.MustCompile(`(?i)\b720p\b`), domain.Quality720P},
	{regexp.MustCompile(`(?i)\b480p\b`), domain.Quality480P},
}

// NormalizeTitle lowercases, folds diacritics, strips everything that is not
// alphanumeric or space, and collapses whitespace. The output is only ever
// used for equality and substring comparisons, never shown to users.
func NormalizeTitle(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if folded, _, err := transform.String(foldTransformer, value); err == nil {
		value = folded
	}
	value = nonAlnumPattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

// ExtractQuality resolves the canonical quality token for a release title.
// An explicit hint from the source wins; otherwise the title is scanned with
// the ordered resolution patterns. Unlabeled releases default to 720P: most
// of them are standard-definition-adjacent in practice, so the default is a
// heuristic rather than a guarantee.
func ExtractQuality(title, hint string) domain.Quality {
	if trimmed := strings.TrimSpace(hint); trimmed != "" {
		if q := matchQuality(trimmed); q != domain.QualityUnknown {
			return q
		}
	}
	if q := matchQuality(title); q != domain.QualityUnknown {
		return q
	}
	return domain.Quality720P
}

func matchQuality(value string) domain.Quality {
	for _, candidate := range qualityPatterns {
		if candidate.re.MatchString(value) {
			return candidate.token
		}
	}
	return domain.QualityUnknown
}

// ExtractSizeLabel returns the first "<number><unit>" token found in the
// title with the unit uppercased, or "" when the title carries no size.
func ExtractSizeLabel(title string) string {
	match := sizeLabelPattern.FindStringSubmatch(title)
	if len(match) < 3 {
		return ""
	}
	return match[1] + strings.ToUpper(match[2])
}

// ParseSize converts a human size label such as "1.7 GB" to bytes. Returns 0
// when the label cannot be parsed.
func ParseSize(raw string) int64 {
	value := strings.TrimSpace(strings.ToUpper(raw))
	if value == "" {
		return 0
	}

	unit := ""
	number := value
	for _, suffix := range []string{"TB", "GB", "MB", "KB", "B"} {
		if strings.HasSuffix(number, suffix) {
			unit = suffix
			number = strings.TrimSpace(strings.TrimSuffix(number, suffix))
			break
		}
	}
	if unit == "" {
		if parsed, err := strconv.ParseInt(number, 10, 64); err == nil {
			return parsed
		}
		return 0
	}

	parsed, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil || parsed < 0 {
		return 0
	}

	multiplier := float64(1)
	switch unit {
	case "KB":
		multiplier = 1024
	case "MB":
		multiplier = 1024 * 1024
	case "GB":
		multiplier = 1024 * 1024 * 1024
	case "TB":
		multiplier = 1024 * 1024 * 1024 * 1024
	}
	return int64(parsed * multiplier)
}

// FormatSize renders bytes as a human label for streams whose source only
// reported a byte count.
func FormatSize(size int64) string {
	if size <= 0 {
		return ""
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(size) / float64(div)
	return fmt.Sprintf("%.1f%cB", value, "KMGT"[exp])
}
