package domain

type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
)

// ContentRef identifies the title an aggregation run is resolving sources
// for. It is supplied by the caller and never mutated.
type ContentRef struct {
	ID    string
	Title string
	Year  int
	Kind  MediaKind
}

// SourceFamily tags the response shape an endpoint speaks. Each family has
// its own adapter; an unknown family contributes nothing.
type SourceFamily string

const (
	FamilyMetaXref     SourceFamily = "metaxref"
	FamilyQualityIndex SourceFamily = "qualityindex"
	FamilyStreamList   SourceFamily = "streamlist"
)

// RawCandidate is one unnormalized record from a single source, produced by
// an endpoint adapter and consumed immediately by normalization.
type RawCandidate struct {
	SourceTag       string
	Family          SourceFamily
	RawTitle        string
	InfoHash        string
	SizeBytes       int64
	SizeLabel       string
	Seeds           int
	Peers           int
	Downloads       int
	DeclaredQuality string
}

type Quality string

const (
	Quality2160P   Quality = "2160P"
	Quality1080P   Quality = "1080P"
	Quality720P    Quality = "720P"
	Quality480P    Quality = "480P"
	QualityUnknown Quality = "UNKNOWN"
)

// QualityTier orders canonical quality tokens for sorting; higher is better.
func QualityTier(q Quality) int {
	switch q {
	case Quality2160P:
		return 4
	case Quality1080P:
		return 3
	case Quality720P:
		return 2
	case Quality480P:
		return 1
	default:
		return 0
	}
}

// Stream is a candidate after extraction, validation and scoring. InfoHash
// is always non-empty; candidates without one never reach this type.
type Stream struct {
	Title      string  `json:"title"`
	InfoHash   string  `json:"infoHash"`
	Quality    Quality `json:"quality"`
	SizeLabel  string  `json:"sizeLabel,omitempty"`
	Seeds      int     `json:"seeds"`
	Peers      int     `json:"peers"`
	TrustScore int     `json:"trustScore"`
	Season     int     `json:"season,omitempty"`
	Episode    int     `json:"episode,omitempty"`
	MagnetURI  string  `json:"magnetUri"`
}

// EpisodeBucket holds the streams for one (season, episode) key, already
// deduplicated to at most one stream per canonical quality.
type EpisodeBucket struct {
	Season  int      `json:"season"`
	Episode int      `json:"episode"`
	Streams []Stream `json:"streams"`
}

type SeasonSummary struct {
	Season                int `json:"season"`
	EpisodeCount          int `json:"episodeCount"`
	AvailableEpisodeCount int `json:"availableEpisodeCount"`
}

// SeasonInfo is the metadata-provider oracle's view of one season, used to
// validate extracted season/episode numbers and to gate the fallback tier.
type SeasonInfo struct {
	Season       int `json:"seasonNumber"`
	EpisodeCount int `json:"episodeCount"`
}

// AggregationResult is the immutable product of one aggregation run. Movies
// populate Torrents; series populate Seasons and Episodes. An empty result
// is valid and means no source had anything to contribute.
type AggregationResult struct {
	ContentID string          `json:"contentId"`
	Title     string          `json:"title"`
	Kind      MediaKind       `json:"mediaKind"`
	Torrents  []Stream        `json:"torrents,omitempty"`
	Seasons   []SeasonSummary `json:"seasons,omitempty"`
	Episodes  []EpisodeBucket `json:"episodes,omitempty"`
}
