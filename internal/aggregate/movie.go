package aggregate

import (
	"sort"

	"mediastream/sourceservice/internal/domain"
)

// mergeMovie dedupes accepted candidates down to one stream per quality,
// keeping the best-seeded copy, and orders the final list by raw
// availability first and picture quality second.
func mergeMovie(ref domain.ContentRef, candidates []domain.RawCandidate) domain.AggregationResult {
	bestByQuality := make(map[domain.Quality]domain.Stream)
	for _, candidate := range candidates {
		if !acceptCandidate(ref, candidate) {
			continue
		}
		stream := buildStream(ref, candidate)
		existing, ok := bestByQuality[stream.Quality]
		if !ok || movieStreamBetter(stream, existing) {
			bestByQuality[stream.Quality] = stream
		}
	}

	streams := make([]domain.Stream, 0, len(bestByQuality))
	for _, stream := range bestByQuality {
		streams = append(streams, stream)
	}

	sort.Slice(streams, func(i, j int) bool {
		left, right := streams[i], streams[j]
		leftSwarm := left.Seeds + left.Peers
		rightSwarm := right.Seeds + right.Peers
		if leftSwarm != rightSwarm {
			return leftSwarm > rightSwarm
		}
		return domain.QualityTier(left.Quality) > domain.QualityTier(right.Quality)
	})

	return domain.AggregationResult{
		ContentID: ref.ID,
		Title:     ref.Title,
		Kind:      ref.Kind,
		Torrents:  streams,
	}
}

// movieStreamBetter decides which duplicate of a quality survives: seeds
// win, then peers, then the trust score.
func movieStreamBetter(candidate, existing domain.Stream) bool {
	if candidate.Seeds != existing.Seeds {
		return candidate.Seeds > existing.Seeds
	}
	if candidate.Peers != existing.Peers {
		return candidate.Peers > existing.Peers
	}
	return candidate.TrustScore > existing.TrustScore
}
