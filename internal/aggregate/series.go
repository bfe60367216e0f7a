package aggregate

import (
	"sort"

	"mediastream/sourceservice/internal/domain"
	"mediastream/sourceservice/internal/heuristics"
)

type episodeKey struct {
	season  int
	episode int
}

// mergeSeries buckets accepted candidates by (season, episode), keeping one
// stream per quality within each bucket, and summarizes per-season coverage
// against the catalog layout when one is known.
func mergeSeries(ref domain.ContentRef, candidates []domain.RawCandidate, seasons []domain.SeasonInfo) domain.AggregationResult {
	buckets := make(map[episodeKey]map[domain.Quality]domain.Stream)

	for _, candidate := range candidates {
		if !acceptCandidate(ref, candidate) {
			continue
		}
		season, episode := heuristics.ExtractSeasonEpisode(candidate.RawTitle)
		if season <= 0 || episode <= 0 {
			continue
		}
		if !heuristics.ValidateSeasonEpisode(season, episode, seasons) {
			continue
		}

		stream := buildStream(ref, candidate)
		stream.Season = season
		stream.Episode = episode

		key := episodeKey{season: season, episode: episode}
		byQuality, ok := buckets[key]
		if !ok {
			byQuality = make(map[domain.Quality]domain.Stream)
			buckets[key] = byQuality
		}
		existing, exists := byQuality[stream.Quality]
		if !exists || movieStreamBetter(stream, existing) {
			byQuality[stream.Quality] = stream
		}
	}

	episodes := make([]domain.EpisodeBucket, 0, len(buckets))
	for key, byQuality := range buckets {
		streams := make([]domain.Stream, 0, len(byQuality))
		for _, stream := range byQuality {
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
		episodes = append(episodes, domain.EpisodeBucket{
			Season:  key.season,
			Episode: key.episode,
			Streams: streams,
		})
	}

	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].Season != episodes[j].Season {
			return episodes[i].Season < episodes[j].Season
		}
		return episodes[i].Episode < episodes[j].Episode
	})

	return domain.AggregationResult{
		ContentID: ref.ID,
		Title:     ref.Title,
		Kind:      ref.Kind,
		Seasons:   summarizeSeasons(seasons, episodes),
		Episodes:  episodes,
	}
}

// summarizeSeasons reports coverage per season: the catalog's episode count
// where known, and how many distinct episodes the aggregation actually
// found. Seasons discovered in releases but absent from the catalog layout
// are still listed.
func summarizeSeasons(known []domain.SeasonInfo, episodes []domain.EpisodeBucket) []domain.SeasonSummary {
	available := make(map[int]int)
	for _, bucket := range episodes {
		available[bucket.Season]++
	}

	summaries := make(map[int]domain.SeasonSummary)
	for _, info := range known {
		summaries[info.Season] = domain.SeasonSummary{
			Season:                info.Season,
			EpisodeCount:          info.EpisodeCount,
			AvailableEpisodeCount: available[info.Season],
		}
	}
	for season, count := range available {
		if _, ok := summaries[season]; ok {
			continue
		}
		summaries[season] = domain.SeasonSummary{
			Season:                season,
			AvailableEpisodeCount: count,
		}
	}

	out := make([]domain.SeasonSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Season < out[j].Season
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
