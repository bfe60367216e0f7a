package endpoints

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"mediastream/sourceservice/internal/domain"
	"mediastream/sourceservice/internal/heuristics"
)

// metaXrefItem is the cross-reference listing shape: a flat array of records
// with stringly-typed numbers.
type metaXrefItem struct {
	Name     string `json:"name"`
	InfoHash string `json:"info_hash"`
	Size     string `json:"size"`
	Seeders  string `json:"seeders"`
	Leechers string `json:"leechers"`
}

// qualityIndexResponse is the quality-indexed listing shape: torrents nested
// under data.movie, each pre-tagged with a quality label.
type qualityIndexResponse struct {
	Data struct {
		Movie struct {
			Title    string `json:"title"`
			Torrents []struct {
				Hash          string `json:"hash"`
				Quality       string `json:"quality"`
				Seeds         int    `json:"seeds"`
				Peers         int    `json:"peers"`
				DownloadCount int    `json:"download_count"`
				Size          string `json:"size"`
				SizeBytes     int64  `json:"size_bytes"`
			} `json:"torrents"`
		} `json:"movie"`
	} `json:"data"`
}

// streamListResponse is the aggregated-stream listing shape: release title,
// seed count and size are embedded in a free-text title block.
type streamListResponse struct {
	Streams []struct {
		Name     string `json:"name"`
		Title    string `json:"title"`
		InfoHash string `json:"infoHash"`
	} `json:"streams"`
}

var (
	streamSeedPattern = regexp.MustCompile(`👤\s*(\d+)`)
	streamSizePattern = regexp.MustCompile(`💾\s*([\d.,]+)\s*([KMGT]?B)`)
)

func adaptMetaXref(endpoint Endpoint, payload json.RawMessage) []domain.RawCandidate {
	var items []metaXrefItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil
	}
	out := make([]domain.RawCandidate, 0, len(items))
	for _, item := range items {
		hash := NormalizeInfoHash(item.InfoHash)
		title := strings.TrimSpace(item.Name)
		if hash == "" || title == "" {
			continue
		}
		out = append(out, domain.RawCandidate{
			SourceTag: endpoint.SourceTag,
			Family:    endpoint.Family,
			RawTitle:  title,
			InfoHash:  hash,
			SizeBytes: atoi64(item.Size),
			Seeds:     atoi(item.Seeders),
			Peers:     atoi(item.Leechers),
		})
	}
	return out
}

func adaptQualityIndex(endpoint Endpoint, payload json.RawMessage) []domain.RawCandidate {
	var response qualityIndexResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil
	}
	movie := response.Data.Movie
	out := make([]domain.RawCandidate, 0, len(movie.Torrents))
	for _, torrent := range movie.Torrents {
		hash := NormalizeInfoHash(torrent.Hash)
		if hash == "" {
			continue
		}
		title := strings.TrimSpace(movie.Title)
		if title == "" {
			title = endpoint.SourceTag
		}
		if quality := strings.TrimSpace(torrent.Quality); quality != "" {
			title = title + " " + quality
		}
		sizeBytes := torrent.SizeBytes
		if sizeBytes <= 0 {
			sizeBytes = heuristics.ParseSize(torrent.Size)
		}
		out = append(out, domain.RawCandidate{
			SourceTag:       endpoint.SourceTag,
			Family:          endpoint.Family,
			RawTitle:        title,
			InfoHash:        hash,
			SizeBytes:       sizeBytes,
			SizeLabel:       strings.TrimSpace(torrent.Size),
			Seeds:           torrent.Seeds,
			Peers:           torrent.Peers,
			Downloads:       torrent.DownloadCount,
			DeclaredQuality: torrent.Quality,
		})
	}
	return out
}

func adaptStreamList(endpoint Endpoint, payload json.RawMessage) []domain.RawCandidate {
	var response streamListResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil
	}
	out := make([]domain.RawCandidate, 0, len(response.Streams))
	for _, stream := range response.Streams {
		hash := NormalizeInfoHash(stream.InfoHash)
		if hash == "" {
			continue
		}
		title, seeds, sizeLabel := parseStreamTitle(stream.Title)
		if title == "" {
			title = strings.TrimSpace(stream.Name)
		}
		if title == "" {
			continue
		}
		out = append(out, domain.RawCandidate{
			SourceTag: endpoint.SourceTag,
			Family:    endpoint.Family,
			RawTitle:  title,
			InfoHash:  hash,
			SizeBytes: heuristics.ParseSize(sizeLabel),
			SizeLabel: sizeLabel,
			Seeds:     seeds,
		})
	}
	return out
}

// parseStreamTitle splits an aggregated-stream title block: the first line
// is the release name, seed count and size ride on annotated follow-up
// lines.
func parseStreamTitle(block string) (title string, seeds int, sizeLabel string) {
	lines := strings.Split(block, "\n")
	if len(lines) > 0 {
		title = strings.TrimSpace(lines[0])
	}
	if match := streamSeedPattern.FindStringSubmatch(block); len(match) >= 2 {
		seeds = atoi(match[1])
	}
	if match := streamSizePattern.FindStringSubmatch(block); len(match) >= 3 {
		sizeLabel = strings.ReplaceAll(match[1], ",", ".") + strings.ToUpper(match[2])
	}
	return title, seeds, sizeLabel
}

func atoi(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func atoi64(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
