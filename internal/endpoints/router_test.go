package endpoints

import (
	"encoding/json"
	"strings"
	"testing"

	"mediastream/sourceservice/internal/domain"
)

func TestParseTemplatesAcceptsKnownFamiliesOnly(t *testing.T) {
	raw := "metaxref|apibay|https://apibay.org/q.php?q={extid}," +
		"qualityindex|yts|https://yts.mx/api/v2/movie_details.json?movie_id={id}," +
		"bogus|x|https://example.com/{id}," +
		"streamlist|torrentio|https://torrentio.example/stream/movie/{extid}.json"

	templates := ParseTemplates(raw)
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	if templates[0].Family != domain.FamilyMetaXref || templates[0].SourceTag != "apibay" {
		t.Fatalf("unexpected first template: %+v", templates[0])
	}
}

func TestRouteSubstitutesTokens(t *testing.T) {
	router := NewRouter(Config{
		Primary: []Template{
			{URL: "https://a.example/{id}", Family: domain.FamilyQualityIndex, SourceTag: "a"},
			{URL: "https://b.example/{extid}.json", Family: domain.FamilyStreamList, SourceTag: "b"},
		},
	})

	tiers := router.Route("603", "tt0133093")
	if len(tiers.Primary) != 2 {
		t.Fatalf("expected 2 primary endpoints, got %d", len(tiers.Primary))
	}
	if tiers.Primary[0].URL != "https://a.example/603" {
		t.Fatalf("unexpected id substitution: %s", tiers.Primary[0].URL)
	}
	if tiers.Primary[1].URL != "https://b.example/tt0133093.json" {
		t.Fatalf("unexpected extid substitution: %s", tiers.Primary[1].URL)
	}
}

func TestRouteSkipsExternalIDTemplatesWithoutID(t *testing.T) {
	router := NewRouter(Config{
		Primary: []Template{
			{URL: "https://a.example/{id}", Family: domain.FamilyQualityIndex, SourceTag: "a"},
			{URL: "https://b.example/{extid}.json", Family: domain.FamilyStreamList, SourceTag: "b"},
		},
	})

	tiers := router.Route("603", "")
	if len(tiers.Primary) != 1 {
		t.Fatalf("expected extid template skipped, got %d endpoints", len(tiers.Primary))
	}
	if !strings.Contains(tiers.Primary[0].URL, "a.example") {
		t.Fatalf("wrong endpoint survived: %s", tiers.Primary[0].URL)
	}
}

func TestAdaptMetaXrefParsesStringNumbers(t *testing.T) {
	payload := json.RawMessage(`[
		{"name":"The Matrix 1999 1080p","info_hash":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA","size":"1610612736","seeders":"120","leechers":"30"},
		{"name":"","info_hash":"BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB","size":"1","seeders":"1","leechers":"1"}
	]`)
	router := NewRouter(Config{})
	endpoint := Endpoint{Family: domain.FamilyMetaXref, SourceTag: "apibay"}

	items := router.Adapt(endpoint, payload)
	if len(items) != 1 {
		t.Fatalf("expected 1 candidate (empty name dropped), got %d", len(items))
	}
	item := items[0]
	if item.InfoHash != strings.ToLower("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA") {
		t.Fatalf("info hash not normalized: %s", item.InfoHash)
	}
	if item.Seeds != 120 || item.Peers != 30 || item.SizeBytes != 1610612736 {
		t.Fatalf("string numbers not parsed: %+v", item)
	}
}

func TestAdaptMetaXrefToleratesNonArrayPayload(t *testing.T) {
	router := NewRouter(Config{})
	endpoint := Endpoint{Family: domain.FamilyMetaXref, SourceTag: "apibay"}
	items := router.Adapt(endpoint, json.RawMessage(`{"id":"0","name":"No results returned"}`))
	if items != nil {
		t.Fatalf("expected nil for non-array payload, got %+v", items)
	}
}

func TestAdaptQualityIndexBuildsTitledCandidates(t *testing.T) {
	payload := json.RawMessage(`{"data":{"movie":{"title":"Inception","torrents":[
		{"hash":"CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC","quality":"1080p","seeds":250,"peers":40,"download_count":900,"size":"2.1 GB","size_bytes":2254857830}
	]}}}`)
	router := NewRouter(Config{})
	endpoint := Endpoint{Family: domain.FamilyQualityIndex, SourceTag: "yts"}

	items := router.Adapt(endpoint, payload)
	if len(items) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(items))
	}
	item := items[0]
	if item.RawTitle != "Inception 1080p" {
		t.Fatalf("title should carry the quality label: %q", item.RawTitle)
	}
	if item.DeclaredQuality != "1080p" || item.SizeBytes != 2254857830 || item.Downloads != 900 {
		t.Fatalf("unexpected candidate: %+v", item)
	}
}

func TestAdaptStreamListParsesAnnotatedTitle(t *testing.T) {
	payload := json.RawMessage(`{"streams":[
		{"name":"Torrentio\n1080p","title":"The.Matrix.1999.1080p.BluRay.x264\n👤 85 💾 2.2 GB ⚙️ ThePirateBay","infoHash":"dddddddddddddddddddddddddddddddddddddddd"}
	]}`)
	router := NewRouter(Config{})
	endpoint := Endpoint{Family: domain.FamilyStreamList, SourceTag: "torrentio"}

	items := router.Adapt(endpoint, payload)
	if len(items) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(items))
	}
	item := items[0]
	if item.RawTitle != "The.Matrix.1999.1080p.BluRay.x264" {
		t.Fatalf("first line must become the title: %q", item.RawTitle)
	}
	if item.Seeds != 85 {
		t.Fatalf("seed annotation not parsed: %d", item.Seeds)
	}
	if item.SizeLabel != "2.2GB" {
		t.Fatalf("size annotation not parsed: %q", item.SizeLabel)
	}
}

func TestAdaptDropsCandidatesWithoutInfoHash(t *testing.T) {
	payload := json.RawMessage(`{"streams":[{"name":"x","title":"Some Release","infoHash":""}]}`)
	router := NewRouter(Config{})
	items := router.Adapt(Endpoint{Family: domain.FamilyStreamList}, payload)
	if len(items) != 0 {
		t.Fatalf("expected candidates without info hash dropped, got %d", len(items))
	}
}

func TestNormalizeInfoHash(t *testing.T) {
	upper := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	if got := NormalizeInfoHash("urn:btih:" + upper); got != strings.ToLower(upper) {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if got := NormalizeInfoHash("short"); got != "" {
		t.Fatalf("malformed hash must normalize to empty, got %q", got)
	}
}

func TestBuildMagnetEncodesNameAndTrackers(t *testing.T) {
	magnet := BuildMagnet("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", "The Matrix 1080p")
	if !strings.HasPrefix(magnet, "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Fatalf("unexpected magnet prefix: %s", magnet)
	}
	if !strings.Contains(magnet, "&dn=The+Matrix+1080p") {
		t.Fatalf("display name missing: %s", magnet)
	}
	if !strings.Contains(magnet, "&tr=") {
		t.Fatalf("trackers missing: %s", magnet)
	}
	if BuildMagnet("", "x") != "" {
		t.Fatalf("empty hash must produce empty magnet")
	}
}
