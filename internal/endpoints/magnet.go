package endpoints

import (
	"net/url"
	"strings"
)

// defaultTrackers are announced on every built magnet so clients without DHT
// bootstrap can still resolve peers.
var defaultTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.demonii.com:1337/announce",
	"udp://tracker.torrent.eu.org:451/announce",
	"udp://exodus.desync.com:6969/announce",
}

// NormalizeInfoHash lowercases and strips the urn prefix some sources keep
// on their hashes. Returns "" for an unusable hash.
func NormalizeInfoHash(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(strings.ToLower(value), "urn:btih:")
	if len(value) != 40 && len(value) != 32 {
		return ""
	}
	return value
}

// BuildMagnet assembles a magnet URI from a normalized info hash and display
// name, announcing the default tracker set.
func BuildMagnet(infoHash, name string) string {
	hash := NormalizeInfoHash(infoHash)
	if hash == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("magnet:?xt=urn:btih:")
	builder.WriteString(hash)
	if strings.TrimSpace(name) != "" {
		builder.WriteString("&dn=")
		builder.WriteString(url.QueryEscape(strings.TrimSpace(name)))
	}
	for _, tracker := range defaultTrackers {
		builder.WriteString("&tr=")
		builder.WriteString(url.QueryEscape(tracker))
	}
	return builder.String()
}
