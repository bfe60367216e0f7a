package endpoints

import (
	"encoding/json"
	"strings"

	"mediastream/sourceservice/internal/domain"
)

// Placeholder tokens understood by endpoint templates. A template using
// {extid} is skipped when the metadata provider has no cross-reference id
// for the content.
const (
	idToken    = "{id}"
	extIDToken = "{extid}"
)

// Template is one configured endpoint URL template with its source family
// tag. Family selects the response-shape adapter applied to payloads.
type Template struct {
	URL       string
	Family    domain.SourceFamily
	SourceTag string
}

// Endpoint is a fully substituted URL ready to fetch.
type Endpoint struct {
	URL       string
	Family    domain.SourceFamily
	SourceTag string
}

// Tiers groups the expanded endpoints by query priority.
type Tiers struct {
	Primary   []Endpoint
	Secondary []Endpoint
	Fallback  []Endpoint
}

type Config struct {
	Primary   []Template
	Secondary []Template
	Fallback  []Template
}

// Router expands the configured templates for a content id and adapts the
// heterogeneous payloads each source family returns into RawCandidates.
type Router struct {
	primary   []Template
	secondary []Template
	fallback  []Template
}

func NewRouter(cfg Config) *Router {
	return &Router{
		primary:   append([]Template(nil), cfg.Primary...),
		secondary: append([]Template(nil), cfg.Secondary...),
		fallback:  append([]Template(nil), cfg.Fallback...),
	}
}

// Route substitutes contentID (and externalID, when the template asks for a
// cross-reference id) into every configured template.
func (r *Router) Route(contentID, externalID string) Tiers {
	return Tiers{
		Primary:   expand(r.primary, contentID, externalID),
		Secondary: expand(r.secondary, contentID, externalID),
		Fallback:  expand(r.fallback, contentID, externalID),
	}
}

// Adapt maps a raw payload from endpoint into zero or more RawCandidates.
// Parsing failures and missing fields never propagate past this boundary; a
// shape the adapter does not recognize contributes nothing.
func (r *Router) Adapt(endpoint Endpoint, payload json.RawMessage) []domain.RawCandidate {
	if len(payload) == 0 {
		return nil
	}
	switch endpoint.Family {
	case domain.FamilyMetaXref:
		return adaptMetaXref(endpoint, payload)
	case domain.FamilyQualityIndex:
		return adaptQualityIndex(endpoint, payload)
	case domain.FamilyStreamList:
		return adaptStreamList(endpoint, payload)
	default:
		return nil
	}
}

func expand(templates []Template, contentID, externalID string) []Endpoint {
	out := make([]Endpoint, 0, len(templates))
	for _, template := range templates {
		url := strings.TrimSpace(template.URL)
		if url == "" {
			continue
		}
		if strings.Contains(url, extIDToken) {
			if strings.TrimSpace(externalID) == "" {
				continue
			}
			url = strings.ReplaceAll(url, extIDToken, externalID)
		}
		url = strings.ReplaceAll(url, idToken, contentID)
		out = append(out, Endpoint{
			URL:       url,
			Family:    template.Family,
			SourceTag: template.SourceTag,
		})
	}
	return out
}

// ParseTemplates parses the "family|tag|url" comma-separated env format
// used by configuration. Malformed entries are dropped.
func ParseTemplates(raw string) []Template {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]Template, 0, len(parts))
	for _, part := range parts {
		fields := strings.SplitN(strings.TrimSpace(part), "|", 3)
		if len(fields) != 3 {
			continue
		}
		family := domain.SourceFamily(strings.ToLower(strings.TrimSpace(fields[0])))
		switch family {
		case domain.FamilyMetaXref, domain.FamilyQualityIndex, domain.FamilyStreamList:
		default:
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(fields[1]))
		url := strings.TrimSpace(fields[2])
		if tag == "" || url == "" {
			continue
		}
		out = append(out, Template{URL: url, Family: family, SourceTag: tag})
	}
	return out
}
