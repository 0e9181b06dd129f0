package domain

import (
	"net/url"
	"strings"
)

// Feed represents one configured podcast feed endpoint.
// Identity is the URL; a Feed is immutable once configured.
type Feed struct {
	// ID is a short stable identifier for the feed, derived from the URL
	// when the configuration does not set one.
	ID string `yaml:"id" json:"id"`

	// URL is the syndication endpoint to fetch.
	URL string `yaml:"url" json:"url"`

	// Label is a human-readable name used in reports and payload groups.
	Label string `yaml:"label" json:"label"`
}

// Normalize fills in a missing ID from the URL host+path+query so that every
// configured feed has a usable identifier and distinct URLs derive distinct
// IDs (some hosts address feeds via query parameters).
func (f Feed) Normalize() Feed {
	if f.ID != "" {
		return f
	}
	f.ID = deriveFeedID(f.URL)
	return f
}

func deriveFeedID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}
	id := u.Host + strings.TrimSuffix(u.Path, "/")
	if u.RawQuery != "" {
		id += "?" + u.RawQuery
	}
	return id
}
