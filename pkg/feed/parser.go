package feed

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"transcript-collector/pkg/domain"
)

// Parser turns raw feed content into episode records.
type Parser struct {
	feedParser *gofeed.Parser
}

// NewParser creates a new episode parser.
func NewParser() *Parser {
	return &Parser{
		feedParser: gofeed.NewParser(),
	}
}

// Parse parses the raw feed document into episodes for feed f. Items missing
// optional fields are kept (an absent transcript reference just means the
// resolver will drop the episode later); items with a duplicate external id
// within the same document are collapsed, keeping the first occurrence.
// Structurally invalid content returns a *ParseError.
func (p *Parser) Parse(f domain.Feed, raw []byte) ([]domain.Episode, error) {
	parsed, err := p.feedParser.ParseString(string(raw))
	if err != nil {
		return nil, &ParseError{FeedID: f.ID, Err: err}
	}

	episodes := make([]domain.Episode, 0, len(parsed.Items))
	seen := make(map[string]bool, len(parsed.Items))

	for _, item := range parsed.Items {
		externalID := itemExternalID(item)
		if externalID == "" {
			// No way to identify the episode; skip rather than fail the feed.
			continue
		}
		if seen[externalID] {
			continue
		}
		seen[externalID] = true

		ep := domain.Episode{
			FeedID:      f.ID,
			ExternalID:  externalID,
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: itemPublishedAt(item),
		}
		ep.Transcript, ep.TranscriptRef = itemTranscript(item)
		if ep.TranscriptRef != "" {
			if resolved, err := resolveAgainst(f.URL, ep.TranscriptRef); err == nil {
				ep.TranscriptRef = resolved
			}
		}

		episodes = append(episodes, ep)
	}

	return episodes, nil
}

func itemExternalID(item *gofeed.Item) string {
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid
	}
	return strings.TrimSpace(item.Link)
}

func itemPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// itemTranscript locates the episode transcript. The podcast:transcript
// extension wins: its url attribute becomes the reference, a bare element
// body counts as an inline transcript. Failing that, a document-like
// (.txt/.pdf) enclosure or item link becomes the reference.
func itemTranscript(item *gofeed.Item) (inline, ref string) {
	if exts, ok := item.Extensions["podcast"]; ok {
		for _, ext := range exts["transcript"] {
			if u := strings.TrimSpace(ext.Attrs["url"]); u != "" {
				return "", u
			}
			if v := strings.TrimSpace(ext.Value); v != "" {
				return v, ""
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && isTranscriptDocumentHref(enc.URL) {
			return "", strings.TrimSpace(enc.URL)
		}
	}

	if isTranscriptDocumentHref(item.Link) {
		return "", strings.TrimSpace(item.Link)
	}

	return "", ""
}

func isTranscriptDocumentHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return hasTranscriptExt(href)
	}
	return hasTranscriptExt(u.Path)
}

func hasTranscriptExt(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf", ".txt", ".vtt", ".srt":
		return true
	default:
		return false
	}
}

func resolveAgainst(baseURL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
