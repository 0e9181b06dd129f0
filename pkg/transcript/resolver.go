// Package transcript resolves episode transcripts, fetching referenced
// documents and extracting their text.
package transcript

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"transcript-collector/pkg/domain"
	"transcript-collector/pkg/httpclient"
)

// Resolver turns episodes into resolved episodes with a guaranteed non-empty
// transcript. Transcript unavailability is never fatal: a failed or empty
// resolution drops the episode by returning nil.
type Resolver struct {
	client *httpclient.HTTPClient
}

// NewResolver creates a resolver with the given per-request timeout.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: httpclient.NewClientWithTimeout(httpclient.BrowserClient, timeout),
	}
}

// Resolve returns the resolved episode, or nil when no transcript can be
// obtained. An inline transcript passes through unchanged apart from
// whitespace normalization; otherwise the referenced document is fetched and
// its text extracted by file extension, then by content type.
func (r *Resolver) Resolve(ctx context.Context, ep domain.Episode) *domain.ResolvedEpisode {
	if text := NormalizeWhitespace(ep.Transcript); text != "" {
		resolved := domain.NewResolvedEpisode(ep, text)
		return &resolved
	}

	ref := strings.TrimSpace(ep.TranscriptRef)
	if ref == "" {
		return nil
	}

	text, err := r.fetchAndExtract(ctx, ref)
	if err != nil {
		log.Printf("[WARN] dropping episode %s/%s: %v", ep.FeedID, ep.ExternalID, err)
		return nil
	}
	if text == "" {
		log.Printf("[WARN] dropping episode %s/%s: empty transcript at %s", ep.FeedID, ep.ExternalID, ref)
		return nil
	}

	resolved := domain.NewResolvedEpisode(ep, text)
	return &resolved
}

func (r *Resolver) fetchAndExtract(ctx context.Context, transcriptURL string) (string, error) {
	body, contentType, err := r.client.GetBytes(ctx, transcriptURL)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(path.Ext(urlPath(transcriptURL))) {
	case ".txt":
		return NormalizeWhitespace(string(body)), nil
	case ".vtt", ".srt":
		return ExtractFromCues(string(body)), nil
	case ".pdf":
		return ExtractFromPDF(body)
	}

	// No telling extension; fall back to the content type.
	lct := strings.ToLower(contentType)
	switch {
	case strings.Contains(lct, "text/vtt"):
		return ExtractFromCues(string(body)), nil
	case strings.Contains(lct, "text/plain"):
		return NormalizeWhitespace(string(body)), nil
	case strings.Contains(lct, "application/pdf"):
		return ExtractFromPDF(body)
	case strings.Contains(lct, "text/html"):
		return ExtractFromHTML(string(body))
	default:
		// Lightly-marked-up text is the common case for unlabeled bodies.
		return ExtractFromHTML(string(body))
	}
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
