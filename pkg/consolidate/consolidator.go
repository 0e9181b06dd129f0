// Package consolidate merges resolved episodes from all feeds into one
// ordered, deduplicated payload.
package consolidate

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"transcript-collector/pkg/domain"
)

// Consolidator builds payloads deterministically: output order depends only
// on the data, never on the order in which feed pipelines completed. The
// clock and id source are injectable so tests can demand byte-identical
// payloads across runs.
type Consolidator struct {
	now   func() time.Time
	newID func() string
}

// New creates a consolidator using the wall clock and random payload ids.
func New() *Consolidator {
	return &Consolidator{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewWithClock creates a consolidator with a fixed clock and id source.
func NewWithClock(now func() time.Time, newID func() string) *Consolidator {
	return &Consolidator{now: now, newID: newID}
}

// Consolidate merges resolved episodes into a single payload. Feed groups
// follow the configured feed order; within a feed, episodes are sorted by
// published date ascending with external id as the tiebreak. The
// (feed, external id) key is deduplicated globally, later occurrences winning
// so a re-run pass can replace earlier content. failedFeeds is the number of
// configured feeds excluded by fetch/parse failures, recorded in the
// manifest. An all-empty input produces a valid empty payload.
func (c *Consolidator) Consolidate(feeds []domain.Feed, resolved map[string][]domain.ResolvedEpisode, failedFeeds int) *domain.Payload {
	payload := &domain.Payload{
		ID:          c.newID(),
		GeneratedAt: c.now().UTC(),
		Groups:      []domain.FeedGroup{},
	}
	payload.Manifest.FailedFeeds = failedFeeds

	// owner maps every key to the last group claiming it, so a key repeated
	// across groups (feeds sharing a derived id) survives exactly once.
	groups := make([]domain.FeedGroup, 0, len(feeds))
	owner := make(map[domain.EpisodeKey]int)

	for _, f := range feeds {
		episodes := dedupe(resolved[f.ID])
		if len(episodes) == 0 {
			continue
		}

		sort.Slice(episodes, func(i, j int) bool {
			if !episodes[i].PublishedAt.Equal(episodes[j].PublishedAt) {
				return episodes[i].PublishedAt.Before(episodes[j].PublishedAt)
			}
			return episodes[i].ExternalID < episodes[j].ExternalID
		})

		groups = append(groups, domain.FeedGroup{
			FeedID:   f.ID,
			Label:    f.Label,
			Episodes: episodes,
		})
		for _, ep := range episodes {
			owner[ep.Key()] = len(groups) - 1
		}
	}

	for gi, g := range groups {
		kept := g.Episodes[:0]
		for _, ep := range g.Episodes {
			if owner[ep.Key()] == gi {
				kept = append(kept, ep)
			}
		}
		if len(kept) == 0 {
			continue
		}

		g.Episodes = kept
		payload.Groups = append(payload.Groups, g)

		payload.Manifest.FeedCount++
		payload.Manifest.EpisodeCount += len(kept)
		for _, ep := range kept {
			payload.Manifest.ByteSize += len(ep.Transcript)
		}
	}

	return payload
}

// dedupe collapses episodes sharing a (feed, external id) key, keeping the
// content of the last occurrence.
func dedupe(episodes []domain.ResolvedEpisode) []domain.ResolvedEpisode {
	if len(episodes) == 0 {
		return nil
	}

	index := make(map[domain.EpisodeKey]int, len(episodes))
	out := make([]domain.ResolvedEpisode, 0, len(episodes))

	for _, ep := range episodes {
		key := ep.Key()
		if i, ok := index[key]; ok {
			out[i] = ep
			continue
		}
		index[key] = len(out)
		out = append(out, ep)
	}

	return out
}
