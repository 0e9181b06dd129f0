package feed

import "fmt"

// FetchError reports a failed feed fetch (transport error, timeout, or
// non-2xx status). It carries the feed id so callers can isolate the failure
// to one feed.
type FetchError struct {
	FeedID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.FeedID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports structurally invalid feed content. Missing optional
// fields never produce a ParseError.
type ParseError struct {
	FeedID string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed %s: %v", e.FeedID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
