package client

import (
	"context"
	"time"
)

// StatusKey groups status lookups that can share one batch request.
type StatusKey struct {
	ContentType string
	Locale      string
}

// StatusFetcher performs one batch status lookup. *Client implements it.
type StatusFetcher interface {
	BatchStatuses(ctx context.Context, contentType, locale string, documentIDs []string) (map[string]*string, error)
}

// StatusLoader turns per-row status lookups from list views into one batch
// request per content type and locale.
type StatusLoader struct {
	collector *Collector[StatusKey, string, *string]
}

const (
	DefaultStatusWindow  = 50 * time.Millisecond
	DefaultStatusMaxWait = 250 * time.Millisecond
)

func NewStatusLoader(fetcher StatusFetcher, window, maxWait time.Duration) *StatusLoader {
	fetch := func(ctx context.Context, key StatusKey, ids []string) (map[string]*string, error) {
		return fetcher.BatchStatuses(ctx, key.ContentType, key.Locale, ids)
	}
	return &StatusLoader{
		collector: NewCollector[StatusKey, string, *string](window, maxWait, 30*time.Second, fetch),
	}
}

// Load returns the current review status of the document, or nil when it has
// no review.
func (l *StatusLoader) Load(ctx context.Context, contentType, locale, documentID string) (*string, error) {
	return l.collector.Do(ctx, StatusKey{ContentType: contentType, Locale: locale}, documentID)
}
