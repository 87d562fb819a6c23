// Package provider normalizes the Invidious and Piped upstream APIs into
// the shared domain model behind a single VideosAPI contract.
package provider

import (
	"context"

	"urchin/internal/media"
)

// Capabilities is the per-backend feature table. Callers branch on these
// flags before invoking optional operations instead of probing for errors.
type Capabilities struct {
	// Subscriptions: the backend exposes an authenticated subscription
	// list with subscribe/unsubscribe and a feed.
	Subscriptions bool
	// SearchFilters: sort/date/duration filters are honored by search.
	SearchFilters bool
	// Popular: the backend has a popular-videos listing distinct from
	// trending.
	Popular bool
}

// VideosAPI is the uniform resource-fetch contract both adapters satisfy.
// All fetches are context-bound; results are fully normalized domain
// values. Batch operations drop unparsable items rather than failing the
// whole response.
type VideosAPI interface {
	Backend() media.Backend
	Capabilities() Capabilities

	// SignedIn reports whether the adapter currently carries credentials.
	SignedIn() bool

	FetchVideo(ctx context.Context, id string) (*media.Video, error)
	FetchChannel(ctx context.Context, id string) (*media.Channel, error)
	FetchTrending(ctx context.Context, region, category string) ([]media.Video, error)
	// Search pages are 1-based. Backends without numeric paging serve
	// only page 1 and answer later pages with an empty result.
	Search(ctx context.Context, query media.SearchQuery, page int) ([]media.ContentItem, error)
	SearchSuggestions(ctx context.Context, text string) ([]string, error)

	// Only-if-supported operations. Adapters without the matching
	// capability return ErrUnsupported.
	FetchPopular(ctx context.Context) ([]media.Video, error)
	FetchSubscriptions(ctx context.Context) ([]media.Channel, error)
	FetchFeed(ctx context.Context) ([]media.Video, error)
	Subscribe(ctx context.Context, channelID string) error
	Unsubscribe(ctx context.Context, channelID string) error
}
