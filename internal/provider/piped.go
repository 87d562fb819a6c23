package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Piped adapts the Piped REST API to the domain model. Piped instances are
// queried unauthenticated: subscriptions, feed and popular listings are
// outside its capability table.
type Piped struct {
	instance string
	client   *httputil.Client
}

// NewPiped creates an adapter bound to one Piped instance.
func NewPiped(instance string, client *httputil.Client) *Piped {
	return &Piped{
		instance: strings.TrimRight(instance, "/"),
		client:   client,
	}
}

func (p *Piped) Backend() media.Backend {
	return media.BackendPiped
}

func (p *Piped) Capabilities() Capabilities {
	return Capabilities{}
}

func (p *Piped) SignedIn() bool {
	return false
}

// FetchVideo retrieves and normalizes one video with its streams. The
// streams endpoint does not echo the id, so it is carried through from
// the request.
func (p *Piped) FetchVideo(ctx context.Context, id string) (*media.Video, error) {
	if err := httputil.ValidateVideoID(id); err != nil {
		return nil, fmt.Errorf("invalid video ID: %w", err)
	}

	body, err := p.client.GetJSON(ctx, httputil.BuildURL(p.instance, "streams", id), "")
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parsePipedVideo(body, id)
}

// FetchChannel retrieves a channel with its inline recent videos.
func (p *Piped) FetchChannel(ctx context.Context, id string) (*media.Channel, error) {
	if err := httputil.ValidateChannelID(id); err != nil {
		return nil, fmt.Errorf("invalid channel ID: %w", err)
	}

	body, err := p.client.GetJSON(ctx, httputil.BuildURL(p.instance, "channel", id), "")
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parsePipedChannel(body)
}

// FetchTrending lists trending videos for a region. Piped has no category
// filter; a non-empty category is ignored.
func (p *Piped) FetchTrending(ctx context.Context, region, category string) ([]media.Video, error) {
	if region == "" {
		region = "US"
	}
	params := url.Values{}
	params.Set("region", region)

	body, err := p.client.GetJSON(ctx, p.instance+"/trending?"+params.Encode(), "")
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parsePipedVideoList(body)
}

// Search runs a text search. Piped does not honor sort/date/duration
// filters (SearchFilters capability is false); only the text is sent.
// Piped paginates with an opaque nextpage token rather than page numbers,
// so only the first page is served; later pages report no more results.
func (p *Piped) Search(ctx context.Context, query media.SearchQuery, page int) ([]media.ContentItem, error) {
	if page > 1 {
		return []media.ContentItem{}, nil
	}

	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("filter", "all")

	body, err := p.client.GetJSON(ctx, p.instance+"/search?"+params.Encode(), "")
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parsePipedSearch(body)
}

// SearchSuggestions returns completion suggestions for partial query text.
func (p *Piped) SearchSuggestions(ctx context.Context, text string) ([]string, error) {
	params := url.Values{}
	params.Set("query", text)

	body, err := p.client.GetJSON(ctx, p.instance+"/suggestions?"+params.Encode(), "")
	if err != nil {
		return nil, mapFetchErr(err)
	}

	var suggestions []string
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, wrapDecodeErr("suggestions", err)
	}
	return suggestions, nil
}

// FetchPopular is not supported by Piped.
func (p *Piped) FetchPopular(ctx context.Context) ([]media.Video, error) {
	return nil, ErrUnsupported
}

// FetchSubscriptions is not supported by unauthenticated Piped.
func (p *Piped) FetchSubscriptions(ctx context.Context) ([]media.Channel, error) {
	return nil, ErrUnsupported
}

// FetchFeed is not supported by unauthenticated Piped.
func (p *Piped) FetchFeed(ctx context.Context) ([]media.Video, error) {
	return nil, ErrUnsupported
}

// Subscribe is not supported by unauthenticated Piped.
func (p *Piped) Subscribe(ctx context.Context, channelID string) error {
	return ErrUnsupported
}

// Unsubscribe is not supported by unauthenticated Piped.
func (p *Piped) Unsubscribe(ctx context.Context, channelID string) error {
	return ErrUnsupported
}
