package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Invidious adapts the Invidious REST API (api/v1) to the domain model.
type Invidious struct {
	instance string // e.g. "https://invidious.example.com"
	token    string
	client   *httputil.Client
}

// NewInvidious creates an adapter bound to one Invidious instance.
func NewInvidious(instance string, client *httputil.Client) *Invidious {
	return &Invidious{
		instance: strings.TrimRight(instance, "/"),
		client:   client,
	}
}

// SetToken rebinds the adapter's credentials, e.g. on account switch.
func (iv *Invidious) SetToken(token string) {
	iv.token = token
}

func (iv *Invidious) Backend() media.Backend {
	return media.BackendInvidious
}

func (iv *Invidious) Capabilities() Capabilities {
	return Capabilities{
		Subscriptions: true,
		SearchFilters: true,
		Popular:       true,
	}
}

func (iv *Invidious) SignedIn() bool {
	return iv.token != ""
}

func (iv *Invidious) apiURL(segments ...string) string {
	return httputil.BuildURL(iv.instance+"/api/v1", segments...)
}

// FetchVideo retrieves and normalizes one video with its streams.
func (iv *Invidious) FetchVideo(ctx context.Context, id string) (*media.Video, error) {
	if err := httputil.ValidateVideoID(id); err != nil {
		return nil, fmt.Errorf("invalid video ID: %w", err)
	}

	body, err := iv.client.GetJSON(ctx, iv.apiURL("videos", id), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parseInvidiousVideo(body)
}

// FetchChannel retrieves a channel with its inline recent videos.
func (iv *Invidious) FetchChannel(ctx context.Context, id string) (*media.Channel, error) {
	if err := httputil.ValidateChannelID(id); err != nil {
		return nil, fmt.Errorf("invalid channel ID: %w", err)
	}

	body, err := iv.client.GetJSON(ctx, iv.apiURL("channels", id), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parseInvidiousChannel(body)
}

// FetchTrending lists trending videos for a region, optionally scoped to a
// category (music, gaming, news, movies).
func (iv *Invidious) FetchTrending(ctx context.Context, region, category string) ([]media.Video, error) {
	params := url.Values{}
	if region != "" {
		params.Set("region", region)
	}
	if category != "" {
		params.Set("type", category)
	}

	u := iv.apiURL("trending")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := iv.client.GetJSON(ctx, u, iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parseInvidiousVideoList(body)
}

// FetchPopular lists the instance's popular videos.
func (iv *Invidious) FetchPopular(ctx context.Context) ([]media.Video, error) {
	body, err := iv.client.GetJSON(ctx, iv.apiURL("popular"), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parseInvidiousVideoList(body)
}

// invidiousSort maps domain sort orders onto the sort_by parameter.
func invidiousSort(s media.SearchSort) string {
	switch s {
	case media.SortDate:
		return "upload_date"
	case media.SortViews:
		return "view_count"
	case media.SortRating:
		return "rating"
	default:
		return "relevance"
	}
}

// Search runs a filtered search and classifies results into content items.
func (iv *Invidious) Search(ctx context.Context, query media.SearchQuery, page int) ([]media.ContentItem, error) {
	params := url.Values{}
	params.Set("q", query.Query)
	params.Set("sort_by", invidiousSort(query.Sort))
	if query.Date != media.DateAny {
		params.Set("date", string(query.Date))
	}
	if query.Duration != media.DurationAny {
		params.Set("duration", string(query.Duration))
	}
	if page > 1 {
		params.Set("page", fmt.Sprint(page))
	}

	body, err := iv.client.GetJSON(ctx, iv.apiURL("search")+"?"+params.Encode(), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return parseInvidiousSearch(body)
}

// SearchSuggestions returns completion suggestions for partial query text.
func (iv *Invidious) SearchSuggestions(ctx context.Context, text string) ([]string, error) {
	params := url.Values{}
	params.Set("q", text)

	body, err := iv.client.GetJSON(ctx, iv.apiURL("search", "suggestions")+"?"+params.Encode(), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapDecodeErr("suggestions", err)
	}
	return resp.Suggestions, nil
}

// FetchSubscriptions lists the signed-in account's subscribed channels.
func (iv *Invidious) FetchSubscriptions(ctx context.Context) ([]media.Channel, error) {
	body, err := iv.client.GetJSON(ctx, iv.apiURL("auth", "subscriptions"), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapDecodeErr("subscriptions", err)
	}

	channels := make([]media.Channel, 0, len(raw))
	for _, item := range raw {
		var sub struct {
			Author   string `json:"author"`
			AuthorID string `json:"authorId"`
		}
		if err := json.Unmarshal(item, &sub); err != nil || sub.AuthorID == "" {
			continue
		}
		channels = append(channels, media.Channel{ID: sub.AuthorID, Name: sub.Author})
	}
	return channels, nil
}

// FetchFeed lists the signed-in account's subscription feed.
func (iv *Invidious) FetchFeed(ctx context.Context) ([]media.Video, error) {
	body, err := iv.client.GetJSON(ctx, iv.apiURL("auth", "feed"), iv.token)
	if err != nil {
		return nil, mapFetchErr(err)
	}

	var feed struct {
		Notifications []json.RawMessage `json:"notifications"`
		Videos        []json.RawMessage `json:"videos"`
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, wrapDecodeErr("feed", err)
	}

	videos := make([]media.Video, 0, len(feed.Notifications)+len(feed.Videos))
	for _, raw := range append(feed.Notifications, feed.Videos...) {
		if v, err := parseInvidiousVideo(raw); err == nil {
			videos = append(videos, *v)
		}
	}
	return videos, nil
}

// Subscribe adds a channel to the signed-in account's subscriptions.
func (iv *Invidious) Subscribe(ctx context.Context, channelID string) error {
	if err := httputil.ValidateChannelID(channelID); err != nil {
		return fmt.Errorf("invalid channel ID: %w", err)
	}
	return iv.client.Send(ctx, http.MethodPost, iv.apiURL("auth", "subscriptions", channelID), iv.token, nil)
}

// Unsubscribe removes a channel from the signed-in account's subscriptions.
func (iv *Invidious) Unsubscribe(ctx context.Context, channelID string) error {
	if err := httputil.ValidateChannelID(channelID); err != nil {
		return fmt.Errorf("invalid channel ID: %w", err)
	}
	return iv.client.Send(ctx, http.MethodDelete, iv.apiURL("auth", "subscriptions", channelID), iv.token, nil)
}
