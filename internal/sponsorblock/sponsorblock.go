// Package sponsorblock fetches skippable segments for a video from a
// SponsorBlock-compatible API. Lookup is best effort: playback never
// depends on it succeeding.
package sponsorblock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Client holds the segments for the video currently being prepared or
// played. An empty instance URL disables lookup entirely.
type Client struct {
	http       *httputil.Client
	instance   string
	categories []string

	mu       sync.Mutex
	videoID  string
	segments []media.Segment
}

// New builds a client for one API instance. categories selects which
// segment kinds are requested.
func New(http *httputil.Client, instance string, categories []string) *Client {
	return &Client{http: http, instance: instance, categories: categories}
}

// Enabled reports whether segment lookup is configured at all.
func (c *Client) Enabled() bool {
	return c.instance != "" && len(c.categories) > 0
}

// Segments returns the loaded segments, deduplicated and in ascending
// end-time order.
func (c *Client) Segments() []media.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.segments
}

// VideoID returns the video the current segments belong to.
func (c *Client) VideoID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoID
}

// Clear drops all loaded segments.
func (c *Client) Clear() {
	c.mu.Lock()
	c.videoID = ""
	c.segments = nil
	c.mu.Unlock()
}

// SkipTarget returns the end of the segment containing position, if any.
// Segments are ordered by end, so the first hit is the earliest exit
// point.
func (c *Client) SkipTarget(position float64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, seg := range c.segments {
		if seg.Contains(position) {
			return seg.End, true
		}
	}
	return 0, false
}

// skipSegmentsResponse is one record of the skipSegments endpoint.
type skipSegmentsResponse struct {
	Category string     `json:"category"`
	Segment  [2]float64 `json:"segment"`
}

// Load fetches segments for videoID, replacing whatever was loaded for a
// different video. Loading the same video again is a no-op. On failure
// the client ends up with no segments and the error is returned for the
// caller to log.
func (c *Client) Load(ctx context.Context, videoID string) error {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	if c.videoID == videoID {
		c.mu.Unlock()
		return nil
	}
	// Stale segments must never apply to the new video, even while the
	// fetch is still running.
	c.videoID = videoID
	c.segments = nil
	c.mu.Unlock()

	segments, err := c.fetch(ctx, videoID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.videoID != videoID {
		// Another Load superseded this one.
		return nil
	}
	if err != nil {
		c.segments = nil
		return fmt.Errorf("loading segments for %s: %w", videoID, err)
	}
	c.segments = segments
	return nil
}

func (c *Client) fetch(ctx context.Context, videoID string) ([]media.Segment, error) {
	categories, err := json.Marshal(c.categories)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("videoID", videoID)
	params.Set("categories", string(categories))
	u := httputil.BuildURL(c.instance, "api", "skipSegments") + "?" + params.Encode()

	data, err := c.http.GetJSON(ctx, u, "")
	if err != nil {
		// The API answers 404 when a video simply has no segments.
		if errors.Is(err, httputil.ErrStatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []skipSegmentsResponse
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing segments: %w", err)
	}

	return normalize(records), nil
}

// normalize converts API records to domain segments, dropping duplicates
// that share an end time and ordering the rest by ascending end.
func normalize(records []skipSegmentsResponse) []media.Segment {
	seenEnd := make(map[float64]bool, len(records))
	segments := make([]media.Segment, 0, len(records))
	for _, r := range records {
		start, end := r.Segment[0], r.Segment[1]
		if end <= start {
			continue
		}
		if seenEnd[end] {
			continue
		}
		seenEnd[end] = true
		segments = append(segments, media.Segment{
			Category: r.Category,
			Start:    start,
			End:      end,
		})
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].End < segments[j].End
	})
	return segments
}
