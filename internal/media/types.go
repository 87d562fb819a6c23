// Package media defines the domain model shared across backends:
// videos, channels, streams, search queries and sponsor segments.
// Values are constructed once by an adapter and immutable afterwards.
package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Backend identifies which upstream API a value came from.
// A Video identity is the (Backend, ID) pair and never crosses backends.
type Backend string

const (
	BackendInvidious = Backend("invidious")
	BackendPiped     = Backend("piped")
)

func (b Backend) String() string {
	return string(b)
}

// ParseBackend maps a configuration string to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "invidious":
		return BackendInvidious, nil
	case "piped":
		return BackendPiped, nil
	default:
		return "", fmt.Errorf("unknown backend %q (valid: invidious, piped)", s)
	}
}

// ThumbnailQuality is the closed set of thumbnail renditions.
type ThumbnailQuality string

const (
	ThumbnailDefault  = ThumbnailQuality("default")
	ThumbnailMedium   = ThumbnailQuality("medium")
	ThumbnailHigh     = ThumbnailQuality("high")
	ThumbnailStandard = ThumbnailQuality("standard")
	ThumbnailMaxres   = ThumbnailQuality("maxres")
)

// ThumbnailQualities lists all renditions in ascending size order.
var ThumbnailQualities = []ThumbnailQuality{
	ThumbnailDefault,
	ThumbnailMedium,
	ThumbnailHigh,
	ThumbnailStandard,
	ThumbnailMaxres,
}

// FilenameToken returns the upstream filename stem for this rendition
// (e.g. "hqdefault" in .../hqdefault.jpg).
func (q ThumbnailQuality) FilenameToken() string {
	switch q {
	case ThumbnailDefault:
		return "default"
	case ThumbnailMedium:
		return "mqdefault"
	case ThumbnailHigh:
		return "hqdefault"
	case ThumbnailStandard:
		return "sddefault"
	case ThumbnailMaxres:
		return "maxresdefault"
	default:
		return ""
	}
}

// Thumbnail is one rendition of a video's preview image.
type Thumbnail struct {
	URL     string
	Quality ThumbnailQuality
}

// Resolution tags a stream rendition. The zero value means unknown.
type Resolution string

// Known resolutions, lowest to highest.
var resolutionOrder = []Resolution{
	"144p", "240p", "360p", "480p",
	"720p", "720p60", "1080p", "1080p60",
	"1440p", "2160p",
}

// Rank returns the position of r in the defined ordering, or -1 when the
// tag is not part of the closed set. Higher rank means preferred for
// default playback.
func (r Resolution) Rank() int {
	for i, known := range resolutionOrder {
		if r == known {
			return i
		}
	}
	return -1
}

// Height returns the pixel height encoded in the tag, 0 when unknown.
func (r Resolution) Height() int {
	s := string(r)
	if i := strings.IndexByte(s, 'p'); i > 0 {
		if h, err := strconv.Atoi(s[:i]); err == nil {
			return h
		}
	}
	return 0
}

// StreamKind distinguishes how a stream is delivered.
type StreamKind int

const (
	// StreamAdaptive pairs separate audio and video assets combined at
	// playback time.
	StreamAdaptive StreamKind = iota
	// StreamSingle is one muxed audio+video asset.
	StreamSingle
	// StreamHLS points at an HLS manifest.
	StreamHLS
)

func (k StreamKind) String() string {
	switch k {
	case StreamAdaptive:
		return "adaptive"
	case StreamSingle:
		return "single"
	case StreamHLS:
		return "hls"
	default:
		return "unknown"
	}
}

// Stream is one playable rendition of a video. For adaptive streams both
// AudioURL and VideoURL are set; single and HLS streams use VideoURL only.
type Stream struct {
	Kind       StreamKind
	VideoURL   string
	AudioURL   string
	Resolution Resolution
}

// Video is a normalized upstream video. Identity is (Backend, ID).
type Video struct {
	Backend     Backend
	ID          string
	Title       string
	Author      string
	ChannelID   string
	Length      float64 // seconds
	Published   string  // backend display string, parsed lazily if at all
	Views       int64
	Description string // plain text, HTML stripped
	Likes       int64
	Dislikes    int64
	Thumbnails  []Thumbnail
	Streams     []Stream
	Captions    []Caption
}

// BestStream returns the stream preferred for default playback: HLS first,
// otherwise the highest-ranked resolution. Returns nil when no streams
// were produced.
func (v *Video) BestStream() *Stream {
	var best *Stream
	for i := range v.Streams {
		s := &v.Streams[i]
		if s.Kind == StreamHLS {
			return s
		}
		if best == nil || s.Resolution.Rank() > best.Resolution.Rank() {
			best = s
		}
	}
	return best
}

// StreamAt returns the stream matching the requested resolution, falling
// back to BestStream when no exact match exists.
func (v *Video) StreamAt(res Resolution) *Stream {
	for i := range v.Streams {
		if v.Streams[i].Resolution == res {
			return &v.Streams[i]
		}
	}
	return v.BestStream()
}

// Caption is a subtitle track attached to a video.
type Caption struct {
	Label string
	Code  string // language code, e.g. "en"
	URL   string
}

// Channel is a normalized upstream channel.
type Channel struct {
	ID           string
	Name         string
	ThumbnailURL string
	Subscribers  int64
	Videos       []Video // only present when a listing embeds them
}

// Playlist is a normalized upstream playlist listing.
type Playlist struct {
	ID         string
	Title      string
	Author     string
	VideoCount int64
	Videos     []Video // only present when a listing embeds them
}

// ContentKind tags entries of a mixed result listing.
type ContentKind int

const (
	ContentVideo ContentKind = iota
	ContentChannel
	ContentPlaylist
)

func (k ContentKind) String() string {
	switch k {
	case ContentVideo:
		return "video"
	case ContentChannel:
		return "channel"
	case ContentPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// ContentItem is a tagged union over video, channel and playlist entries.
// Exactly the field matching Kind is set.
type ContentItem struct {
	Kind     ContentKind
	Video    *Video
	Channel  *Channel
	Playlist *Playlist
}

// SearchSort is the closed set of result orderings.
type SearchSort string

const (
	SortRelevance = SearchSort("relevance")
	SortDate      = SearchSort("date")
	SortViews     = SearchSort("views")
	SortRating    = SearchSort("rating")
)

// SearchDate restricts results by upload recency.
type SearchDate string

const (
	DateAny   = SearchDate("")
	DateHour  = SearchDate("hour")
	DateToday = SearchDate("today")
	DateWeek  = SearchDate("week")
	DateMonth = SearchDate("month")
	DateYear  = SearchDate("year")
)

// SearchDuration restricts results by video length.
type SearchDuration string

const (
	DurationAny   = SearchDuration("")
	DurationShort = SearchDuration("short")
	DurationLong  = SearchDuration("long")
)

// SearchQuery is the structured search request: free text plus filters.
type SearchQuery struct {
	Query    string
	Sort     SearchSort
	Date     SearchDate
	Duration SearchDuration
}

// NewSearchQuery returns a query with default filters.
func NewSearchQuery(text string) SearchQuery {
	return SearchQuery{Query: text, Sort: SortRelevance}
}

// IsEmpty reports whether the query has no text.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Query) == ""
}

// Descriptor returns the canonical string identifying this query including
// filters. Persisted favorites are matched against it. An unset sort is
// canonicalized to relevance so zero-valued and default queries agree.
func (q SearchQuery) Descriptor() string {
	sort := q.Sort
	if sort == "" {
		sort = SortRelevance
	}
	return strings.Join([]string{
		q.Query,
		string(sort),
		string(q.Date),
		string(q.Duration),
	}, "\x1f")
}

// Segment is a sponsor-block skip range, in seconds of playback time.
type Segment struct {
	Category string
	Start    float64
	End      float64
}

// Contains reports whether the play-head position falls inside the segment.
func (s Segment) Contains(pos float64) bool {
	return pos >= s.Start && pos < s.End
}

// resumeThreshold is the remaining playtime, in seconds, below which a
// queue item is treated as finished and restarted instead of resumed.
const resumeThreshold = 10

// QueueItem is a persisted player-queue record used to resume playback.
type QueueItem struct {
	ID            string
	Backend       Backend
	VideoID       string
	Title         string
	PlaybackTime  float64
	VideoDuration float64
}

// ShouldRestart reports whether playback should restart from the beginning
// rather than resume: true when at most 10 seconds remain.
func (q QueueItem) ShouldRestart() bool {
	if q.VideoDuration <= 0 {
		return false
	}
	return q.VideoDuration-q.PlaybackTime <= resumeThreshold
}

// ResumePosition returns the position playback should start from.
func (q QueueItem) ResumePosition() float64 {
	if q.ShouldRestart() {
		return 0
	}
	return q.PlaybackTime
}
