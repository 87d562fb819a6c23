package provider

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

type pipedAV struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	Quality   string `json:"quality"`
	MimeType  string `json:"mimeType"`
	Bitrate   int64  `json:"bitrate"`
	VideoOnly bool   `json:"videoOnly"`
}

type pipedSubtitle struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// pipedStreams is the /streams/{id} response. The video id is absent from
// the body and supplied by the caller.
type pipedStreams struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Uploader     string          `json:"uploader"`
	UploaderName string          `json:"uploaderName"`
	UploaderURL  string          `json:"uploaderUrl"`
	Duration     float64         `json:"duration"`
	Views        int64           `json:"views"`
	Likes        int64           `json:"likes"`
	Dislikes     int64           `json:"dislikes"`
	UploadDate   string          `json:"uploadDate"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	HLS          string          `json:"hls"`
	AudioStreams []pipedAV       `json:"audioStreams"`
	VideoStreams []pipedAV       `json:"videoStreams"`
	Subtitles    []pipedSubtitle `json:"subtitles"`
}

// pipedItem is one entry of a search, trending or related-streams listing.
// The URL shape decides whether it is a video, channel or playlist.
type pipedItem struct {
	URL              string  `json:"url"`
	Title            string  `json:"title"`
	Name             string  `json:"name"` // channel items
	Thumbnail        string  `json:"thumbnail"`
	Uploader         string  `json:"uploader"`
	UploaderName     string  `json:"uploaderName"`
	UploaderURL      string  `json:"uploaderUrl"`
	UploadedDate     string  `json:"uploadedDate"`
	ShortDescription string  `json:"shortDescription"`
	Duration         float64 `json:"duration"`
	Views            int64   `json:"views"`
	Subscribers      int64   `json:"subscribers"`
}

// lastPathSegment returns the final path component of a URL or path.
func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// pipedChannelID extracts a channel id (the last path segment) from an
// uploader URL like "/channel/UCabc...".
func pipedChannelID(uploaderURL string) string {
	return lastPathSegment(uploaderURL)
}

// pipedVideoID extracts a video id from an item: first the `v` query
// parameter of the watch URL, then the fixed thumbnail path position
// (the segment after "vi" or "vi_webp"). When both fail the item is an
// explicit decode failure rather than a best-effort guess.
func pipedVideoID(watchURL, thumbnailURL string) (string, error) {
	if u, err := url.Parse(watchURL); err == nil {
		if id := u.Query().Get("v"); id != "" {
			if err := httputil.ValidateVideoID(id); err == nil {
				return id, nil
			}
		}
	}

	if u, err := url.Parse(thumbnailURL); err == nil {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segments {
			if (seg == "vi" || seg == "vi_webp") && i+1 < len(segments) {
				id := segments[i+1]
				if err := httputil.ValidateVideoID(id); err == nil {
					return id, nil
				}
				break
			}
		}
	}

	return "", decodeErr("video id")
}

// pipedUploader prefers uploaderName, falling back to uploader.
func pipedUploader(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// derivePipedThumbnails expands a single thumbnail URL into all quality
// renditions by substituting the filename token. A base URL without a
// known token yields no thumbnails, never an error.
func derivePipedThumbnails(base string) []media.Thumbnail {
	if base == "" {
		return nil
	}
	if _, err := url.Parse(base); err != nil {
		return nil
	}

	file := lastPathSegment(base)
	stem := strings.TrimSuffix(file, path.Ext(file))

	known := false
	for _, q := range media.ThumbnailQualities {
		if stem == q.FilenameToken() {
			known = true
			break
		}
	}
	if !known {
		return nil
	}

	thumbs := make([]media.Thumbnail, 0, len(media.ThumbnailQualities))
	for _, q := range media.ThumbnailQualities {
		// Anchor the token between the path separator and the extension
		// so "default" never matches inside "mqdefault".
		sibling := strings.Replace(base, "/"+stem+".", "/"+q.FilenameToken()+".", 1)
		thumbs = append(thumbs, media.Thumbnail{URL: sibling, Quality: q})
	}
	return thumbs
}

// pipedStreamList reconstructs playable streams: adaptive pairs from
// M4A audio + MP4 video-only candidates, muxed MP4 streams, and the HLS
// manifest when present.
func pipedStreamList(s *pipedStreams) []media.Stream {
	var audios, videos []streamCandidate
	var muxed []media.Stream

	for _, a := range s.AudioStreams {
		if a.Format != "M4A" && !strings.HasPrefix(a.MimeType, "audio/mp4") {
			continue
		}
		audios = append(audios, streamCandidate{URL: a.URL, Bitrate: a.Bitrate})
	}

	for _, v := range s.VideoStreams {
		if v.Format != "MPEG_4" && !strings.HasPrefix(v.MimeType, "video/mp4") {
			continue
		}
		if v.VideoOnly {
			videos = append(videos, streamCandidate{URL: v.URL, Resolution: media.Resolution(v.Quality)})
			continue
		}
		if v.URL != "" {
			muxed = append(muxed, media.Stream{
				Kind:       media.StreamSingle,
				VideoURL:   v.URL,
				Resolution: media.Resolution(v.Quality),
			})
		}
	}

	streams := buildAdaptiveStreams(audios, videos)
	streams = append(streams, muxed...)

	if s.HLS != "" {
		streams = append(streams, media.Stream{Kind: media.StreamHLS, VideoURL: s.HLS})
	}
	return streams
}

// parsePipedVideo normalizes a /streams/{id} response.
func parsePipedVideo(data []byte, id string) (*media.Video, error) {
	var raw pipedStreams
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("streams", err)
	}
	if raw.Title == "" {
		return nil, decodeErr("title")
	}

	captions := make([]media.Caption, 0, len(raw.Subtitles))
	for _, sub := range raw.Subtitles {
		if sub.URL == "" {
			continue
		}
		captions = append(captions, media.Caption{Label: sub.Name, Code: sub.Code, URL: sub.URL})
	}

	return &media.Video{
		Backend:     media.BackendPiped,
		ID:          id,
		Title:       raw.Title,
		Author:      pipedUploader(raw.UploaderName, raw.Uploader),
		ChannelID:   pipedChannelID(raw.UploaderURL),
		Length:      raw.Duration,
		Published:   raw.UploadDate,
		Views:       raw.Views,
		Likes:       raw.Likes,
		Dislikes:    raw.Dislikes,
		Description: cleanDescription(raw.Description),
		Thumbnails:  derivePipedThumbnails(raw.ThumbnailURL),
		Streams:     pipedStreamList(&raw),
		Captions:    captions,
	}, nil
}

// parsePipedItem normalizes one listing entry into a content item.
// Playlist entries are unsupported on Piped and reported as such.
func parsePipedItem(item pipedItem) (media.ContentItem, error) {
	switch {
	case strings.Contains(item.URL, "/playlist"):
		return media.ContentItem{}, ErrUnsupported

	case strings.Contains(item.URL, "/channel/"):
		id := lastPathSegment(item.URL)
		if id == "" {
			return media.ContentItem{}, decodeErr("channel id")
		}
		name := item.Name
		if name == "" {
			name = pipedUploader(item.UploaderName, item.Uploader)
		}
		return media.ContentItem{
			Kind: media.ContentChannel,
			Channel: &media.Channel{
				ID:           id,
				Name:         name,
				ThumbnailURL: item.Thumbnail,
				Subscribers:  item.Subscribers,
			},
		}, nil

	default:
		if item.Title == "" {
			return media.ContentItem{}, decodeErr("title")
		}
		id, err := pipedVideoID(item.URL, item.Thumbnail)
		if err != nil {
			return media.ContentItem{}, err
		}
		return media.ContentItem{
			Kind: media.ContentVideo,
			Video: &media.Video{
				Backend:     media.BackendPiped,
				ID:          id,
				Title:       item.Title,
				Author:      pipedUploader(item.UploaderName, item.Uploader),
				ChannelID:   pipedChannelID(item.UploaderURL),
				Length:      item.Duration,
				Published:   item.UploadedDate,
				Views:       item.Views,
				Description: cleanDescription(item.ShortDescription),
				Thumbnails:  derivePipedThumbnails(item.Thumbnail),
			},
		}, nil
	}
}

// parsePipedItems applies parsePipedItem across a listing, dropping items
// that fail to parse or are unsupported.
func parsePipedItems(raw []json.RawMessage) []media.ContentItem {
	items := make([]media.ContentItem, 0, len(raw))
	for _, entry := range raw {
		var item pipedItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		parsed, err := parsePipedItem(item)
		if err != nil {
			continue
		}
		items = append(items, parsed)
	}
	return items
}

// parsePipedVideoList normalizes a bare array of stream items (trending,
// related streams), keeping only the video entries.
func parsePipedVideoList(data []byte) ([]media.Video, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("video list", err)
	}

	var videos []media.Video
	for _, item := range parsePipedItems(raw) {
		if item.Kind == media.ContentVideo {
			videos = append(videos, *item.Video)
		}
	}
	if videos == nil {
		videos = []media.Video{}
	}
	return videos, nil
}

// parsePipedSearch normalizes a /search response.
func parsePipedSearch(data []byte) ([]media.ContentItem, error) {
	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, wrapDecodeErr("search results", err)
	}
	return parsePipedItems(resp.Items), nil
}

type pipedChannel struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	AvatarURL       string            `json:"avatarUrl"`
	SubscriberCount int64             `json:"subscriberCount"`
	RelatedStreams  []json.RawMessage `json:"relatedStreams"`
}

// parsePipedChannel normalizes a /channel/{id} response.
func parsePipedChannel(data []byte) (*media.Channel, error) {
	var raw pipedChannel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("channel", err)
	}
	if raw.ID == "" {
		return nil, decodeErr("id")
	}

	var videos []media.Video
	for _, item := range parsePipedItems(raw.RelatedStreams) {
		if item.Kind == media.ContentVideo {
			videos = append(videos, *item.Video)
		}
	}

	return &media.Channel{
		ID:           raw.ID,
		Name:         raw.Name,
		ThumbnailURL: raw.AvatarURL,
		Subscribers:  raw.SubscriberCount,
		Videos:       videos,
	}, nil
}
