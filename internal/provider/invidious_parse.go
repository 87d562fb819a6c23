package provider

import (
	"encoding/json"
	"strings"

	"urchin/internal/media"
)

// Invidious serializes some numeric fields (notably format bitrates) as
// strings, so formats decode through json.Number-tolerant shapes.

type invidiousThumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

type invidiousFormat struct {
	URL          string      `json:"url"`
	Type         string      `json:"type"` // MIME type with codecs
	Container    string      `json:"container"`
	Bitrate      json.Number `json:"bitrate"`
	Resolution   string      `json:"resolution"`
	QualityLabel string      `json:"qualityLabel"`
}

type invidiousCaption struct {
	Label        string `json:"label"`
	LanguageCode string `json:"language_code"`
	URL          string `json:"url"`
}

type invidiousVideo struct {
	Type            string               `json:"type"`
	Title           string               `json:"title"`
	VideoID         string               `json:"videoId"`
	Author          string               `json:"author"`
	AuthorID        string               `json:"authorId"`
	LengthSeconds   float64              `json:"lengthSeconds"`
	PublishedText   string               `json:"publishedText"`
	ViewCount       int64                `json:"viewCount"`
	LikeCount       int64                `json:"likeCount"`
	DislikeCount    int64                `json:"dislikeCount"`
	Description     string               `json:"description"`
	DescriptionHTML string               `json:"descriptionHtml"`
	VideoThumbnails []invidiousThumbnail `json:"videoThumbnails"`
	AdaptiveFormats []invidiousFormat    `json:"adaptiveFormats"`
	FormatStreams   []invidiousFormat    `json:"formatStreams"`
	HLSURL          string               `json:"hlsUrl"`
	Captions        []invidiousCaption   `json:"captions"`
}

// invidiousThumbnailQuality maps upstream quality names onto the closed
// domain set; unknown names (start/middle/end frames) are skipped.
func invidiousThumbnailQuality(name string) (media.ThumbnailQuality, bool) {
	switch name {
	case "default":
		return media.ThumbnailDefault, true
	case "medium":
		return media.ThumbnailMedium, true
	case "high":
		return media.ThumbnailHigh, true
	case "sddefault":
		return media.ThumbnailStandard, true
	case "maxres", "maxresdefault":
		return media.ThumbnailMaxres, true
	default:
		return "", false
	}
}

func invidiousThumbnails(raw []invidiousThumbnail) []media.Thumbnail {
	thumbs := make([]media.Thumbnail, 0, len(raw))
	seen := make(map[media.ThumbnailQuality]bool)
	for _, t := range raw {
		q, ok := invidiousThumbnailQuality(t.Quality)
		if !ok || t.URL == "" || seen[q] {
			continue
		}
		seen[q] = true
		thumbs = append(thumbs, media.Thumbnail{URL: t.URL, Quality: q})
	}
	return thumbs
}

func (f invidiousFormat) resolution() media.Resolution {
	if f.QualityLabel != "" {
		return media.Resolution(f.QualityLabel)
	}
	return media.Resolution(f.Resolution)
}

func (f invidiousFormat) bitrate() int64 {
	n, err := f.Bitrate.Int64()
	if err != nil {
		return 0
	}
	return n
}

// invidiousStreams reconstructs the playable stream list: adaptive pairs
// from adaptiveFormats, muxed formatStreams, and the HLS manifest when the
// instance provides one.
func invidiousStreams(v *invidiousVideo) []media.Stream {
	var audios, videos []streamCandidate
	for _, f := range v.AdaptiveFormats {
		switch {
		case strings.HasPrefix(f.Type, "audio/mp4"):
			audios = append(audios, streamCandidate{URL: f.URL, Bitrate: f.bitrate()})
		case strings.HasPrefix(f.Type, "video/mp4"):
			videos = append(videos, streamCandidate{URL: f.URL, Resolution: f.resolution()})
		}
	}

	streams := buildAdaptiveStreams(audios, videos)

	for _, f := range v.FormatStreams {
		if f.URL == "" {
			continue
		}
		streams = append(streams, media.Stream{
			Kind:       media.StreamSingle,
			VideoURL:   f.URL,
			Resolution: f.resolution(),
		})
	}

	if v.HLSURL != "" {
		streams = append(streams, media.Stream{
			Kind:     media.StreamHLS,
			VideoURL: v.HLSURL,
		})
	}
	return streams
}

func (v *invidiousVideo) toDomain() (*media.Video, error) {
	if v.VideoID == "" {
		return nil, decodeErr("videoId")
	}
	if v.Title == "" {
		return nil, decodeErr("title")
	}

	description := v.Description
	if v.DescriptionHTML != "" {
		description = cleanDescription(v.DescriptionHTML)
	}

	captions := make([]media.Caption, 0, len(v.Captions))
	for _, c := range v.Captions {
		if c.URL == "" {
			continue
		}
		captions = append(captions, media.Caption{Label: c.Label, Code: c.LanguageCode, URL: c.URL})
	}

	return &media.Video{
		Backend:     media.BackendInvidious,
		ID:          v.VideoID,
		Title:       v.Title,
		Author:      v.Author,
		ChannelID:   v.AuthorID,
		Length:      v.LengthSeconds,
		Published:   v.PublishedText,
		Views:       v.ViewCount,
		Likes:       v.LikeCount,
		Dislikes:    v.DislikeCount,
		Description: description,
		Thumbnails:  invidiousThumbnails(v.VideoThumbnails),
		Streams:     invidiousStreams(v),
		Captions:    captions,
	}, nil
}

// parseInvidiousVideo normalizes one video object.
func parseInvidiousVideo(data []byte) (*media.Video, error) {
	var raw invidiousVideo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("video", err)
	}
	return raw.toDomain()
}

// parseInvidiousVideoList normalizes an array of video objects, dropping
// unparsable items.
func parseInvidiousVideoList(data []byte) ([]media.Video, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("video list", err)
	}

	videos := make([]media.Video, 0, len(raw))
	for _, item := range raw {
		if v, err := parseInvidiousVideo(item); err == nil {
			videos = append(videos, *v)
		}
	}
	return videos, nil
}

type invidiousChannel struct {
	Author           string               `json:"author"`
	AuthorID         string               `json:"authorId"`
	AuthorThumbnails []invidiousThumbnail `json:"authorThumbnails"`
	SubCount         int64                `json:"subCount"`
	LatestVideos     []json.RawMessage    `json:"latestVideos"`
}

// parseInvidiousChannel normalizes a channel object with inline videos.
func parseInvidiousChannel(data []byte) (*media.Channel, error) {
	var raw invidiousChannel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("channel", err)
	}
	if raw.AuthorID == "" {
		return nil, decodeErr("authorId")
	}

	var thumbnail string
	for _, t := range raw.AuthorThumbnails {
		thumbnail = t.URL // last entry is the largest
	}

	videos := make([]media.Video, 0, len(raw.LatestVideos))
	for _, item := range raw.LatestVideos {
		if v, err := parseInvidiousVideo(item); err == nil {
			videos = append(videos, *v)
		}
	}

	return &media.Channel{
		ID:           raw.AuthorID,
		Name:         raw.Author,
		ThumbnailURL: thumbnail,
		Subscribers:  raw.SubCount,
		Videos:       videos,
	}, nil
}

type invidiousSearchItem struct {
	Type string `json:"type"`

	// channel fields
	Author           string               `json:"author"`
	AuthorID         string               `json:"authorId"`
	AuthorThumbnails []invidiousThumbnail `json:"authorThumbnails"`
	SubCount         int64                `json:"subCount"`

	// playlist fields
	Title      string `json:"title"`
	PlaylistID string `json:"playlistId"`
	VideoCount int64  `json:"videoCount"`
}

// parseInvidiousSearch classifies mixed search results by their type tag.
// Items that fail to parse are dropped, not fatal.
func parseInvidiousSearch(data []byte) ([]media.ContentItem, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapDecodeErr("search results", err)
	}

	items := make([]media.ContentItem, 0, len(raw))
	for _, entry := range raw {
		var tagged invidiousSearchItem
		if err := json.Unmarshal(entry, &tagged); err != nil {
			continue
		}

		switch tagged.Type {
		case "channel":
			if tagged.AuthorID == "" {
				continue
			}
			var thumbnail string
			for _, t := range tagged.AuthorThumbnails {
				thumbnail = t.URL
			}
			items = append(items, media.ContentItem{
				Kind: media.ContentChannel,
				Channel: &media.Channel{
					ID:           tagged.AuthorID,
					Name:         tagged.Author,
					ThumbnailURL: thumbnail,
					Subscribers:  tagged.SubCount,
				},
			})
		case "playlist":
			if tagged.PlaylistID == "" || tagged.Title == "" {
				continue
			}
			items = append(items, media.ContentItem{
				Kind: media.ContentPlaylist,
				Playlist: &media.Playlist{
					ID:         tagged.PlaylistID,
					Title:      tagged.Title,
					Author:     tagged.Author,
					VideoCount: tagged.VideoCount,
				},
			})
		default:
			// "video" and untyped entries are treated as videos.
			if v, err := parseInvidiousVideo(entry); err == nil {
				items = append(items, media.ContentItem{Kind: media.ContentVideo, Video: v})
			}
		}
	}
	return items, nil
}
