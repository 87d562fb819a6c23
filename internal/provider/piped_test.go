package provider

import (
	"context"
	"strings"
	"testing"

	"urchin/internal/media"
)

func TestParsePipedVideo(t *testing.T) {
	v, err := parsePipedVideo(loadFixture(t, "piped_streams.json"), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("parsePipedVideo() error: %v", err)
	}

	if v.Backend != media.BackendPiped {
		t.Errorf("Backend = %q, want piped", v.Backend)
	}
	if v.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q", v.ID)
	}
	if v.Title != "Is Google Evil?" {
		t.Errorf("Title = %q", v.Title)
	}
	if v.Author != "Veritasium" {
		t.Errorf("Author = %q", v.Author)
	}
	if v.ChannelID != "UCHnyfMqiRRG1u-2MsSQLbXA" {
		t.Errorf("ChannelID = %q, want id from uploaderUrl path", v.ChannelID)
	}
	if strings.Contains(v.Description, "<") {
		t.Errorf("Description still contains HTML: %q", v.Description)
	}
	if !strings.Contains(v.Description, "First line\nSecond line") {
		t.Errorf("line breaks not preserved: %q", v.Description)
	}
}

func TestParsePipedVideoStreams(t *testing.T) {
	v, err := parsePipedVideo(loadFixture(t, "piped_streams.json"), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("parsePipedVideo() error: %v", err)
	}

	var adaptive, single, hls []media.Stream
	for _, s := range v.Streams {
		switch s.Kind {
		case media.StreamAdaptive:
			adaptive = append(adaptive, s)
		case media.StreamSingle:
			single = append(single, s)
		case media.StreamHLS:
			hls = append(hls, s)
		}
	}

	// 3 MPEG_4 video-only candidates; the WEBM candidate is dropped.
	if len(adaptive) != 3 {
		t.Fatalf("expected 3 adaptive streams, got %d", len(adaptive))
	}
	for _, s := range adaptive {
		// itag=140 is the highest-bitrate M4A candidate.
		if !strings.Contains(s.AudioURL, "itag=140") {
			t.Errorf("adaptive %s audio = %q, want itag=140", s.Resolution, s.AudioURL)
		}
	}

	// itag=22 is muxed (videoOnly=false).
	if len(single) != 1 || !strings.Contains(single[0].VideoURL, "itag=22") {
		t.Errorf("muxed streams = %+v, want single itag=22", single)
	}

	if len(hls) != 1 {
		t.Errorf("expected 1 HLS stream, got %d", len(hls))
	}
	if best := v.BestStream(); best == nil || best.Kind != media.StreamHLS {
		t.Errorf("BestStream() = %+v, want the HLS manifest", v.BestStream())
	}
}

func TestParsePipedVideoNoAudioCandidates(t *testing.T) {
	body := `{
		"title": "No compatible audio",
		"uploaderName": "X",
		"audioStreams": [
			{"url": "https://x.example.com/a", "format": "WEBM", "mimeType": "audio/webm", "bitrate": 100}
		],
		"videoStreams": [
			{"url": "https://x.example.com/v", "format": "MPEG_4", "quality": "720p", "mimeType": "video/mp4", "videoOnly": true}
		]
	}`

	v, err := parsePipedVideo([]byte(body), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("parsePipedVideo() error: %v", err)
	}
	// No audio candidate in the required container: no adaptive streams,
	// but the response still parses.
	for _, s := range v.Streams {
		if s.Kind == media.StreamAdaptive {
			t.Errorf("unexpected adaptive stream: %+v", s)
		}
	}
}

func TestParsePipedVideoMissingTitle(t *testing.T) {
	if _, err := parsePipedVideo([]byte(`{"uploader": "x"}`), "dQw4w9WgXcQ"); err == nil {
		t.Error("expected decode error for missing title")
	}
}

func TestDerivePipedThumbnails(t *testing.T) {
	base := "https://pipedproxy.example.com/vi/dQw4w9WgXcQ/hqdefault.jpg?host=i.ytimg.com"
	thumbs := derivePipedThumbnails(base)

	if len(thumbs) != len(media.ThumbnailQualities) {
		t.Fatalf("expected %d thumbnails, got %d", len(media.ThumbnailQualities), len(thumbs))
	}

	for _, th := range thumbs {
		want := "/" + th.Quality.FilenameToken() + ".jpg"
		if !strings.Contains(th.URL, want) {
			t.Errorf("thumbnail %s URL = %q, want substring %q", th.Quality, th.URL, want)
		}
		if !strings.HasSuffix(th.URL, "?host=i.ytimg.com") {
			t.Errorf("thumbnail %s lost query string: %q", th.Quality, th.URL)
		}
	}
}

func TestDerivePipedThumbnailsUnknownToken(t *testing.T) {
	tests := []string{
		"",
		"https://pipedproxy.example.com/static/banner.jpg",
		"https://pipedproxy.example.com/vi/dQw4w9WgXcQ/oar2.jpg",
	}

	for _, base := range tests {
		if thumbs := derivePipedThumbnails(base); thumbs != nil {
			t.Errorf("derivePipedThumbnails(%q) = %v, want none", base, thumbs)
		}
	}
}

func TestPipedVideoID(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		thumbnail string
		want      string
		wantErr   bool
	}{
		{
			"query param",
			"/watch?v=dQw4w9WgXcQ",
			"",
			"dQw4w9WgXcQ", false,
		},
		{
			"thumbnail fallback",
			"/watch",
			"https://pipedproxy.example.com/vi/bHIhgxav9LY/hqdefault.jpg",
			"bHIhgxav9LY", false,
		},
		{
			"webp thumbnail fallback",
			"/watch",
			"https://pipedproxy.example.com/vi_webp/bHIhgxav9LY/mqdefault.webp",
			"bHIhgxav9LY", false,
		},
		{
			"both fail is a decode error",
			"/watch",
			"https://pipedproxy.example.com/static/banner.jpg",
			"", true,
		},
		{
			"malformed id in thumbnail path",
			"/watch",
			"https://pipedproxy.example.com/vi/notanid/hqdefault.jpg",
			"", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pipedVideoID(tt.url, tt.thumbnail)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pipedVideoID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("pipedVideoID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePipedSearch(t *testing.T) {
	items, err := parsePipedSearch(loadFixture(t, "piped_search.json"))
	if err != nil {
		t.Fatalf("parsePipedSearch() error: %v", err)
	}

	// 6 fixture entries: playlist dropped, id-less video dropped,
	// title-less video dropped.
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].Kind != media.ContentVideo || items[0].Video.ID != "dQw4w9WgXcQ" {
		t.Errorf("items[0] = %+v, want video dQw4w9WgXcQ", items[0])
	}
	if items[0].Video.Author != "Veritasium" {
		t.Errorf("uploaderName not preferred: %q", items[0].Video.Author)
	}
	if strings.Contains(items[0].Video.Description, "<br>") {
		t.Errorf("shortDescription not cleaned: %q", items[0].Video.Description)
	}

	if items[1].Kind != media.ContentVideo || items[1].Video.ID != "bHIhgxav9LY" {
		t.Errorf("items[1] = %+v, want video id from thumbnail path", items[1])
	}
	if items[1].Video.Author != "Fallback Uploader" {
		t.Errorf("uploader fallback not applied: %q", items[1].Video.Author)
	}

	if items[2].Kind != media.ContentChannel || items[2].Channel.ID != "UCHnyfMqiRRG1u-2MsSQLbXA" {
		t.Errorf("items[2] = %+v, want channel", items[2])
	}

	for _, item := range items {
		if item.Kind == media.ContentVideo && (item.Video.ID == "" || item.Video.Title == "") {
			t.Errorf("video item with empty id or title: %+v", item.Video)
		}
	}
}

func TestParsePipedChannel(t *testing.T) {
	ch, err := parsePipedChannel(loadFixture(t, "piped_channel.json"))
	if err != nil {
		t.Fatalf("parsePipedChannel() error: %v", err)
	}

	if ch.ID != "UCHnyfMqiRRG1u-2MsSQLbXA" || ch.Name != "Veritasium" {
		t.Errorf("channel = %+v", ch)
	}
	if ch.Subscribers != 14200000 {
		t.Errorf("Subscribers = %d", ch.Subscribers)
	}
	// One related stream parses; the id-less one is dropped.
	if len(ch.Videos) != 1 || ch.Videos[0].ID != "bHIhgxav9LY" {
		t.Errorf("inline videos = %+v", ch.Videos)
	}
}

func TestPipedSearchLaterPagesAreEmpty(t *testing.T) {
	// Piped pages with an opaque token, not numbers: page 2 must report
	// no more results without any network call (the nil client would
	// panic on one).
	p := NewPiped("https://piped.example.com", nil)

	items, err := p.Search(context.Background(), media.NewSearchQuery("synthwave"), 2)
	if err != nil {
		t.Fatalf("Search(page 2) error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Search(page 2) = %+v, want empty non-nil result", items)
	}
}

func TestPipedCapabilities(t *testing.T) {
	p := NewPiped("https://piped.example.com", nil)

	caps := p.Capabilities()
	if caps.Subscriptions || caps.SearchFilters || caps.Popular {
		t.Errorf("Capabilities() = %+v, want all false", caps)
	}

	if _, err := p.FetchPopular(context.Background()); err != ErrUnsupported {
		t.Errorf("FetchPopular() error = %v, want ErrUnsupported", err)
	}
	if err := p.Subscribe(context.Background(), "UCabc"); err != ErrUnsupported {
		t.Errorf("Subscribe() error = %v, want ErrUnsupported", err)
	}
}
