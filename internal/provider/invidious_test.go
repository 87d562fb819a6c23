package provider

import (
	"os"
	"strings"
	"testing"

	"urchin/internal/media"
)

func loadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + filename)
	if err != nil {
		t.Fatalf("reading test fixture %s: %v", filename, err)
	}
	return data
}

func TestParseInvidiousVideo(t *testing.T) {
	v, err := parseInvidiousVideo(loadFixture(t, "invidious_video.json"))
	if err != nil {
		t.Fatalf("parseInvidiousVideo() error: %v", err)
	}

	if v.Backend != media.BackendInvidious {
		t.Errorf("Backend = %q, want invidious", v.Backend)
	}
	if v.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q, want dQw4w9WgXcQ", v.ID)
	}
	if v.Title != "Is Google Evil?" {
		t.Errorf("Title = %q", v.Title)
	}
	if v.Author != "Veritasium" || v.ChannelID != "UCHnyfMqiRRG1u-2MsSQLbXA" {
		t.Errorf("Author = %q, ChannelID = %q", v.Author, v.ChannelID)
	}
	if v.Length != 754 {
		t.Errorf("Length = %v, want 754", v.Length)
	}
	if v.Views != 1234567 || v.Likes != 45678 || v.Dislikes != 321 {
		t.Errorf("counts = %d/%d/%d", v.Views, v.Likes, v.Dislikes)
	}
	if v.Published != "2 years ago" {
		t.Errorf("Published = %q", v.Published)
	}
}

func TestParseInvidiousVideoDescriptionStripped(t *testing.T) {
	v, err := parseInvidiousVideo(loadFixture(t, "invidious_video.json"))
	if err != nil {
		t.Fatalf("parseInvidiousVideo() error: %v", err)
	}

	if strings.Contains(v.Description, "<") {
		t.Errorf("Description still contains HTML: %q", v.Description)
	}
	if !strings.Contains(v.Description, "First line\nSecond line") {
		t.Errorf("line breaks not preserved: %q", v.Description)
	}
	if !strings.Contains(v.Description, "link") || !strings.Contains(v.Description, "bold") {
		t.Errorf("anchor/bold text lost: %q", v.Description)
	}
}

func TestParseInvidiousVideoThumbnails(t *testing.T) {
	v, err := parseInvidiousVideo(loadFixture(t, "invidious_video.json"))
	if err != nil {
		t.Fatalf("parseInvidiousVideo() error: %v", err)
	}

	// Five mapped qualities; the "start" frame entry is skipped.
	if len(v.Thumbnails) != 5 {
		t.Fatalf("expected 5 thumbnails, got %d", len(v.Thumbnails))
	}
	seen := make(map[media.ThumbnailQuality]bool)
	for _, th := range v.Thumbnails {
		if th.URL == "" {
			t.Errorf("thumbnail %s has empty URL", th.Quality)
		}
		seen[th.Quality] = true
	}
	for _, q := range media.ThumbnailQualities {
		if !seen[q] {
			t.Errorf("missing thumbnail quality %s", q)
		}
	}
}

func TestParseInvidiousVideoStreams(t *testing.T) {
	v, err := parseInvidiousVideo(loadFixture(t, "invidious_video.json"))
	if err != nil {
		t.Fatalf("parseInvidiousVideo() error: %v", err)
	}

	var adaptive, single []media.Stream
	for _, s := range v.Streams {
		switch s.Kind {
		case media.StreamAdaptive:
			adaptive = append(adaptive, s)
		case media.StreamSingle:
			single = append(single, s)
		}
	}

	// 3 compatible mp4 video candidates, the webm one dropped.
	if len(adaptive) != 3 {
		t.Fatalf("expected 3 adaptive streams, got %d", len(adaptive))
	}
	// Every adaptive stream references the highest-bitrate m4a audio.
	for _, s := range adaptive {
		if !strings.Contains(s.AudioURL, "itag=140") {
			t.Errorf("adaptive %s audio = %q, want itag=140", s.Resolution, s.AudioURL)
		}
		if s.VideoURL == "" {
			t.Errorf("adaptive %s missing video URL", s.Resolution)
		}
	}

	if len(single) != 2 {
		t.Errorf("expected 2 muxed streams, got %d", len(single))
	}

	best := v.BestStream()
	if best == nil || best.Resolution != "1080p60" {
		t.Errorf("BestStream() = %+v, want 1080p60", best)
	}
}

func TestParseInvidiousVideoCaptions(t *testing.T) {
	v, err := parseInvidiousVideo(loadFixture(t, "invidious_video.json"))
	if err != nil {
		t.Fatalf("parseInvidiousVideo() error: %v", err)
	}

	if len(v.Captions) != 2 {
		t.Fatalf("expected 2 captions, got %d", len(v.Captions))
	}
	if v.Captions[0].Code != "en" || v.Captions[0].Label != "English" {
		t.Errorf("caption[0] = %+v", v.Captions[0])
	}
}

func TestParseInvidiousVideoMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"title": "has title", "author": "x"}`},
		{"missing title", `{"videoId": "dQw4w9WgXcQ"}`},
		{"not json", `<html>error page</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseInvidiousVideo([]byte(tt.body)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestParseInvidiousSearch(t *testing.T) {
	items, err := parseInvidiousSearch(loadFixture(t, "invidious_search.json"))
	if err != nil {
		t.Fatalf("parseInvidiousSearch() error: %v", err)
	}

	// Fixture has 5 entries; the two malformed videos are dropped.
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].Kind != media.ContentVideo || items[0].Video.ID != "dQw4w9WgXcQ" {
		t.Errorf("items[0] = %+v, want video dQw4w9WgXcQ", items[0])
	}
	if items[1].Kind != media.ContentChannel {
		t.Fatalf("items[1].Kind = %v, want channel", items[1].Kind)
	}
	ch := items[1].Channel
	if ch.ID != "UCHnyfMqiRRG1u-2MsSQLbXA" || ch.Subscribers != 14200000 {
		t.Errorf("channel = %+v", ch)
	}
	if ch.ThumbnailURL != "https://yt3.example.com/ytc/large.jpg" {
		t.Errorf("channel thumbnail = %q, want largest entry", ch.ThumbnailURL)
	}
	if items[2].Kind != media.ContentPlaylist || items[2].Playlist.VideoCount != 42 {
		t.Errorf("items[2] = %+v, want playlist with 42 videos", items[2])
	}

	for _, item := range items {
		if item.Kind == media.ContentVideo && (item.Video.ID == "" || item.Video.Title == "") {
			t.Errorf("video item with empty id or title: %+v", item.Video)
		}
	}
}

func TestParseInvidiousChannel(t *testing.T) {
	ch, err := parseInvidiousChannel(loadFixture(t, "invidious_channel.json"))
	if err != nil {
		t.Fatalf("parseInvidiousChannel() error: %v", err)
	}

	if ch.ID != "UCHnyfMqiRRG1u-2MsSQLbXA" || ch.Name != "Veritasium" {
		t.Errorf("channel = %+v", ch)
	}
	// One inline video parses, the title-less one is dropped.
	if len(ch.Videos) != 1 {
		t.Fatalf("expected 1 inline video, got %d", len(ch.Videos))
	}
	if ch.Videos[0].ID != "bHIhgxav9LY" {
		t.Errorf("inline video ID = %q", ch.Videos[0].ID)
	}
}

func TestInvidiousCapabilities(t *testing.T) {
	iv := NewInvidious("https://invidious.example.com", nil)

	caps := iv.Capabilities()
	if !caps.Subscriptions || !caps.SearchFilters || !caps.Popular {
		t.Errorf("Capabilities() = %+v, want all true", caps)
	}

	if iv.SignedIn() {
		t.Error("SignedIn() without token should be false")
	}
	iv.SetToken("abc")
	if !iv.SignedIn() {
		t.Error("SignedIn() with token should be true")
	}
}

func TestInvidiousSortMapping(t *testing.T) {
	tests := []struct {
		in   media.SearchSort
		want string
	}{
		{media.SortRelevance, "relevance"},
		{media.SortDate, "upload_date"},
		{media.SortViews, "view_count"},
		{media.SortRating, "rating"},
	}

	for _, tt := range tests {
		if got := invidiousSort(tt.in); got != tt.want {
			t.Errorf("invidiousSort(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
