package subscriptions

import (
	"context"
	"errors"
	"testing"

	"urchin/internal/media"
	"urchin/internal/provider"
)

// fakeAPI implements provider.VideosAPI with canned subscription data.
type fakeAPI struct {
	channels   []media.Channel
	feed       []media.Video
	err        error
	fetchCalls int
	subscribed []string
}

func (f *fakeAPI) Backend() media.Backend { return media.BackendInvidious }
func (f *fakeAPI) Capabilities() provider.Capabilities {
	return provider.Capabilities{Subscriptions: true, SearchFilters: true, Popular: true}
}
func (f *fakeAPI) SignedIn() bool { return true }

func (f *fakeAPI) FetchVideo(context.Context, string) (*media.Video, error) {
	return nil, provider.ErrNotFound
}
func (f *fakeAPI) FetchChannel(context.Context, string) (*media.Channel, error) {
	return nil, provider.ErrNotFound
}
func (f *fakeAPI) FetchTrending(context.Context, string, string) ([]media.Video, error) {
	return nil, nil
}
func (f *fakeAPI) Search(context.Context, media.SearchQuery, int) ([]media.ContentItem, error) {
	return nil, nil
}
func (f *fakeAPI) SearchSuggestions(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeAPI) FetchPopular(context.Context) ([]media.Video, error)         { return nil, nil }

func (f *fakeAPI) FetchSubscriptions(context.Context) ([]media.Channel, error) {
	f.fetchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]media.Channel(nil), f.channels...), nil
}

func (f *fakeAPI) FetchFeed(context.Context) ([]media.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.feed, nil
}

func (f *fakeAPI) Subscribe(_ context.Context, channelID string) error {
	if f.err != nil {
		return f.err
	}
	f.subscribed = append(f.subscribed, channelID)
	f.channels = append(f.channels, media.Channel{ID: channelID, Name: channelID})
	return nil
}

func (f *fakeAPI) Unsubscribe(_ context.Context, channelID string) error {
	if f.err != nil {
		return f.err
	}
	kept := f.channels[:0]
	for _, ch := range f.channels {
		if ch.ID != channelID {
			kept = append(kept, ch)
		}
	}
	f.channels = kept
	return nil
}

func testAPI() *fakeAPI {
	return &fakeAPI{
		channels: []media.Channel{
			{ID: "UC1", Name: "zebra facts"},
			{ID: "UC2", Name: "Aquarium Life"},
			{ID: "UC3", Name: "bird watching"},
		},
	}
}

func TestLoadSortsCaseInsensitively(t *testing.T) {
	api := testAPI()
	m := New(func() provider.VideosAPI { return api })

	channels, err := m.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"Aquarium Life", "bird watching", "zebra facts"}
	if len(channels) != len(want) {
		t.Fatalf("got %d channels, want %d", len(channels), len(want))
	}
	for i, name := range want {
		if channels[i].Name != name {
			t.Errorf("channels[%d].Name = %q, want %q", i, channels[i].Name, name)
		}
	}
}

func TestLoadReusesCache(t *testing.T) {
	api := testAPI()
	m := New(func() provider.VideosAPI { return api })

	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if api.fetchCalls != 1 {
		t.Errorf("cached load hit the network: %d calls", api.fetchCalls)
	}

	if _, err := m.Load(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if api.fetchCalls != 2 {
		t.Errorf("forced load did not hit the network: %d calls", api.fetchCalls)
	}
}

func TestLoadFailureResetsCache(t *testing.T) {
	api := testAPI()
	m := New(func() provider.VideosAPI { return api })

	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if len(m.Channels()) == 0 {
		t.Fatal("expected populated cache")
	}

	api.err = errors.New("upstream down")
	if _, err := m.Load(context.Background(), true); err == nil {
		t.Fatal("expected error from failed load")
	}
	if got := m.Channels(); len(got) != 0 {
		t.Errorf("cache not reset after failure: %+v", got)
	}

	// Recovery replaces the whole list again.
	api.err = nil
	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if len(m.Channels()) != 3 {
		t.Errorf("cache not repopulated after recovery: %d", len(m.Channels()))
	}
}

func TestSubscribeForcesReload(t *testing.T) {
	api := testAPI()
	m := New(func() provider.VideosAPI { return api })

	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if err := m.Subscribe(context.Background(), "UC4"); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if api.fetchCalls != 2 {
		t.Errorf("subscribe did not force a reload: %d calls", api.fetchCalls)
	}
	if !m.IsSubscribed("UC4") {
		t.Error("new subscription missing from cache")
	}

	if err := m.Unsubscribe(context.Background(), "UC4"); err != nil {
		t.Fatalf("Unsubscribe() error: %v", err)
	}
	if m.IsSubscribed("UC4") {
		t.Error("removed subscription still in cache")
	}
}

func TestInvalidateForcesNextLoad(t *testing.T) {
	api := testAPI()
	m := New(func() provider.VideosAPI { return api })

	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	m.Invalidate()
	if len(m.Channels()) != 0 {
		t.Error("Invalidate left cached channels")
	}
	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if api.fetchCalls != 2 {
		t.Errorf("load after invalidate reused cache: %d calls", api.fetchCalls)
	}
}

func TestFeed(t *testing.T) {
	api := testAPI()
	api.feed = []media.Video{{ID: "dQw4w9WgXcQ", Title: "Is Google Evil?"}}
	m := New(func() provider.VideosAPI { return api })

	videos, err := m.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed() error: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "dQw4w9WgXcQ" {
		t.Errorf("Feed() = %+v", videos)
	}
}
