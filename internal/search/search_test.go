package search

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"urchin/internal/media"
	"urchin/internal/provider"
	"urchin/internal/store"
)

// fakeAPI records search and suggestion calls.
type fakeAPI struct {
	mu           sync.Mutex
	caps         provider.Capabilities
	searches     []media.SearchQuery
	suggestions  []string
	searchDone   chan struct{}
	blockSearch  chan struct{}
	blockSuggest chan struct{}
	searchResult []media.ContentItem
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		caps:       provider.Capabilities{SearchFilters: true},
		searchDone: make(chan struct{}, 16),
		searchResult: []media.ContentItem{
			{Kind: media.ContentVideo, Video: &media.Video{ID: "dQw4w9WgXcQ", Title: "Is Google Evil?"}},
		},
	}
}

func (f *fakeAPI) Backend() media.Backend              { return media.BackendInvidious }
func (f *fakeAPI) Capabilities() provider.Capabilities { return f.caps }
func (f *fakeAPI) SignedIn() bool                      { return false }

func (f *fakeAPI) FetchVideo(context.Context, string) (*media.Video, error) {
	return nil, provider.ErrNotFound
}
func (f *fakeAPI) FetchChannel(context.Context, string) (*media.Channel, error) {
	return nil, provider.ErrNotFound
}
func (f *fakeAPI) FetchTrending(context.Context, string, string) ([]media.Video, error) {
	return nil, nil
}
func (f *fakeAPI) FetchPopular(context.Context) ([]media.Video, error) { return nil, nil }
func (f *fakeAPI) FetchSubscriptions(context.Context) ([]media.Channel, error) {
	return nil, provider.ErrUnsupported
}
func (f *fakeAPI) FetchFeed(context.Context) ([]media.Video, error) {
	return nil, provider.ErrUnsupported
}
func (f *fakeAPI) Subscribe(context.Context, string) error   { return provider.ErrUnsupported }
func (f *fakeAPI) Unsubscribe(context.Context, string) error { return provider.ErrUnsupported }

func (f *fakeAPI) Search(ctx context.Context, q media.SearchQuery, page int) ([]media.ContentItem, error) {
	if f.blockSearch != nil {
		select {
		case <-f.blockSearch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.searches = append(f.searches, q)
	f.mu.Unlock()
	f.searchDone <- struct{}{}
	return f.searchResult, nil
}

func (f *fakeAPI) SearchSuggestions(ctx context.Context, text string) ([]string, error) {
	if f.blockSuggest != nil {
		select {
		case <-f.blockSuggest:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.suggestions = append(f.suggestions, text)
	f.mu.Unlock()
	return []string{text + " suggestion"}, nil
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeAPI) suggestionCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.suggestions...)
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "urchin.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testModel(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	return New(
		func() provider.VideosAPI { return api },
		testStore(t),
		Options{SuggestDelay: 20 * time.Millisecond, QueryDelay: 40 * time.Millisecond},
	)
}

func waitSearch(t *testing.T, api *fakeAPI) {
	t.Helper()
	select {
	case <-api.searchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a search call")
	}
}

func TestRapidEditsThenSubmitRunsOneSearch(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	var results []media.SearchQuery
	var mu sync.Mutex
	m.OnResults(func(q media.SearchQuery, _ []media.ContentItem) {
		mu.Lock()
		results = append(results, q)
		mu.Unlock()
	})

	m.SetText("c")
	m.SetText("ca")
	m.SetText("cat videos")
	m.Submit()

	waitSearch(t, api)
	// Long enough for any leaked debounce timer to have fired.
	time.Sleep(150 * time.Millisecond)

	if n := api.searchCount(); n != 1 {
		t.Fatalf("got %d search calls, want exactly 1", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].Query != "cat videos" {
		t.Errorf("results = %+v, want one update for the submitted text", results)
	}
}

func TestSuggestionDebounceCollapsesEdits(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)
	m.Clear()

	m.SetText("c")
	m.SetText("ca")
	m.SetText("cat")

	time.Sleep(150 * time.Millisecond)

	calls := api.suggestionCalls()
	if len(calls) != 1 || calls[0] != "cat" {
		t.Errorf("suggestion calls = %v, want single call for final text", calls)
	}
}

func TestLiveQueryFiresAfterPause(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	m.SetText("lofi beats")
	waitSearch(t, api)

	if m.State() != StateEditing {
		t.Errorf("state = %v, want editing", m.State())
	}
	if got := api.searchCount(); got != 1 {
		t.Errorf("got %d live-query calls, want 1", got)
	}
}

func TestLiveQueryRequiresFilterCapability(t *testing.T) {
	api := newFakeAPI()
	api.caps = provider.Capabilities{}
	m := testModel(t, api)

	m.SetText("lofi beats")
	time.Sleep(150 * time.Millisecond)

	if n := api.searchCount(); n != 0 {
		t.Errorf("backend without filters ran %d live queries", n)
	}
	if calls := api.suggestionCalls(); len(calls) != 1 {
		t.Errorf("suggestions should still fire: %v", calls)
	}
}

func TestClearDiscardsInFlightResults(t *testing.T) {
	api := newFakeAPI()
	api.blockSearch = make(chan struct{})
	m := testModel(t, api)

	published := make(chan struct{}, 1)
	m.OnResults(func(media.SearchQuery, []media.ContentItem) { published <- struct{}{} })

	m.SetText("doomed query")
	m.Submit()
	m.Clear()
	close(api.blockSearch)

	select {
	case <-published:
		t.Error("stale results published after Clear")
	case <-time.After(200 * time.Millisecond):
	}
	if m.State() != StateIdle {
		t.Errorf("state after Clear = %v, want idle", m.State())
	}
}

func TestFilterChangeWhileEditingAppliesOnFire(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	// Filters set inside the debounce window must reach the live query.
	m.SetText("concert")
	m.SetFilters(media.SortDate, media.DateWeek, media.DurationShort)
	waitSearch(t, api)

	api.mu.Lock()
	got := api.searches[0]
	api.mu.Unlock()
	if got.Query != "concert" || got.Sort != media.SortDate ||
		got.Date != media.DateWeek || got.Duration != media.DurationShort {
		t.Errorf("live query ran with stale filters: %+v", got)
	}
}

func TestLiveQueryDoesNotCancelSuggestionFetch(t *testing.T) {
	api := newFakeAPI()
	api.blockSuggest = make(chan struct{})
	m := testModel(t, api)

	published := make(chan []string, 1)
	m.OnSuggestions(func(s []string) { published <- s })

	// The suggestion fetch blocks past the live-query fire; the two
	// fields cancel independently, so it must still complete.
	m.SetText("lofi beats")
	waitSearch(t, api)
	close(api.blockSuggest)

	select {
	case s := <-published:
		if len(s) != 1 || s[0] != "lofi beats suggestion" {
			t.Errorf("suggestions = %v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("suggestion fetch was cancelled by the live query")
	}
}

func TestFilterChangeAfterSubmitRequeriesImmediately(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	m.SetText("concert")
	m.Submit()
	waitSearch(t, api)

	m.SetFilters(media.SortDate, "", media.DurationShort)
	waitSearch(t, api)

	api.mu.Lock()
	last := api.searches[len(api.searches)-1]
	api.mu.Unlock()
	if last.Sort != media.SortDate || last.Duration != media.DurationShort {
		t.Errorf("re-query missing new filters: %+v", last)
	}
}

func TestRecentsRecordedOnSubmitOnly(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	m.SetText("never submitted")
	time.Sleep(150 * time.Millisecond)
	if recents, _ := m.Recents(10); len(recents) != 0 {
		t.Errorf("editing alone recorded recents: %+v", recents)
	}

	m.SetText("submitted")
	m.Submit()
	waitSearch(t, api)

	recents, err := m.Recents(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recents) != 1 || recents[0].Query != "submitted" {
		t.Errorf("recents = %+v", recents)
	}

	if err := m.ClearRecents(); err != nil {
		t.Fatal(err)
	}
	if recents, _ := m.Recents(10); len(recents) != 0 {
		t.Errorf("recents after clear = %+v", recents)
	}
}

func TestFavoriteTracksDescriptor(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	m.SetText("synthwave mix")
	if m.IsFavorite() {
		t.Error("fresh query reported as favorite")
	}

	if err := m.ToggleFavorite(); err != nil {
		t.Fatal(err)
	}
	if !m.IsFavorite() {
		t.Error("bookmarked query not reported as favorite")
	}

	// Different filters make a different descriptor.
	m.SetFilters(media.SortViews, "", "")
	if m.IsFavorite() {
		t.Error("filtered variant should not be a favorite")
	}

	m.SetFilters("", "", "")
	if !m.IsFavorite() {
		t.Error("restoring filters should restore the bookmark match")
	}

	if err := m.ToggleFavorite(); err != nil {
		t.Fatal(err)
	}
	if m.IsFavorite() {
		t.Error("un-bookmarked query still reported as favorite")
	}
}

func TestResubmitRunsStoredQuery(t *testing.T) {
	api := newFakeAPI()
	m := testModel(t, api)

	stored := media.NewSearchQuery("from recents")
	stored.Sort = media.SortViews
	m.Resubmit(stored)
	waitSearch(t, api)

	if m.State() != StateSubmitted {
		t.Errorf("state = %v, want submitted", m.State())
	}
	api.mu.Lock()
	got := api.searches[0]
	api.mu.Unlock()
	if got.Query != "from recents" || got.Sort != media.SortViews {
		t.Errorf("Resubmit ran %+v", got)
	}
}
