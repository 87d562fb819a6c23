// Package search drives the search flow: text edits with debounced
// suggestion and live-query fetches, explicit submission, recents and
// favorite bookmarks.
package search

import (
	"context"
	"sync"
	"time"

	"urchin/internal/media"
	"urchin/internal/provider"
	"urchin/internal/store"
)

// State is the orchestrator's lifecycle phase.
type State int

const (
	// StateIdle: no query text, nothing in flight.
	StateIdle State = iota
	// StateEditing: text is being typed; suggestion and live-query
	// timers may be pending.
	StateEditing
	// StateSubmitted: a query was explicitly run; filter changes
	// re-query immediately.
	StateSubmitted
)

// Default trailing-edge debounce windows.
const (
	defaultSuggestDelay = 200 * time.Millisecond
	defaultQueryDelay   = 800 * time.Millisecond
)

// Options tunes the debounce windows. Zero values pick the defaults;
// tests inject short windows.
type Options struct {
	SuggestDelay time.Duration
	QueryDelay   time.Duration
}

// Model owns the query draft and schedules fetches so that at most one
// suggestion fetch and one search run per pause in typing. Results from
// superseded edits or submissions are discarded, never published.
type Model struct {
	api     func() provider.VideosAPI
	store   *store.Store
	options Options

	mu            sync.Mutex
	state         State
	query         media.SearchQuery
	favorite      bool
	gen           uint64
	suggestTimer  *time.Timer
	queryTimer    *time.Timer
	cancelSuggest context.CancelFunc
	cancelQuery   context.CancelFunc

	onSuggestions func([]string)
	onResults     func(media.SearchQuery, []media.ContentItem)
	onError       func(error)
}

// New builds the orchestrator around an adapter projection, typically
// (*accounts.Model).API.
func New(api func() provider.VideosAPI, st *store.Store, opts Options) *Model {
	if opts.SuggestDelay <= 0 {
		opts.SuggestDelay = defaultSuggestDelay
	}
	if opts.QueryDelay <= 0 {
		opts.QueryDelay = defaultQueryDelay
	}
	return &Model{api: api, store: st, options: opts}
}

// OnSuggestions registers the suggestion sink.
func (m *Model) OnSuggestions(fn func([]string)) {
	m.mu.Lock()
	m.onSuggestions = fn
	m.mu.Unlock()
}

// OnResults registers the result sink. The query the results belong to is
// passed alongside them.
func (m *Model) OnResults(fn func(media.SearchQuery, []media.ContentItem)) {
	m.mu.Lock()
	m.onResults = fn
	m.mu.Unlock()
}

// OnError registers the fetch-failure sink.
func (m *Model) OnError(fn func(error)) {
	m.mu.Lock()
	m.onError = fn
	m.mu.Unlock()
}

// State returns the current lifecycle phase.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Query returns the current query draft.
func (m *Model) Query() media.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// IsFavorite reports whether the current draft (text and filters) is
// bookmarked. Recomputed on every query mutation.
func (m *Model) IsFavorite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favorite
}

// supersede invalidates pending timers and in-flight fetches. Caller
// holds the lock.
func (m *Model) supersede() uint64 {
	m.gen++
	if m.suggestTimer != nil {
		m.suggestTimer.Stop()
		m.suggestTimer = nil
	}
	if m.queryTimer != nil {
		m.queryTimer.Stop()
		m.queryTimer = nil
	}
	if m.cancelSuggest != nil {
		m.cancelSuggest()
		m.cancelSuggest = nil
	}
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
	return m.gen
}

func (m *Model) refreshFavorite() {
	if m.store == nil || m.query.Query == "" {
		m.favorite = false
		return
	}
	fav, err := m.store.IsFavorite(m.query.Descriptor())
	if err != nil {
		fav = false
	}
	m.favorite = fav
}

// SetText updates the draft text. Non-empty text enters the editing state
// and restarts the trailing-edge timers; suggestions are always fetched,
// live queries only when the backend honors search filters.
func (m *Model) SetText(text string) {
	m.mu.Lock()
	gen := m.supersede()
	m.query.Query = text
	m.refreshFavorite()

	if text == "" {
		m.state = StateIdle
		m.mu.Unlock()
		return
	}

	m.state = StateEditing
	m.suggestTimer = time.AfterFunc(m.options.SuggestDelay, func() {
		m.fetchSuggestions(gen, text)
	})
	if m.api().Capabilities().SearchFilters {
		m.queryTimer = time.AfterFunc(m.options.QueryDelay, func() {
			// Re-read the query at fire time so filter changes made
			// during the debounce window are not lost.
			m.mu.Lock()
			if gen != m.gen {
				m.mu.Unlock()
				return
			}
			q := m.query
			m.mu.Unlock()
			m.runSearch(gen, q, false)
		})
	}
	m.mu.Unlock()
}

// SetFilters updates the sort/date/duration filters. In the submitted
// state the search re-runs immediately; a pending editing timer keeps its
// schedule and reads the filters current when it fires.
func (m *Model) SetFilters(sort media.SearchSort, date media.SearchDate, duration media.SearchDuration) {
	m.mu.Lock()
	m.query.Sort = sort
	m.query.Date = date
	m.query.Duration = duration
	m.refreshFavorite()

	if m.state != StateSubmitted || m.query.Query == "" {
		m.mu.Unlock()
		return
	}
	gen := m.supersede()
	q := m.query
	m.mu.Unlock()

	go m.runSearch(gen, q, false)
}

// Submit runs the current draft right away, preempting any pending
// timers, and records it in recents.
func (m *Model) Submit() {
	m.mu.Lock()
	if m.query.Query == "" {
		m.mu.Unlock()
		return
	}
	gen := m.supersede()
	m.state = StateSubmitted
	q := m.query
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.AddRecent(q); err != nil {
			m.emitError(err)
		}
	}
	go m.runSearch(gen, q, true)
}

// Resubmit runs a stored query (a recent or a favorite) as if it were
// typed and submitted.
func (m *Model) Resubmit(q media.SearchQuery) {
	m.mu.Lock()
	m.supersede()
	m.query = q
	m.refreshFavorite()
	m.mu.Unlock()
	m.Submit()
}

// Clear abandons the draft and anything in flight.
func (m *Model) Clear() {
	m.mu.Lock()
	m.supersede()
	m.state = StateIdle
	m.query = media.SearchQuery{}
	m.favorite = false
	m.mu.Unlock()
}

// ToggleFavorite bookmarks or un-bookmarks the current draft.
func (m *Model) ToggleFavorite() error {
	m.mu.Lock()
	q := m.query
	fav := m.favorite
	m.mu.Unlock()

	if m.store == nil || q.Query == "" {
		return nil
	}

	var err error
	if fav {
		err = m.store.RemoveFavorite(q)
	} else {
		err = m.store.AddFavorite(q)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.refreshFavorite()
	m.mu.Unlock()
	return nil
}

// Recents returns recent searches, most recent first.
func (m *Model) Recents(limit int) ([]media.SearchQuery, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Recents(limit)
}

// RemoveRecent deletes one recent search by text.
func (m *Model) RemoveRecent(query string) error {
	if m.store == nil {
		return nil
	}
	return m.store.RemoveRecent(query)
}

// ClearRecents deletes all recent searches.
func (m *Model) ClearRecents() error {
	if m.store == nil {
		return nil
	}
	return m.store.ClearRecents()
}

// fetchCtx installs a fresh cancelable context in the given slot if gen
// is still current. Suggestion and live-query fetches use separate slots
// so one field's fetch never cancels the other's.
func (m *Model) fetchCtx(gen uint64, slot *context.CancelFunc) (context.Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil, false
	}
	if *slot != nil {
		(*slot)()
	}
	ctx, cancel := context.WithCancel(context.Background())
	*slot = cancel
	return ctx, true
}

func (m *Model) fetchSuggestions(gen uint64, text string) {
	ctx, ok := m.fetchCtx(gen, &m.cancelSuggest)
	if !ok {
		return
	}

	suggestions, err := m.api().SearchSuggestions(ctx, text)
	if err != nil {
		// Suggestions are best effort; a failed fetch just yields none.
		return
	}

	m.mu.Lock()
	stale := gen != m.gen
	fn := m.onSuggestions
	m.mu.Unlock()
	if stale || fn == nil {
		return
	}
	fn(suggestions)
}

func (m *Model) runSearch(gen uint64, q media.SearchQuery, submitted bool) {
	ctx, ok := m.fetchCtx(gen, &m.cancelQuery)
	if !ok {
		return
	}

	items, err := m.api().Search(ctx, q, 1)

	m.mu.Lock()
	stale := gen != m.gen
	onResults := m.onResults
	m.mu.Unlock()
	if stale {
		return
	}
	if err != nil {
		if submitted {
			m.emitError(err)
		}
		return
	}
	if onResults != nil {
		// An empty slice is a valid answer: no matches.
		onResults(q, items)
	}
}

func (m *Model) emitError(err error) {
	m.mu.Lock()
	fn := m.onError
	m.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
