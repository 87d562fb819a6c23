// Package subscriptions maintains the signed-in account's channel list
// and its feed of new videos.
package subscriptions

import (
	"context"
	"sort"
	"strings"
	"sync"

	"urchin/internal/media"
	"urchin/internal/provider"
)

// Model caches the subscribed-channel list for the current account. The
// cache is replaced wholesale on every successful load and reset to empty
// on failure, so the list never mixes results from two accounts.
type Model struct {
	api func() provider.VideosAPI

	mu       sync.Mutex
	channels []media.Channel
	loaded   bool
	loading  bool
}

// New builds the model around an adapter projection, typically
// (*accounts.Model).API.
func New(api func() provider.VideosAPI) *Model {
	return &Model{api: api}
}

// Invalidate drops the cache, forcing the next Load to hit the network.
// Called on account switch.
func (m *Model) Invalidate() {
	m.mu.Lock()
	m.channels = nil
	m.loaded = false
	m.mu.Unlock()
}

// Channels returns the cached channel list.
func (m *Model) Channels() []media.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels
}

// Loading reports whether a network operation is in flight.
func (m *Model) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// IsSubscribed reports whether the cached list contains the channel.
func (m *Model) IsSubscribed(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.ID == channelID {
			return true
		}
	}
	return false
}

// Load fetches the subscription list. A cached list is reused unless
// force is set. On failure the cache is emptied before the error is
// returned.
func (m *Model) Load(ctx context.Context, force bool) ([]media.Channel, error) {
	m.mu.Lock()
	if m.loaded && !force {
		cached := m.channels
		m.mu.Unlock()
		return cached, nil
	}
	m.loading = true
	m.mu.Unlock()

	channels, err := m.api().FetchSubscriptions(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.channels = nil
		m.loaded = false
		return nil, err
	}

	sort.Slice(channels, func(i, j int) bool {
		return strings.ToLower(channels[i].Name) < strings.ToLower(channels[j].Name)
	})
	m.channels = channels
	m.loaded = true
	return channels, nil
}

// Feed fetches the subscription feed (new videos across all subscribed
// channels). Not cached; the backend already aggregates it.
func (m *Model) Feed(ctx context.Context) ([]media.Video, error) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	videos, err := m.api().FetchFeed(ctx)

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	return videos, err
}

// Subscribe adds a channel subscription, then force-reloads the list so
// the cache reflects the server's view.
func (m *Model) Subscribe(ctx context.Context, channelID string) error {
	if err := m.api().Subscribe(ctx, channelID); err != nil {
		return err
	}
	_, err := m.Load(ctx, true)
	return err
}

// Unsubscribe removes a channel subscription, then force-reloads.
func (m *Model) Unsubscribe(ctx context.Context, channelID string) error {
	if err := m.api().Unsubscribe(ctx, channelID); err != nil {
		return err
	}
	_, err := m.Load(ctx, true)
	return err
}
