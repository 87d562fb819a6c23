// Package accounts holds the process-wide account list and the single
// mutable current-account slot that decides which backend adapter serves
// all subsequent calls.
package accounts

import (
	"fmt"
	"sync"

	"urchin/internal/config"
	"urchin/internal/httputil"
	"urchin/internal/media"
	"urchin/internal/provider"
	"urchin/internal/store"
)

// Settings keys for the persisted selection.
const (
	settingAccountID  = "current_account_id"
	settingInstanceID = "current_instance_id"
)

// GuestID is the synthesized account used when no account is configured
// or selected. It carries no credentials.
const GuestID = "guest"

// Account is a resolved identity: one instance, one backend kind, an
// opaque token.
type Account struct {
	ID       string
	Name     string
	Instance string
	Backend  media.Backend
	Token    string
}

// Model routes calls to the adapter matching the current account's
// backend kind. The current slot is mutable with change notification;
// everything else is fixed at construction.
type Model struct {
	client   *httputil.Client
	store    *store.Store
	accounts []Account

	mu        sync.Mutex
	current   Account
	invidious *provider.Invidious
	piped     *provider.Piped
	listeners []func(Account)
}

// New builds the model from configuration, restoring the persisted
// account selection when it still exists.
func New(cfg *config.Config, client *httputil.Client, st *store.Store) (*Model, error) {
	guestBackend, err := media.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	guest := Account{
		ID:       GuestID,
		Name:     "Guest",
		Instance: cfg.Instance,
		Backend:  guestBackend,
	}

	accounts := []Account{guest}
	for _, a := range cfg.Accounts {
		backend, err := media.ParseBackend(a.Backend)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", a.ID, err)
		}
		name := a.Name
		if name == "" {
			name = a.ID
		}
		accounts = append(accounts, Account{
			ID:       a.ID,
			Name:     name,
			Instance: a.Instance,
			Backend:  backend,
			Token:    a.Token,
		})
	}

	m := &Model{
		client:   client,
		store:    st,
		accounts: accounts,
	}

	restored := guest
	if st != nil {
		if id, err := st.Setting(settingAccountID); err == nil && id != "" {
			if a, ok := m.ByID(id); ok {
				restored = a
			}
		}
	}
	m.bind(restored)

	return m, nil
}

// Accounts lists all known accounts, guest first.
func (m *Model) Accounts() []Account {
	return m.accounts
}

// ByID looks up an account by id.
func (m *Model) ByID(id string) (Account, bool) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// Current returns the active account.
func (m *Model) Current() Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// bind swaps the adapters' credential binding to the given account.
// Caller must not hold the lock.
func (m *Model) bind(a Account) {
	m.mu.Lock()
	m.current = a
	m.invidious = provider.NewInvidious(a.Instance, m.client)
	m.piped = provider.NewPiped(a.Instance, m.client)
	if a.Backend == media.BackendInvidious {
		m.invidious.SetToken(a.Token)
	}
	m.mu.Unlock()
}

// SetCurrent makes the given account active. A no-op when the account is
// already current (by id); otherwise the adapter credential binding is
// swapped, the selection persisted, and listeners notified.
func (m *Model) SetCurrent(a Account) error {
	m.mu.Lock()
	if m.current.ID == a.ID {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.bind(a)

	if m.store != nil {
		if err := m.store.SetSetting(settingAccountID, a.ID); err != nil {
			return err
		}
		if err := m.store.SetSetting(settingInstanceID, a.Instance); err != nil {
			return err
		}
	}

	for _, fn := range m.snapshotListeners() {
		fn(a)
	}
	return nil
}

func (m *Model) snapshotListeners() []func(Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(([]func(Account))(nil), m.listeners...)
}

// OnChange registers a listener invoked after each account switch.
func (m *Model) OnChange(fn func(Account)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// API projects the current state onto the matching adapter. Callers must
// not cache the result across account switches.
func (m *Model) API() provider.VideosAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Backend == media.BackendPiped {
		return m.piped
	}
	return m.invidious
}
