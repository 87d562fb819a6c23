// Package config handles TOML-based configuration loading and validation.
// Config is parsed as data only; tokens are opaque secrets bound to
// account ids and never interpreted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"urchin/internal/media"
)

// Account binds a named identity to exactly one instance (server URL plus
// backend kind) with an optional access token.
type Account struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Instance string `toml:"instance"`
	Backend  string `toml:"backend"`
	Token    string `toml:"token"`
}

// SponsorBlock configures the skip-segment service. An empty instance URL
// disables segment lookup entirely.
type SponsorBlock struct {
	Instance   string   `toml:"instance"`
	Categories []string `toml:"categories"`
}

// Config holds all application configuration.
type Config struct {
	Instance     string       `toml:"instance"`
	Backend      string       `toml:"backend"`
	Player       string       `toml:"player"`
	Quality      string       `toml:"quality"`
	Region       string       `toml:"region"`
	History      bool         `toml:"history"`
	Debug        bool         `toml:"debug"`
	SponsorBlock SponsorBlock `toml:"sponsorblock"`
	Accounts     []Account    `toml:"accounts"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Instance: "https://yewtu.be",
		Backend:  "invidious",
		Player:   "mpv",
		Quality:  "best",
		Region:   "US",
		History:  true,
		SponsorBlock: SponsorBlock{
			Instance:   "https://sponsor.ajay.app",
			Categories: []string{"sponsor"},
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "urchin"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "urchin"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validCategories is the closed set of SponsorBlock segment categories.
var validCategories = map[string]bool{
	"sponsor":        true,
	"selfpromo":      true,
	"interaction":    true,
	"intro":          true,
	"outro":          true,
	"preview":        true,
	"music_offtopic": true,
	"filler":         true,
}

func validateInstanceURL(raw string) error {
	if !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("instance URL %q must use https", raw)
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if _, err := media.ParseBackend(c.Backend); err != nil {
		return err
	}

	if c.Quality != "best" && media.Resolution(c.Quality).Rank() < 0 {
		return fmt.Errorf("unsupported quality %q (valid: best, 144p..2160p)", c.Quality)
	}

	if err := validateInstanceURL(c.Instance); err != nil {
		return err
	}

	if c.SponsorBlock.Instance != "" {
		if err := validateInstanceURL(c.SponsorBlock.Instance); err != nil {
			return fmt.Errorf("sponsorblock: %w", err)
		}
	}
	for _, cat := range c.SponsorBlock.Categories {
		if !validCategories[cat] {
			return fmt.Errorf("unknown sponsorblock category %q", cat)
		}
	}

	seen := make(map[string]bool)
	for _, acct := range c.Accounts {
		if acct.ID == "" {
			return fmt.Errorf("account without an id")
		}
		if seen[acct.ID] {
			return fmt.Errorf("duplicate account id %q", acct.ID)
		}
		seen[acct.ID] = true
		if _, err := media.ParseBackend(acct.Backend); err != nil {
			return fmt.Errorf("account %q: %w", acct.ID, err)
		}
		if err := validateInstanceURL(acct.Instance); err != nil {
			return fmt.Errorf("account %q: %w", acct.ID, err)
		}
	}

	return nil
}
