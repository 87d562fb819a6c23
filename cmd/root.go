// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"urchin/internal/accounts"
	"urchin/internal/config"
	"urchin/internal/httputil"
	"urchin/internal/search"
	"urchin/internal/sponsorblock"
	"urchin/internal/store"
	"urchin/internal/subscriptions"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagInstance string
	flagBackend  string
	flagAccount  string
	flagLanguage string
	flagNoSubs   bool
	flagQuality  string
	flagPlayer   string
	flagRegion   string
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "urchin [query]",
	Short: "Watch YouTube through Invidious and Piped from the terminal",
	Long: `Urchin is a terminal client for alternative YouTube front-ends.
Search videos and channels, stream them with mpv/vlc, follow subscriptions,
and skip sponsor segments during playback.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              searchRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagInstance, "instance", "i", "", "Instance URL (https://...)")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "", "Backend: invidious | piped")
	rootCmd.PersistentFlags().StringVarP(&flagAccount, "account", "a", "", "Account id to use for this run")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Subtitle language code (e.g. en)")
	rootCmd.PersistentFlags().BoolVarP(&flagNoSubs, "no-subs", "n", false, "Disable subtitles")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Video quality: best | 144p..2160p")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().StringVarP(&flagRegion, "region", "r", "", "Trending region code (e.g. US)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(subscriptionsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(recentsCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagInstance != "" {
		cfg.Instance = flagInstance
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagRegion != "" {
		cfg.Region = flagRegion
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		log.SetOutput(os.Stderr)
		log.SetPrefix("[urchin] ")
	} else {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
	}

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Printf(format, args...)
	}
}

// app bundles the wired components every command works against.
type app struct {
	store    *store.Store
	accounts *accounts.Model
	subs     *subscriptions.Model
	searcher *search.Model
	sponsor  *sponsorblock.Client
	client   *httputil.Client
}

// newApp wires the component graph from the loaded configuration.
func newApp() (*app, error) {
	dbPath, err := store.DefaultPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	client := httputil.NewClient()

	acct, err := accounts.New(cfg, client, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	subs := subscriptions.New(acct.API)
	acct.OnChange(func(accounts.Account) { subs.Invalidate() })

	if flagAccount != "" {
		a, ok := acct.ByID(flagAccount)
		if !ok {
			st.Close()
			return nil, fmt.Errorf("unknown account %q", flagAccount)
		}
		if err := acct.SetCurrent(a); err != nil {
			st.Close()
			return nil, err
		}
	}

	return &app{
		store:    st,
		accounts: acct,
		subs:     subs,
		searcher: search.New(acct.API, st, search.Options{}),
		sponsor:  sponsorblock.New(client, cfg.SponsorBlock.Instance, cfg.SponsorBlock.Categories),
		client:   client,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("urchin %s\n", Version)
	},
}
