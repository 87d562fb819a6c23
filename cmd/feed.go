package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"urchin/internal/httputil"
	"urchin/internal/provider"
	"urchin/internal/ui"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse new videos from subscribed channels",
	Args:  cobra.NoArgs,
	RunE:  feedRun,
}

func feedRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := requireSubscriptions(a); err != nil {
		return err
	}

	videos, err := a.subs.Feed(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}

	if len(videos) == 0 {
		fmt.Println("No new videos in your feed.")
		return nil
	}

	return pickAndPlay(cmd.Context(), a, "Feed", videos)
}

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Browse subscribed channels",
	Args:  cobra.NoArgs,
	RunE:  subscriptionsRun,
}

var subscribeCmd = &cobra.Command{
	Use:   "add <channel id>",
	Short: "Subscribe to a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  subscribeRun,
}

var unsubscribeCmd = &cobra.Command{
	Use:   "remove <channel id>",
	Short: "Unsubscribe from a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  unsubscribeRun,
}

func init() {
	subscriptionsCmd.AddCommand(subscribeCmd)
	subscriptionsCmd.AddCommand(unsubscribeCmd)
}

func subscriptionsRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := requireSubscriptions(a); err != nil {
		return err
	}

	channels, err := a.subs.Load(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("loading subscriptions: %w", err)
	}

	if len(channels) == 0 {
		fmt.Println("No subscriptions yet.")
		return nil
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}

	idx, err := ui.Select("Subscriptions", names, nil)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	return channelFlow(cmd.Context(), a, channels[idx].ID)
}

func subscribeRun(cmd *cobra.Command, args []string) error {
	channelID := args[0]
	if err := httputil.ValidateChannelID(channelID); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := requireSubscriptions(a); err != nil {
		return err
	}

	if err := a.subs.Subscribe(cmd.Context(), channelID); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	fmt.Printf("Subscribed to %s.\n", channelID)
	return nil
}

func unsubscribeRun(cmd *cobra.Command, args []string) error {
	channelID := args[0]
	if err := httputil.ValidateChannelID(channelID); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := requireSubscriptions(a); err != nil {
		return err
	}

	if err := a.subs.Unsubscribe(cmd.Context(), channelID); err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	fmt.Printf("Unsubscribed from %s.\n", channelID)
	return nil
}

// requireSubscriptions checks the active account can use the
// subscription operations before any network call is made.
func requireSubscriptions(a *app) error {
	api := a.accounts.API()
	if !api.Capabilities().Subscriptions {
		return fmt.Errorf("the %s backend has no subscriptions: %w", api.Backend(), provider.ErrUnsupported)
	}
	if !api.SignedIn() {
		return fmt.Errorf("subscriptions need a signed-in account; add one to the config and pass --account")
	}
	return nil
}
