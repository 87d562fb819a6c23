package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"urchin/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Resume a video from the player queue",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func historyRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.QueueItems()
	if err != nil {
		return fmt.Errorf("loading queue: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No queue entries found.")
		return nil
	}

	titles := make([]string, len(entries))
	descs := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
		state := fmt.Sprintf("at %s of %s", ui.FormatDuration(e.PlaybackTime), ui.FormatDuration(e.VideoDuration))
		if e.ShouldRestart() {
			state = "finished, will restart"
		}
		descs[i] = fmt.Sprintf("%s, %s", e.Backend, state)
	}

	idx, err := ui.Select("Queue", titles, descs)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	selected := entries[idx]
	debugf("resuming: %s (ID: %s)", selected.Title, selected.VideoID)

	return fetchAndPlay(cmd.Context(), a, selected.VideoID)
}

var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "Re-run a recent search",
	Args:  cobra.NoArgs,
	RunE:  recentsRun,
}

var recentsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recent searches",
	Args:  cobra.NoArgs,
	RunE:  recentsClearRun,
}

func init() {
	recentsCmd.AddCommand(recentsClearCmd)
}

func recentsRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	recents, err := a.store.Recents(50)
	if err != nil {
		return fmt.Errorf("loading recents: %w", err)
	}

	if len(recents) == 0 {
		fmt.Println("No recent searches.")
		return nil
	}

	items := make([]string, len(recents))
	for i, q := range recents {
		items[i] = q.Query
	}

	idx, err := ui.Select("Recent searches", items, nil)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	return playFlow(cmd.Context(), a, recents[idx])
}

func recentsClearRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.ClearRecents(); err != nil {
		return fmt.Errorf("clearing recents: %w", err)
	}
	fmt.Println("Recent searches cleared.")
	return nil
}
