package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var trendingCmd = &cobra.Command{
	Use:   "trending [default|music|gaming|movies]",
	Short: "Browse trending videos",
	Args:  cobra.MaximumNArgs(1),
	RunE:  trendingRun,
}

func trendingRun(cmd *cobra.Command, args []string) error {
	category := parseCategoryArg(args)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	videos, err := a.accounts.API().FetchTrending(cmd.Context(), cfg.Region, category)
	if err != nil {
		return fmt.Errorf("getting trending: %w", err)
	}

	if len(videos) == 0 {
		fmt.Println("No trending videos found.")
		return nil
	}

	return pickAndPlay(cmd.Context(), a, "Trending", videos)
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Browse popular videos",
	Args:  cobra.NoArgs,
	RunE:  popularRun,
}

func popularRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	api := a.accounts.API()
	if !api.Capabilities().Popular {
		return fmt.Errorf("the %s backend has no popular listing", api.Backend())
	}

	videos, err := api.FetchPopular(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting popular: %w", err)
	}

	if len(videos) == 0 {
		fmt.Println("No popular videos found.")
		return nil
	}

	return pickAndPlay(cmd.Context(), a, "Popular", videos)
}

func parseCategoryArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	switch strings.ToLower(args[0]) {
	case "music", "gaming", "movies":
		return strings.ToLower(args[0])
	default:
		return ""
	}
}
