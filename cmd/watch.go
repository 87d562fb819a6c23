package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"urchin/internal/httputil"
)

var watchCmd = &cobra.Command{
	Use:   "watch <video id or URL>",
	Short: "Watch a video by id or URL",
	Args:  cobra.ExactArgs(1),
	RunE:  watchRun,
}

func watchRun(cmd *cobra.Command, args []string) error {
	videoID, err := extractVideoID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	debugf("watching video: %s", videoID)
	return fetchAndPlay(cmd.Context(), a, videoID)
}

// extractVideoID accepts a bare video id, a watch URL (?v=...), or a
// short youtu.be-style URL.
func extractVideoID(arg string) (string, error) {
	if httputil.ValidateVideoID(arg) == nil {
		return arg, nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("not a video id or URL: %q", arg)
	}

	if id := u.Query().Get("v"); id != "" {
		if err := httputil.ValidateVideoID(id); err != nil {
			return "", err
		}
		return id, nil
	}

	// Short links carry the id as the last path segment.
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 {
		id := segments[len(segments)-1]
		if httputil.ValidateVideoID(id) == nil {
			return id, nil
		}
	}

	return "", fmt.Errorf("could not extract a video id from %q", arg)
}
