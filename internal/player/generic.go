package player

import (
	"fmt"
	"os"
	"os/exec"

	"urchin/internal/media"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

// Play launches the generic player. Position tracking is not supported.
func (g *Generic) Play(stream *media.Stream, opts Options) (float64, error) {
	args := []string{stream.VideoURL}

	// Both iina and celluloid accept mpv-style flags
	args = append(args, "--force-media-title="+opts.Title)

	if stream.Kind == media.StreamAdaptive && stream.AudioURL != "" {
		args = append(args, "--audio-file="+stream.AudioURL)
	}

	if opts.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", opts.StartPos))
	}

	if opts.SubFile != "" {
		args = append(args, "--sub-file="+opts.SubFile)
	}

	cmd := exec.Command(g.name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return 0, nil
		}
		return 0, fmt.Errorf("running %s: %w", g.name, err)
	}

	return 0, nil
}
