package player

import (
	"fmt"
	"os"
	"os/exec"

	"urchin/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

// Play launches VLC. VLC doesn't have IPC position tracking like mpv,
// so we return 0 for position and segments are not skipped.
func (v *VLC) Play(stream *media.Stream, opts Options) (float64, error) {
	args := []string{
		stream.VideoURL,
		"--meta-title", opts.Title,
		"--play-and-exit",
	}

	if stream.Kind == media.StreamAdaptive && stream.AudioURL != "" {
		args = append(args, "--input-slave="+stream.AudioURL)
	}

	if opts.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", opts.StartPos))
	}

	if opts.SubFile != "" {
		args = append(args, "--sub-file", opts.SubFile)
	}

	cmd := exec.Command("vlc", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			_ = exitErr // VLC exits non-zero on user close
			return 0, nil
		}
		return 0, fmt.Errorf("running vlc: %w", err)
	}

	return 0, nil
}
