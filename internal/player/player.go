// Package player launches external media players. All invocations use
// exec.Command with explicit argument slices, never a shell.
package player

import (
	"urchin/internal/media"
)

// Options carries per-playback parameters shared by all players.
type Options struct {
	// Title shown in the player window.
	Title string
	// StartPos resumes playback at this many seconds.
	StartPos float64
	// SubFile is a local subtitle file to load.
	SubFile string
	// Segments to skip over during playback, ordered by ascending end.
	// Only players with IPC support honor them.
	Segments []media.Segment
}

// Player is the interface for media player implementations.
type Player interface {
	// Play starts playback of a stream and blocks until the player
	// exits. Returns the last observed playback position.
	Play(stream *media.Stream, opts Options) (float64, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{} // Default to mpv
	}
}
