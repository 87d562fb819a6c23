package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"urchin/internal/media"
)

// MPV implements the Player interface for mpv.
// Uses exec.Command with explicit args (no shell interpretation)
// and IPC via Unix socket at a randomized temp path. The IPC loop
// tracks the playback position and seeks past sponsor segments.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

// Play launches mpv and returns the final playback position.
func (m *MPV) Play(stream *media.Stream, opts Options) (float64, error) {
	// Randomized IPC socket path (prevents symlink attacks)
	socketDir, err := os.MkdirTemp("", "urchin-mpv-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	args := []string{
		stream.VideoURL,
		"--force-media-title=" + opts.Title,
		"--input-ipc-server=" + socketPath,
		"--really-quiet",
	}

	if stream.Kind == media.StreamAdaptive && stream.AudioURL != "" {
		args = append(args, "--audio-file="+stream.AudioURL)
	}

	if opts.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", opts.StartPos))
	}

	if opts.SubFile != "" {
		args = append(args, "--sub-file="+opts.SubFile)
	}

	cmd := exec.Command("mpv", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting mpv: %w", err)
	}

	// The observer hands its result over a channel; reading it after
	// Wait joins the goroutine, so the final position is never read
	// while still being written.
	posCh := make(chan float64, 1)
	go func() {
		posCh <- m.observe(socketPath, opts.Segments)
	}()

	err = cmd.Wait()
	lastPos := <-posCh

	if err != nil {
		// mpv returns non-zero on user quit, which is normal
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 4 {
			return lastPos, nil
		}
	}

	return lastPos, nil
}

// observe follows mpv's IPC socket: it records the playback position and,
// when the play-head enters a skippable segment, seeks to the segment end.
func (m *MPV) observe(socketPath string, segments []media.Segment) float64 {
	var lastPos float64

	// Wait for socket to appear
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return 0
	}
	defer conn.Close()

	scanner := bufio.NewScanner(conn)

	cmd := map[string]interface{}{
		"command":    []interface{}{"observe_property", 1, "time-pos"},
		"request_id": 100,
	}
	data, _ := json.Marshal(cmd)
	data = append(data, '\n')
	conn.Write(data)

	// Skipping at most once per segment end avoids a seek loop when the
	// user deliberately jumps back into a segment.
	skipped := make(map[float64]bool, len(segments))

	for scanner.Scan() {
		line := scanner.Text()
		var event struct {
			Event string  `json:"event"`
			Name  string  `json:"name"`
			Data  float64 `json:"data"`
		}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		if event.Name != "time-pos" || event.Data <= 0 {
			continue
		}
		lastPos = event.Data

		for _, seg := range segments {
			if !seg.Contains(lastPos) || skipped[seg.End] {
				continue
			}
			skipped[seg.End] = true
			seek := map[string]interface{}{
				"command":    []interface{}{"seek", seg.End, "absolute"},
				"request_id": 200,
			}
			payload, _ := json.Marshal(seek)
			payload = append(payload, '\n')
			conn.Write(payload)
			break
		}
	}

	return lastPos
}
