package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"urchin/internal/media"
	"urchin/internal/player"
	"urchin/internal/subtitle"
	"urchin/internal/ui"
)

// searchRun is the default command: urchin [query]
func searchRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	if query == "" {
		// Interactive search screen with suggestions and live results.
		item, err := ui.RunSearch(a.searcher)
		if err != nil {
			if errors.Is(err, ui.ErrCancelled) {
				return nil
			}
			return err
		}
		return playItem(cmd.Context(), a, *item)
	}

	debugf("searching for: %s", query)
	return playFlow(cmd.Context(), a, media.NewSearchQuery(query))
}

// playFlow handles the non-interactive search -> select -> play flow.
func playFlow(ctx context.Context, a *app, query media.SearchQuery) error {
	results, err := a.accounts.API().Search(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if err := a.store.AddRecent(query); err != nil {
		debugf("saving recent search failed: %v", err)
	}

	titles := make([]string, len(results))
	descs := make([]string, len(results))
	for i, r := range results {
		titles[i], descs[i] = describeItem(r)
	}

	idx, err := ui.Select("Select", titles, descs)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	return playItem(ctx, a, results[idx])
}

// playItem dispatches on the selected result kind.
func playItem(ctx context.Context, a *app, item media.ContentItem) error {
	switch item.Kind {
	case media.ContentVideo:
		return fetchAndPlay(ctx, a, item.Video.ID)

	case media.ContentChannel:
		return channelFlow(ctx, a, item.Channel.ID)

	case media.ContentPlaylist:
		return playlistFlow(ctx, a, item.Playlist)

	default:
		return fmt.Errorf("unsupported result kind")
	}
}

// channelFlow lists a channel's videos and plays the picked one.
func channelFlow(ctx context.Context, a *app, channelID string) error {
	channel, err := a.accounts.API().FetchChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("fetching channel: %w", err)
	}
	if len(channel.Videos) == 0 {
		fmt.Println("Channel has no videos.")
		return nil
	}
	return pickAndPlay(ctx, a, channel.Name, channel.Videos)
}

// playlistFlow plays from the videos a playlist listing embeds.
func playlistFlow(ctx context.Context, a *app, pl *media.Playlist) error {
	if len(pl.Videos) == 0 {
		fmt.Println("Playlist contents are not available on this backend.")
		return nil
	}
	return pickAndPlay(ctx, a, pl.Title, pl.Videos)
}

// pickAndPlay shows a video list and plays the selection.
func pickAndPlay(ctx context.Context, a *app, prompt string, videos []media.Video) error {
	titles := make([]string, len(videos))
	descs := make([]string, len(videos))
	for i, v := range videos {
		titles[i] = v.Title
		descs[i] = fmt.Sprintf("%s, %s, %d views", v.Author, ui.FormatDuration(v.Length), v.Views)
	}

	idx, err := ui.Select(prompt, titles, descs)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}
	return fetchAndPlay(ctx, a, videos[idx].ID)
}

// fetchAndPlay loads the full video (listing entries carry no streams)
// and starts playback.
func fetchAndPlay(ctx context.Context, a *app, videoID string) error {
	video, err := a.accounts.API().FetchVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("fetching video: %w", err)
	}
	return playVideo(ctx, a, video)
}

// playVideo plays one video: stream selection, sponsor segments, subtitle
// download, queue resume, and progress persistence afterwards.
func playVideo(ctx context.Context, a *app, video *media.Video) error {
	var stream *media.Stream
	if cfg.Quality == "best" {
		stream = video.BestStream()
	} else {
		stream = video.StreamAt(media.Resolution(cfg.Quality))
	}
	if stream == nil {
		return fmt.Errorf("no playable streams for %q", video.Title)
	}
	debugf("stream: %s %s", stream.Kind, stream.Resolution)

	// Sponsor segments are best effort.
	if err := a.sponsor.Load(ctx, video.ID); err != nil {
		debugf("sponsor segments unavailable: %v", err)
	}

	var subFile string
	if !flagNoSubs && flagLanguage != "" {
		if best := subtitle.BestMatch(video.Captions, flagLanguage); best != nil {
			tmpDir, err := subtitle.NewTempDir()
			if err == nil {
				defer tmpDir.Cleanup()
				subFile, err = tmpDir.Download(ctx, a.client, *best)
				if err != nil {
					debugf("subtitle download failed: %v", err)
					subFile = "" // Continue without subs
				} else {
					debugf("subtitle file: %s", subFile)
				}
			}
		}
	}

	var startPos float64
	if cfg.History {
		if entry, err := a.store.QueueItem(video.Backend, video.ID); err == nil && entry != nil {
			startPos = entry.ResumePosition()
			if startPos > 0 {
				debugf("resuming from position: %.0fs", startPos)
			}
		}
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	lastPos, err := p.Play(stream, player.Options{
		Title:    video.Title,
		StartPos: startPos,
		SubFile:  subFile,
		Segments: a.sponsor.Segments(),
	})
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	if cfg.History {
		entry := media.QueueItem{
			Backend:       video.Backend,
			VideoID:       video.ID,
			Title:         video.Title,
			PlaybackTime:  lastPos,
			VideoDuration: video.Length,
		}
		if err := a.store.SaveQueueItem(entry); err != nil {
			debugf("saving queue item failed: %v", err)
		}
	}

	return nil
}

// describeItem renders a result as list title and description lines.
func describeItem(item media.ContentItem) (string, string) {
	switch item.Kind {
	case media.ContentChannel:
		return "@ " + item.Channel.Name,
			fmt.Sprintf("channel, %d subscribers", item.Channel.Subscribers)
	case media.ContentPlaylist:
		return "# " + item.Playlist.Title,
			fmt.Sprintf("playlist by %s, %d videos", item.Playlist.Author, item.Playlist.VideoCount)
	default:
		v := item.Video
		return v.Title,
			fmt.Sprintf("%s, %s, %d views", v.Author, ui.FormatDuration(v.Length), v.Views)
	}
}
