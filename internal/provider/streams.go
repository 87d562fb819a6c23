package provider

import "urchin/internal/media"

// streamCandidate is one elementary stream extracted from an upstream
// format list, already filtered to the required container format.
type streamCandidate struct {
	URL        string
	Bitrate    int64
	Resolution media.Resolution // empty for audio candidates
}

// buildAdaptiveStreams pairs the single highest-bitrate audio candidate
// with every video candidate carrying a known resolution tag. Missing or
// incompatible candidates drop silently: the result may be empty, never
// an error.
func buildAdaptiveStreams(audios, videos []streamCandidate) []media.Stream {
	var audio *streamCandidate
	for i := range audios {
		a := &audios[i]
		if a.URL == "" {
			continue
		}
		if audio == nil || a.Bitrate > audio.Bitrate {
			audio = a
		}
	}
	if audio == nil {
		return nil
	}

	var streams []media.Stream
	for _, v := range videos {
		if v.URL == "" || v.Resolution.Rank() < 0 {
			continue
		}
		streams = append(streams, media.Stream{
			Kind:       media.StreamAdaptive,
			VideoURL:   v.URL,
			AudioURL:   audio.URL,
			Resolution: v.Resolution,
		})
	}
	return streams
}
