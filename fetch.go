package main

import (
	"context"

	"github.com/metcalfc/aloud/internal/chunk"
	"github.com/metcalfc/aloud/internal/config"
	"github.com/metcalfc/aloud/internal/session"
	"github.com/metcalfc/aloud/internal/timing"
	"github.com/metcalfc/aloud/internal/tts"
)

// fetchChunkAudio requests synthesis for one chunk and builds its playback
// handle. The timing endpoint is preferred; when the backend omits per-word
// timing the handle carries nil words and highlighting degrades to the
// approximate mapping. The plain endpoint is the fallback, with timing
// estimated from the WAV duration.
func fetchChunkAudio(ctx context.Context, client *tts.Client, c chunk.Chunk, cfg config.Config) (*session.Handle, error) {
	opts := tts.Options{
		Voice: cfg.Voice,
		Speed: cfg.Speed,
		// One engine chunk per request: a budget past the word count keeps
		// the backend from splitting further.
		ChunkSize: len(c.Words) + 1,
	}

	speech, err := client.SynthesizeWithTiming(ctx, c.Text, opts)
	if err == nil && len(speech.Chunks) > 0 {
		sp := speech.Chunks[0]
		wav, err := client.FetchAudio(ctx, sp.AudioURL)
		if err != nil {
			return nil, err
		}
		timing.MarkSkips(sp.Words)
		return &session.Handle{
			Index:    c.Index,
			Chunk:    c,
			Audio:    wav,
			Duration: sp.Duration,
			Words:    sp.Words,
		}, nil
	}

	wav, rawErr := client.Synthesize(ctx, c.Text, opts)
	if rawErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, rawErr
	}
	duration := tts.WAVDuration(wav)
	return &session.Handle{
		Index:    c.Index,
		Chunk:    c,
		Audio:    wav,
		Duration: duration,
		Words:    timing.Estimate(c.Text, duration),
	}, nil
}
