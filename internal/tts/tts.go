// Package tts is the client for the speech-synthesis backend.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/metcalfc/aloud/internal/timing"
)

// Options selects the voice and delivery parameters for a synthesis request.
// ChunkSize is the backend's words-per-chunk split budget, not the character
// budget the local chunker uses.
type Options struct {
	Voice     string  `json:"voice,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	ChunkSize int     `json:"chunkSize,omitempty"`
}

// ChunkAudio is one synthesized chunk: its audio location, duration and
// optional per-word timing. An empty Words slice means the backend supplied
// no timing and the caller falls back to approximate highlighting.
type ChunkAudio struct {
	AudioURL    string        `json:"audioUrl"`
	Duration    float64       `json:"duration"`
	Text        string        `json:"text"`
	StartTime   float64       `json:"startTime"`
	EndTime     float64       `json:"endTime"`
	StartOffset int           `json:"startOffset"`
	EndOffset   int           `json:"endOffset"`
	Words       []timing.Word `json:"words"`
}

// TimedSpeech is the backend's response to a timing-aware synthesis request.
type TimedSpeech struct {
	Chunks         []ChunkAudio `json:"chunks"`
	OriginalText   string       `json:"originalText"`
	NormalizedText string       `json:"normalizedText"`
}

// Synthesizer converts text to speech via the backend.
type Synthesizer interface {
	// Synthesize returns raw playable audio for the text.
	Synthesize(ctx context.Context, text string, opts Options) ([]byte, error)

	// SynthesizeWithTiming returns audio references plus word timing.
	SynthesizeWithTiming(ctx context.Context, text string, opts Options) (*TimedSpeech, error)

	// FetchAudio resolves a chunk's audio URL to its bytes.
	FetchAudio(ctx context.Context, audioURL string) ([]byte, error)
}

// Client talks to the synthesis backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client for the given base URL, e.g.
// "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type synthesisRequest struct {
	Text string `json:"text"`
	Options
}

// Synthesize requests plain audio for the text.
func (c *Client) Synthesize(ctx context.Context, text string, opts Options) ([]byte, error) {
	resp, err := c.post(ctx, "/api/generate_speech", synthesisRequest{Text: text, Options: opts})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

// SynthesizeWithTiming requests audio plus per-word timing for the text.
func (c *Client) SynthesizeWithTiming(ctx context.Context, text string, opts Options) (*TimedSpeech, error) {
	resp, err := c.post(ctx, "/api/generate_speech_with_timing", synthesisRequest{Text: text, Options: opts})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var speech TimedSpeech
	if err := json.NewDecoder(resp.Body).Decode(&speech); err != nil {
		return nil, fmt.Errorf("failed to decode timing response: %w", err)
	}
	return &speech, nil
}

// FetchAudio downloads the audio a timing response points at. Relative URLs
// resolve against the backend base URL.
func (c *Client) FetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	u := audioURL
	if parsed, err := url.Parse(audioURL); err == nil && !parsed.IsAbs() {
		u = c.baseURL + "/" + strings.TrimLeft(audioURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, msg)
}
