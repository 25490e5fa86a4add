// Package session drives a reading session: it sequences chunk playback,
// prefetches audio, and keeps the highlight renderer in sync with the clock.
//
// The engine is single-threaded by design. Every method is an event
// delivered from the host's one logical thread (a bubbletea update loop, a
// GUI dispatcher, a test); methods return effects the host executes, such as
// fetching audio or scheduling a timer. Results come back as further events
// carrying the session id, so responses from a stopped session fall through
// the stale guard as no-ops.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/metcalfc/aloud/internal/chunk"
	"github.com/metcalfc/aloud/internal/highlight"
	"github.com/metcalfc/aloud/internal/timing"
)

// ErrNoReadableContent reports that chunking produced nothing to read.
var ErrNoReadableContent = errors.New("no readable content")

// State is the sequencer's playback state.
type State int

const (
	Idle State = iota
	Buffering
	Playing
	Paused
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Buffering:
		return "buffering"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Errored:
		return "retrying"
	}
	return "unknown"
}

// Handle is a buffered, playable audio resource for one chunk.
type Handle struct {
	Index    int
	Chunk    chunk.Chunk
	Audio    []byte
	Duration float64
	Words    []timing.Word // nil means approximate highlighting
}

// Effect is an action the host must carry out on the engine's behalf.
type Effect interface{ effect() }

// FetchAudio asks the host to request synthesis for a chunk and deliver the
// result via AudioReady.
type FetchAudio struct {
	Session uint64
	Chunk   chunk.Chunk
}

// Play starts audible playback of a buffered handle. A failure to start is
// delivered back via PlayFailed; completion via ChunkEnded.
type Play struct {
	Session uint64
	Handle  *Handle
}

// PausePlayback suspends the current audio in place.
type PausePlayback struct{}

// ResumePlayback continues paused audio.
type ResumePlayback struct{}

// Halt stops the current audio immediately.
type Halt struct{}

// Release frees buffered audio resources after Delay. The delay avoids a
// playback-engine race where revoking an in-flight resource surfaces a
// spurious fetch error.
type Release struct {
	Handles []*Handle
	Delay   time.Duration
}

// RetryAfter asks the host to call RetryElapsed for the chunk after Delay.
type RetryAfter struct {
	Session uint64
	Index   int
	Delay   time.Duration
}

// Warn surfaces a user-visible notice.
type Warn struct{ Message string }

func (FetchAudio) effect()     {}
func (Play) effect()           {}
func (PausePlayback) effect()  {}
func (ResumePlayback) effect() {}
func (Halt) effect()           {}
func (Release) effect()        {}
func (RetryAfter) effect()     {}
func (Warn) effect()           {}

// RetryPolicy bounds retries of failed fetches and failed playback starts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Options tunes the sequencer.
type Options struct {
	Window       int // prefetch window, chunks requested ahead of playback
	Retry        RetryPolicy
	ReleaseDelay time.Duration
}

// DefaultOptions returns the sequencer defaults.
func DefaultOptions() Options {
	return Options{
		Window:       3,
		Retry:        RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond},
		ReleaseDelay: 100 * time.Millisecond,
	}
}

// Engine is the playback sequencer for one document.
type Engine struct {
	renderer *highlight.Renderer
	opts     Options

	state   State
	session uint64
	chunks  []chunk.Chunk
	cur     int

	handles    map[int]*Handle
	pending    map[int]bool
	skipped    map[int]bool
	fetchTries map[int]int
	playTries  int
	lastWord   int
}

// New creates an engine painting through renderer.
func New(renderer *highlight.Renderer, opts Options) *Engine {
	if opts.Window < 1 {
		opts.Window = 1
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	return &Engine{
		renderer: renderer,
		opts:     opts,
		state:    Idle,
		lastWord: timing.None,
	}
}

func (e *Engine) State() State    { return e.state }
func (e *Engine) Session() uint64 { return e.session }
func (e *Engine) Current() int    { return e.cur }
func (e *Engine) Len() int        { return len(e.chunks) }

// CurrentChunk returns the active chunk. Valid only outside Idle.
func (e *Engine) CurrentChunk() chunk.Chunk {
	if e.cur >= 0 && e.cur < len(e.chunks) {
		return e.chunks[e.cur]
	}
	return chunk.Chunk{}
}

// Start begins a session over the chunk list. Any previous session is torn
// down first; its effects are included in the returned slice.
func (e *Engine) Start(chunks []chunk.Chunk) ([]Effect, error) {
	return e.StartAt(chunks, 0)
}

// StartAt begins a session at the given chunk index, used when resuming a
// previously read document.
func (e *Engine) StartAt(chunks []chunk.Chunk, at int) ([]Effect, error) {
	var effects []Effect
	if e.state != Idle {
		effects = e.Stop()
	}
	if len(chunks) == 0 {
		return effects, ErrNoReadableContent
	}
	if at < 0 || at >= len(chunks) {
		at = 0
	}

	for i := range chunks {
		chunks[i].Index = i
	}

	e.session++
	e.state = Buffering
	e.chunks = chunks
	e.cur = at
	e.handles = make(map[int]*Handle)
	e.pending = make(map[int]bool)
	e.skipped = make(map[int]bool)
	e.fetchTries = make(map[int]int)
	e.playTries = 0
	e.lastWord = timing.None

	e.renderer.ApplyChunkHighlight(e.chunks[e.cur])
	return append(effects, e.fetchEffects()...), nil
}

// AudioReady delivers the result of a FetchAudio effect, in any order.
// Results from a stopped or superseded session are ignored.
func (e *Engine) AudioReady(session uint64, idx int, h *Handle, err error) []Effect {
	if session != e.session || e.state == Idle {
		return nil
	}
	delete(e.pending, idx)

	if err != nil {
		e.fetchTries[idx]++
		if e.fetchTries[idx] < e.opts.Retry.MaxAttempts {
			return []Effect{RetryAfter{Session: e.session, Index: idx, Delay: e.opts.Retry.Delay}}
		}
		effects := []Effect{Warn{Message: fmt.Sprintf("could not fetch audio for chunk %d, skipping", idx+1)}}
		e.skipped[idx] = true
		if idx == e.cur {
			effects = append(effects, e.advance()...)
		}
		return effects
	}

	if idx < 0 || idx >= len(e.chunks) || e.skipped[idx] {
		return nil
	}
	e.handles[idx] = h

	if idx == e.cur && e.state == Buffering {
		return e.startCurrent()
	}
	return nil
}

// PlayFailed reports that a Play effect could not start audible playback.
func (e *Engine) PlayFailed(session uint64, idx int, err error) []Effect {
	if session != e.session || idx != e.cur || e.state == Idle {
		return nil
	}
	e.playTries++
	if e.playTries < e.opts.Retry.MaxAttempts {
		e.state = Errored
		return []Effect{RetryAfter{Session: e.session, Index: e.cur, Delay: e.opts.Retry.Delay}}
	}

	effects := []Effect{Warn{Message: fmt.Sprintf("playback blocked for chunk %d, skipping (try interacting with the terminal)", idx+1)}}
	e.skipped[e.cur] = true
	return append(effects, e.advance()...)
}

// RetryElapsed delivers a RetryAfter timer. Depending on what failed it
// either re-requests the chunk's audio or retries starting playback.
func (e *Engine) RetryElapsed(session uint64, idx int) []Effect {
	if session != e.session || e.state == Idle {
		return nil
	}
	if idx < 0 || idx >= len(e.chunks) || e.skipped[idx] {
		return nil
	}
	if e.handles[idx] == nil {
		if e.pending[idx] {
			return nil
		}
		e.pending[idx] = true
		return []Effect{FetchAudio{Session: e.session, Chunk: e.chunks[idx]}}
	}
	if idx == e.cur && e.state == Errored {
		e.state = Playing
		return []Effect{Play{Session: e.session, Handle: e.handles[idx]}}
	}
	return nil
}

// ChunkEnded reports that the current chunk's audio finished playing.
func (e *Engine) ChunkEnded(session uint64, idx int) []Effect {
	if session != e.session || e.state != Playing || idx != e.cur {
		return nil
	}
	return e.advance()
}

// Pause suspends playback without discarding buffers or the chunk index.
func (e *Engine) Pause() []Effect {
	if e.state != Playing {
		return nil
	}
	e.state = Paused
	return []Effect{PausePlayback{}}
}

// Resume continues paused playback.
func (e *Engine) Resume() []Effect {
	if e.state != Paused {
		return nil
	}
	e.state = Playing
	return []Effect{ResumePlayback{}}
}

// Next skips forward to the following chunk.
func (e *Engine) Next() []Effect {
	if e.state == Idle {
		return nil
	}
	return append([]Effect{Halt{}}, e.advance()...)
}

// Prev jumps back to the previous chunk, re-requesting its audio if the
// buffer was already released.
func (e *Engine) Prev() []Effect {
	if e.state == Idle {
		return nil
	}
	target := e.cur - 1
	for target >= 0 && e.skipped[target] {
		target--
	}
	if target < 0 {
		target = e.cur // restart current chunk instead
	}

	effects := []Effect{Halt{}}
	e.cur = target
	e.lastWord = timing.None
	e.playTries = 0
	e.renderer.ApplyChunkHighlight(e.chunks[e.cur])

	if h := e.handles[e.cur]; h != nil {
		e.state = Playing
		return append(effects, Play{Session: e.session, Handle: h})
	}
	e.state = Buffering
	if !e.pending[e.cur] {
		e.pending[e.cur] = true
		effects = append(effects, FetchAudio{Session: e.session, Chunk: e.chunks[e.cur]})
	}
	return effects
}

// Stop tears the session down from any state: audio halts, highlights clear,
// buffers are released (deferred), and in-flight requests become stale.
func (e *Engine) Stop() []Effect {
	if e.state == Idle && len(e.handles) == 0 {
		return nil
	}

	var held []*Handle
	for _, h := range e.handles {
		held = append(held, h)
	}

	e.session++
	e.state = Idle
	e.chunks = nil
	e.handles = nil
	e.pending = nil
	e.skipped = nil
	e.fetchTries = nil
	e.lastWord = timing.None
	e.renderer.ClearAll()

	effects := []Effect{Halt{}}
	if len(held) > 0 {
		effects = append(effects, Release{Handles: held, Delay: e.opts.ReleaseDelay})
	}
	return effects
}

// Frame samples the playback clock and repaints the word highlight if the
// resolved word changed. Returns true when the highlight moved.
func (e *Engine) Frame(pos float64) bool {
	if e.state != Playing {
		return false
	}
	h := e.handles[e.cur]
	if h == nil {
		return false
	}
	c := e.chunks[e.cur]
	idx := timing.Resolve(len(c.Words), pos, h.Words, h.Duration)
	if idx == e.lastWord {
		return false
	}
	e.lastWord = idx
	if idx == timing.None {
		e.renderer.ClearWordHighlight()
	} else {
		e.renderer.ApplyWordHighlight(c, idx)
	}
	return true
}

// startCurrent begins playback of the buffered current chunk.
func (e *Engine) startCurrent() []Effect {
	h := e.handles[e.cur]
	e.state = Playing
	e.playTries = 0
	e.lastWord = timing.None
	e.renderer.ApplyChunkHighlight(e.chunks[e.cur])
	return append([]Effect{Play{Session: e.session, Handle: h}}, e.fetchEffects()...)
}

// advance moves past the current chunk: its handle is released, skipped
// chunks are stepped over, and playback continues or re-buffers.
func (e *Engine) advance() []Effect {
	var effects []Effect

	if h := e.handles[e.cur]; h != nil {
		delete(e.handles, e.cur)
		effects = append(effects, Release{Handles: []*Handle{h}, Delay: e.opts.ReleaseDelay})
	}

	e.cur++
	for e.cur < len(e.chunks) && e.skipped[e.cur] {
		e.cur++
	}

	if e.cur >= len(e.chunks) {
		return append(effects, e.Stop()...)
	}

	e.lastWord = timing.None
	e.playTries = 0
	e.renderer.ApplyChunkHighlight(e.chunks[e.cur])

	if h := e.handles[e.cur]; h != nil {
		e.state = Playing
		effects = append(effects, Play{Session: e.session, Handle: h})
	} else {
		e.state = Buffering
	}
	return append(effects, e.fetchEffects()...)
}

// fetchEffects tops up the prefetch window with requests for chunks that
// have no buffered audio and no request in flight.
func (e *Engine) fetchEffects() []Effect {
	var effects []Effect
	for i := e.cur; i < e.cur+e.opts.Window && i < len(e.chunks); i++ {
		if e.handles[i] != nil || e.pending[i] || e.skipped[i] {
			continue
		}
		if e.fetchTries[i] >= e.opts.Retry.MaxAttempts {
			continue
		}
		e.pending[i] = true
		effects = append(effects, FetchAudio{Session: e.session, Chunk: e.chunks[i]})
	}
	return effects
}
