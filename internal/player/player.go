// Package player plays synthesized audio through an external player binary.
package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ErrPlaybackBlocked reports that playback could not start, typically
// because no audio output is available. Callers retry with bounded backoff.
var ErrPlaybackBlocked = errors.New("audio playback could not start")

// ErrNoPlayer reports that no supported player binary was found on PATH.
var ErrNoPlayer = errors.New("no audio player found (tried afplay, aplay, paplay, ffplay)")

// Player drives playback of one audio resource at a time.
type Player interface {
	// Play starts playing the given audio, replacing any current playback.
	Play(wav []byte) error

	// Wait blocks until the current playback finishes or is stopped.
	Wait() error

	// Pause suspends playback in place.
	Pause() error

	// Resume continues paused playback.
	Resume() error

	// Stop halts playback and discards the current resource.
	Stop() error

	// Position returns the elapsed playback time of the current resource.
	Position() time.Duration

	// IsPlaying reports whether audio is actively playing.
	IsPlaying() bool
}

// playerCommands lists supported binaries and the arguments that make them
// play a wav file and exit.
var playerCommands = [][]string{
	{"afplay"},
	{"aplay", "-q"},
	{"paplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// CommandPlayer shells out to the first available system audio player.
// Pause and resume use SIGSTOP/SIGCONT so playback continues mid-chunk.
type CommandPlayer struct {
	argv []string
	now  func() time.Time // clock indirection for tests

	mu      sync.Mutex
	cmd     *exec.Cmd
	tmpFile string
	started time.Time
	elapsed time.Duration
	paused  bool
	playing bool
}

// NewCommandPlayer locates a system audio player binary.
func NewCommandPlayer() (*CommandPlayer, error) {
	for _, argv := range playerCommands {
		if path, err := exec.LookPath(argv[0]); err == nil {
			full := append([]string{path}, argv[1:]...)
			return &CommandPlayer{argv: full, now: time.Now}, nil
		}
	}
	return nil, ErrNoPlayer
}

// Play writes the audio to a temp file and spawns the player process.
func (p *CommandPlayer) Play(wav []byte) error {
	p.Stop()

	f, err := os.CreateTemp("", "aloud-*.wav")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
	}
	if _, err := f.Write(wav); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
	}
	f.Close()

	cmd := exec.Command(p.argv[0], append(p.argv[1:], f.Name())...)
	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.tmpFile = f.Name()
	p.started = p.now()
	p.elapsed = 0
	p.paused = false
	p.playing = true
	p.mu.Unlock()
	return nil
}

// Wait blocks until the player process exits.
func (p *CommandPlayer) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil {
		return nil
	}
	err := cmd.Wait()

	p.mu.Lock()
	if p.cmd == cmd {
		p.playing = false
		p.cleanupLocked()
	}
	p.mu.Unlock()
	return err
}

func (p *CommandPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.paused || !p.playing {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return err
	}
	p.elapsed += p.now().Sub(p.started)
	p.paused = true
	return nil
}

func (p *CommandPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || !p.paused {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return err
	}
	p.started = p.now()
	p.paused = false
	return nil
}

func (p *CommandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	if p.paused {
		p.cmd.Process.Signal(syscall.SIGCONT)
	}
	p.cmd.Process.Kill()
	p.playing = false
	p.paused = false
	p.cleanupLocked()
	return nil
}

// Position returns elapsed wall-clock playback time, frozen while paused.
func (p *CommandPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing && p.cmd == nil {
		return 0
	}
	if p.paused || !p.playing {
		return p.elapsed
	}
	return p.elapsed + p.now().Sub(p.started)
}

func (p *CommandPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused
}

// cleanupLocked forgets the process handle. The temp file is removed on a
// short delay: revoking the file while the process teardown is still in
// flight makes some players report a spurious read error.
func (p *CommandPlayer) cleanupLocked() {
	p.cmd = nil
	if p.tmpFile != "" {
		tmp := p.tmpFile
		p.tmpFile = ""
		go func() {
			time.Sleep(100 * time.Millisecond)
			os.Remove(tmp)
		}()
	}
}
