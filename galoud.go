//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/aloud/internal/chunk"
	"github.com/metcalfc/aloud/internal/config"
	"github.com/metcalfc/aloud/internal/extract"
	"github.com/metcalfc/aloud/internal/highlight"
	"github.com/metcalfc/aloud/internal/player"
	"github.com/metcalfc/aloud/internal/session"
	"github.com/metcalfc/aloud/internal/state"
	"github.com/metcalfc/aloud/internal/tts"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// gui owns the engine behind a mutex: fyne callbacks, timers and fetch
// goroutines all funnel through run(), so engine events stay serialized the
// same way the TUI's update loop serializes them.
type gui struct {
	mu       sync.Mutex
	cfg      config.Config
	client   *tts.Client
	pl       *player.CommandPlayer
	renderer *highlight.Renderer
	engine   *session.Engine
	store    *state.StateStore
	hash     string
	playSeq  uint64

	win     fyne.Window
	text    *widget.RichText
	scroll  *container.Scroll
	status  *widget.Label
	warning *widget.Label
	playBtn *widget.Button
}

// run delivers one engine event and executes the resulting effects.
func (g *gui) run(event func() []session.Effect) {
	g.mu.Lock()
	effects := event()
	g.dispatchLocked(effects)
	g.mu.Unlock()
	g.refresh()
}

func (g *gui) dispatchLocked(effects []session.Effect) {
	for _, ef := range effects {
		switch ef := ef.(type) {
		case session.FetchAudio:
			go g.fetch(ef)

		case session.Play:
			if err := g.pl.Play(ef.Handle.Audio); err != nil {
				g.dispatchLocked(g.engine.PlayFailed(ef.Session, ef.Handle.Index, err))
				continue
			}
			g.playSeq++
			go g.awaitPlayback(g.playSeq, ef.Session, ef.Handle.Index)

		case session.PausePlayback:
			g.pl.Pause()

		case session.ResumePlayback:
			g.pl.Resume()

		case session.Halt:
			g.pl.Stop()

		case session.Release:
			handles := ef.Handles
			time.AfterFunc(ef.Delay, func() {
				for _, h := range handles {
					h.Audio = nil
				}
			})

		case session.RetryAfter:
			sess, idx := ef.Session, ef.Index
			time.AfterFunc(ef.Delay, func() {
				g.run(func() []session.Effect { return g.engine.RetryElapsed(sess, idx) })
			})

		case session.Warn:
			msg := ef.Message
			fyne.Do(func() { g.warning.SetText(msg) })
		}
	}
}

func (g *gui) fetch(ef session.FetchAudio) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	h, err := fetchChunkAudio(ctx, g.client, ef.Chunk, g.cfg)
	g.run(func() []session.Effect {
		return g.engine.AudioReady(ef.Session, ef.Chunk.Index, h, err)
	})
}

func (g *gui) awaitPlayback(seq, sess uint64, idx int) {
	g.pl.Wait()
	g.run(func() []session.Effect {
		if seq != g.playSeq {
			return nil
		}
		effects := g.engine.ChunkEnded(sess, idx)
		g.savePositionLocked()
		return effects
	})
}

// frameLoop samples the playback clock and repaints the word highlight.
func (g *gui) frameLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pos := g.pl.Position().Seconds()
			g.mu.Lock()
			moved := g.engine.Frame(pos)
			g.mu.Unlock()
			if moved {
				g.refresh()
			}
		}
	}
}

// refresh rebuilds the document view from the renderer's snapshot.
func (g *gui) refresh() {
	g.mu.Lock()
	views := g.renderer.Snapshot()
	st := g.engine.State()
	cur, total := g.engine.Current()+1, g.engine.Len()
	g.mu.Unlock()

	var segments []widget.RichTextSegment
	for _, v := range views {
		for i, tok := range v.Tokens {
			text := tok.Text
			if i < len(v.Tokens)-1 {
				text += " "
			}
			style := widget.RichTextStyleInline
			switch {
			case tok.Word:
				style.ColorName = theme.ColorNamePrimary
				style.TextStyle = fyne.TextStyle{Bold: true}
			case tok.Chunk:
				style.TextStyle = fyne.TextStyle{Bold: true}
			}
			segments = append(segments, &widget.TextSegment{Text: text, Style: style})
		}
		segments = append(segments, &widget.TextSegment{Text: "\n\n", Style: widget.RichTextStyleParagraph})
	}

	fyne.Do(func() {
		g.text.Segments = segments
		g.text.Refresh()
		g.status.SetText(fmt.Sprintf("Chunk %d/%d | %s | %s | %.1fx", cur, total, st, g.cfg.Voice, g.cfg.Speed))
		if st == session.Playing {
			g.playBtn.SetText("Pause")
		} else {
			g.playBtn.SetText("Play")
		}
	})
}

func (g *gui) savePositionLocked() {
	if g.store != nil && g.hash != "" && g.engine.State() != session.Idle {
		g.store.SetPosition(g.hash, g.engine.Current())
	}
}

func main() {
	backend := flag.String("b", "", "Backend URL (overrides config)")
	voice := flag.String("voice", "", "TTS voice: piper, kokoro, coqui, openai")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("galoud %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: galoud [options] <file>")
		os.Exit(1)
	}
	filename := flag.Arg(0)

	cfg := config.Load()
	if *backend != "" {
		cfg.BackendURL = *backend
	}
	if *voice != "" {
		cfg.Voice = *voice
	}
	cfg.Normalize()

	regions, err := extract.Regions(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read file '%s': %v\n", filename, err)
		os.Exit(1)
	}

	pl, err := player.NewCommandPlayer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc := highlight.NewDocument()
	var chunks []chunk.Chunk
	for _, r := range regions {
		doc.AddElement(r.Ref, r.Text)
		chunks = append(chunks, chunk.SplitRegion(r.Ref, r.Text, cfg.ChunkSize)...)
	}

	chunkScheme, _ := highlight.ParseScheme(cfg.HighlightColor)
	wordScheme, _ := highlight.ParseScheme(cfg.WordHighlightColor)
	renderer := highlight.NewRenderer(doc, chunkScheme, wordScheme, cfg.WordHighlight)
	engine := session.New(renderer, session.DefaultOptions())

	store, _ := state.NewStateStore()
	hash := ""
	if h, err := state.ComputeHash(filename); err == nil {
		hash = h
	}

	a := app.New()
	win := a.NewWindow("Aloud")
	win.Resize(fyne.NewSize(720, 560))

	g := &gui{
		cfg:      cfg,
		client:   tts.NewClient(cfg.BackendURL),
		pl:       pl,
		renderer: renderer,
		engine:   engine,
		store:    store,
		hash:     hash,
		win:      win,
	}

	g.text = widget.NewRichText()
	g.text.Wrapping = fyne.TextWrapWord
	g.scroll = container.NewScroll(g.text)
	g.status = widget.NewLabel("idle")
	g.warning = widget.NewLabel("")

	g.playBtn = widget.NewButton("Play", func() {
		g.run(func() []session.Effect {
			if g.engine.State() == session.Playing {
				return g.engine.Pause()
			}
			if g.engine.State() == session.Paused {
				return g.engine.Resume()
			}
			startAt := 0
			if g.store != nil && g.hash != "" {
				startAt = g.store.GetPosition(g.hash)
			}
			effects, err := g.engine.StartAt(chunks, startAt)
			if err != nil {
				fyne.Do(func() { g.warning.SetText("No text to read.") })
				return nil
			}
			return effects
		})
	})
	stopBtn := widget.NewButton("Stop", func() {
		g.run(func() []session.Effect {
			g.savePositionLocked()
			return g.engine.Stop()
		})
	})
	prevBtn := widget.NewButton("Prev", func() {
		g.run(func() []session.Effect { return g.engine.Prev() })
	})
	nextBtn := widget.NewButton("Next", func() {
		g.run(func() []session.Effect { return g.engine.Next() })
	})

	voiceSelect := widget.NewSelect(config.Voices, func(v string) {
		g.mu.Lock()
		g.cfg.Voice = v
		g.cfg.Save()
		g.mu.Unlock()
	})
	voiceSelect.SetSelected(cfg.Voice)

	speeds := []string{"0.5x", "0.75x", "1x", "1.25x", "1.5x", "2x"}
	speedSelect := widget.NewSelect(speeds, func(v string) {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.cfg.Speed = f
		g.cfg.Save()
		g.mu.Unlock()
		g.refresh()
	})
	speedSelect.SetSelected(fmt.Sprintf("%gx", cfg.Speed))

	colorSelect := widget.NewSelect([]string{"yellow", "green", "blue", "pink", "orange"}, func(name string) {
		s, _ := highlight.ParseScheme(name)
		g.mu.Lock()
		g.renderer.SetChunkScheme(s)
		g.renderer.SetWordScheme(s)
		g.cfg.HighlightColor = name
		g.cfg.WordHighlightColor = name
		g.cfg.Save()
		g.mu.Unlock()
		g.refresh()
	})
	colorSelect.SetSelected(cfg.HighlightColor)

	controls := container.NewHBox(g.playBtn, stopBtn, prevBtn, nextBtn, voiceSelect, speedSelect, colorSelect)
	win.SetContent(container.NewBorder(
		container.NewVBox(g.status, controls),
		g.warning,
		nil, nil,
		g.scroll,
	))

	stop := make(chan struct{})
	go g.frameLoop(stop)
	win.SetOnClosed(func() {
		close(stop)
		g.mu.Lock()
		g.savePositionLocked()
		g.dispatchLocked(g.engine.Stop())
		g.mu.Unlock()
		pl.Stop()
	})

	g.refresh()
	win.ShowAndRun()
}
