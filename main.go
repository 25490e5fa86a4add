//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
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

const frameInterval = 33 * time.Millisecond

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

type model struct {
	cfg      config.Config
	client   *tts.Client
	pl       *player.CommandPlayer
	renderer *highlight.Renderer
	engine   *session.Engine
	store    *state.StateStore
	hash     string

	spin    spinner.Model
	initial []session.Effect
	playSeq uint64
	warning string
	scroll  int
	width   int
	height  int

	quitting bool
	done     bool
}

type frameMsg time.Time

type audioMsg struct {
	session uint64
	index   int
	handle  *session.Handle
	err     error
}

type playDoneMsg struct {
	seq   uint64
	sess  uint64
	index int
}

type retryMsg struct {
	session uint64
	index   int
}

type releasedMsg struct{}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, frameTick(), m.runEffects(m.initial))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		if m.engine.Frame(m.pl.Position().Seconds()) && m.cfg.AutoScroll {
			m.followActiveLine()
		}
		return m, frameTick()

	case audioMsg:
		cmd := m.runEffects(m.engine.AudioReady(msg.session, msg.index, msg.handle, msg.err))
		return m, cmd

	case playDoneMsg:
		if msg.seq != m.playSeq {
			return m, nil
		}
		cmd := m.runEffects(m.engine.ChunkEnded(msg.sess, msg.index))
		m.savePosition()
		if m.engine.State() == session.Idle {
			m.done = true
			m.quitting = true
			m.clearPosition()
			return m, tea.Batch(cmd, tea.Quit)
		}
		return m, cmd

	case retryMsg:
		return m, m.runEffects(m.engine.RetryElapsed(msg.session, msg.index))

	case releasedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		if m.engine.State() == session.Playing {
			return m, m.runEffects(m.engine.Pause())
		}
		return m, m.runEffects(m.engine.Resume())

	case "n", "right":
		cmd := m.runEffects(m.engine.Next())
		m.savePosition()
		if m.engine.State() == session.Idle {
			m.done = true
			m.quitting = true
			return m, tea.Batch(cmd, tea.Quit)
		}
		return m, cmd

	case "p", "left":
		cmd := m.runEffects(m.engine.Prev())
		m.savePosition()
		return m, cmd

	case "c":
		m.renderer.SetChunkScheme(m.renderer.ChunkScheme().Next())
		m.cfg.HighlightColor = m.renderer.ChunkScheme().String()
		m.cfg.Save()
		return m, nil

	case "C":
		m.renderer.SetWordScheme(m.renderer.WordScheme().Next())
		m.cfg.WordHighlightColor = m.renderer.WordScheme().String()
		m.cfg.Save()
		return m, nil

	case "w":
		m.cfg.WordHighlight = !m.cfg.WordHighlight
		m.renderer.SetWordLevel(m.cfg.WordHighlight)
		m.cfg.Save()
		return m, nil

	case "s":
		m.cfg.AutoScroll = !m.cfg.AutoScroll
		m.cfg.Save()
		return m, nil

	case "+", "=":
		if m.cfg.Speed < 2.0 {
			m.cfg.Speed += 0.1
			m.cfg.Normalize()
			m.cfg.Save()
		}
		return m, nil

	case "-":
		if m.cfg.Speed > 0.5 {
			m.cfg.Speed -= 0.1
			m.cfg.Normalize()
			m.cfg.Save()
		}
		return m, nil

	case "up":
		m.scroll--
		if m.scroll < 0 {
			m.scroll = 0
		}
		return m, nil

	case "down":
		m.scroll++
		return m, nil

	case "q", "Q", "ctrl+c":
		m.quitting = true
		m.savePosition()
		cmd := m.runEffects(m.engine.Stop())
		return m, tea.Batch(cmd, tea.Quit)
	}

	return m, nil
}

// runEffects executes the engine's effects: synchronous player calls happen
// inline, asynchronous work becomes bubbletea commands that feed results
// back as messages.
func (m *model) runEffects(effects []session.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, ef := range effects {
		switch ef := ef.(type) {
		case session.FetchAudio:
			cmds = append(cmds, m.fetchCmd(ef))

		case session.Play:
			if err := m.pl.Play(ef.Handle.Audio); err != nil {
				cmds = append(cmds, m.runEffects(m.engine.PlayFailed(ef.Session, ef.Handle.Index, err)))
				continue
			}
			m.playSeq++
			cmds = append(cmds, m.waitCmd(m.playSeq, ef.Session, ef.Handle.Index))

		case session.PausePlayback:
			m.pl.Pause()

		case session.ResumePlayback:
			m.pl.Resume()

		case session.Halt:
			m.pl.Stop()

		case session.Release:
			cmds = append(cmds, releaseCmd(ef))

		case session.RetryAfter:
			sess, idx := ef.Session, ef.Index
			cmds = append(cmds, tea.Tick(ef.Delay, func(time.Time) tea.Msg {
				return retryMsg{session: sess, index: idx}
			}))

		case session.Warn:
			m.warning = ef.Message
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *model) fetchCmd(ef session.FetchAudio) tea.Cmd {
	client := m.client
	cfg := m.cfg
	c := ef.Chunk
	sess := ef.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		h, err := fetchChunkAudio(ctx, client, c, cfg)
		return audioMsg{session: sess, index: c.Index, handle: h, err: err}
	}
}

func (m *model) waitCmd(seq, sess uint64, idx int) tea.Cmd {
	pl := m.pl
	return func() tea.Msg {
		pl.Wait()
		return playDoneMsg{seq: seq, sess: sess, index: idx}
	}
}

func releaseCmd(ef session.Release) tea.Cmd {
	handles := ef.Handles
	delay := ef.Delay
	return func() tea.Msg {
		time.Sleep(delay)
		for _, h := range handles {
			h.Audio = nil
		}
		return releasedMsg{}
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *model) savePosition() {
	if m.store != nil && m.hash != "" && m.engine.State() != session.Idle {
		m.store.SetPosition(m.hash, m.engine.Current())
	}
}

func (m *model) clearPosition() {
	if m.store != nil && m.hash != "" {
		m.store.Clear(m.hash)
	}
}

func (m *model) followActiveLine() {
	visible := m.bodyHeight()
	target := m.renderer.ActiveLine() - visible/2
	if target < 0 {
		target = 0
	}
	m.scroll = target
}

func (m *model) bodyHeight() int {
	// Status, controls and warning lines are reserved.
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (m *model) View() string {
	if m.quitting {
		if m.done {
			return completeStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}

	st := m.engine.State()
	status := fmt.Sprintf("Chunk %d/%d | %s | %s | %.1fx",
		m.engine.Current()+1,
		m.engine.Len(),
		st,
		m.cfg.Voice,
		m.cfg.Speed,
	)
	if st == session.Buffering {
		status += " " + m.spin.View()
	}
	line := statusStyle.Render(status)
	if st == session.Paused {
		line += pausedStyle.Render(" [PAUSED]")
	}

	body := m.renderer.Render(m.width - 2)
	lines := strings.Split(body, "\n")
	visible := m.bodyHeight()
	scroll := m.scroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + visible
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[scroll:end]

	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteString("\n")
	for _, l := range window {
		sb.WriteString(" ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	for i := len(window); i < visible; i++ {
		sb.WriteString("\n")
	}

	if m.warning != "" {
		sb.WriteString(warnStyle.Render(m.warning))
	}
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("SPACE: pause/play  ←/→: chunk  ↑/↓: scroll  c/C: colors  w: words  s: scroll lock  +/-: speed  Q: quit"))

	return sb.String()
}

// newModel chunks the regions and builds the session. startRegion picks the
// region to start reading from; pass -1 to resume from the saved position.
func newModel(regions []extract.Region, cfg config.Config, client *tts.Client, pl *player.CommandPlayer, store *state.StateStore, hash string, startRegion int) (*model, error) {
	doc := highlight.NewDocument()
	var chunks []chunk.Chunk
	firstChunk := make([]int, len(regions))
	for i, r := range regions {
		firstChunk[i] = len(chunks)
		doc.AddElement(r.Ref, r.Text)
		chunks = append(chunks, chunk.SplitRegion(r.Ref, r.Text, cfg.ChunkSize)...)
	}

	chunkScheme, _ := highlight.ParseScheme(cfg.HighlightColor)
	wordScheme, _ := highlight.ParseScheme(cfg.WordHighlightColor)
	renderer := highlight.NewRenderer(doc, chunkScheme, wordScheme, cfg.WordHighlight)
	engine := session.New(renderer, session.DefaultOptions())

	startAt := 0
	if startRegion >= 0 && startRegion < len(regions) {
		startAt = firstChunk[startRegion]
	} else if store != nil && hash != "" {
		startAt = store.GetPosition(hash)
	}
	effects, err := engine.StartAt(chunks, startAt)
	if err != nil {
		return nil, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &model{
		cfg:      cfg,
		client:   client,
		pl:       pl,
		renderer: renderer,
		engine:   engine,
		store:    store,
		hash:     hash,
		spin:     sp,
		initial:  effects,
		width:    80,
		height:   24,
	}, nil
}

func main() {
	backend := flag.String("b", "", "Backend URL (overrides config)")
	voice := flag.String("voice", "", "TTS voice: piper, kokoro, coqui, openai")
	speed := flag.Float64("speed", 0, "Playback speed multiplier (0.5-2.0)")
	listTOC := flag.Bool("toc", false, "List the document's table of contents and exit")
	from := flag.Int("from", 0, "Start reading at the given section number (see -toc)")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Aloud - Terminal Read-Aloud Client\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  aloud [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats: %s\n", strings.Join(extract.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  aloud article.md            Read a file aloud\n")
		fmt.Fprintf(os.Stderr, "  aloud -voice kokoro b.epub  Read an EPUB with the kokoro voice\n")
		fmt.Fprintf(os.Stderr, "  aloud -toc book.epub        List chapters\n")
		fmt.Fprintf(os.Stderr, "  aloud -from 3 book.epub     Start reading at chapter 3\n")
		fmt.Fprintf(os.Stderr, "  cat notes.txt | aloud       Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Pause/play\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Previous/next chunk\n")
		fmt.Fprintf(os.Stderr, "  ↑/↓      Scroll\n")
		fmt.Fprintf(os.Stderr, "  c/C      Cycle chunk/word highlight color\n")
		fmt.Fprintf(os.Stderr, "  w        Toggle word highlighting\n")
		fmt.Fprintf(os.Stderr, "  s        Toggle auto-scroll\n")
		fmt.Fprintf(os.Stderr, "  +/-      Adjust speed (upcoming chunks)\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("aloud %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg := config.Load()
	if *backend != "" {
		cfg.BackendURL = *backend
	}
	if *voice != "" {
		cfg.Voice = *voice
	}
	if *speed != 0 {
		cfg.Speed = *speed
	}
	cfg.Normalize()

	if *listTOC {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: -toc requires a file.")
			os.Exit(1)
		}
		entries, err := extract.TOC(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("No table of contents.")
			os.Exit(0)
		}
		for i, e := range entries {
			indent := strings.Repeat("  ", e.Level)
			fmt.Printf("%s%d. %s\n", indent, i+1, e.Title)
			if e.Preview != "" {
				fmt.Printf("%s   %s\n", indent, e.Preview)
			}
		}
		os.Exit(0)
	}

	var regions []extract.Region
	var hash string
	startRegion := -1

	if flag.NArg() > 0 {
		filename := flag.Arg(0)
		var err error
		regions, err = extract.Regions(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read file '%s': %v\n", filename, err)
			os.Exit(1)
		}
		if h, err := state.ComputeHash(filename); err == nil {
			hash = h
		}
		if *from > 0 {
			entries, err := extract.TOC(filename)
			if err != nil || *from > len(entries) {
				fmt.Fprintf(os.Stderr, "Error: No section %d in '%s'.\n", *from, filename)
				os.Exit(1)
			}
			startRegion = entries[*from-1].RegionIndex
		}
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
			fmt.Fprintln(os.Stderr, "Try: aloud -h")
			os.Exit(1)
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		regions = extract.PlainRegions(string(data))
	}

	pl, err := player.NewCommandPlayer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, _ := state.NewStateStore()

	m, err := newModel(regions, cfg, tts.NewClient(cfg.BackendURL), pl, store, hash, startRegion)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	pl.Stop()
}
