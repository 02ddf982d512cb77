// Package render draws the turn executor's terminal output: markdown
// responses, tool-call lines, panels, and the "thinking" spinner.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	markdown "github.com/MichaelMure/go-term-markdown"
)

var (
	toolStyle = lipgloss.NewStyle().Faint(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// toolIcons mirrors original_source's tool_icons map (spec §4.5 display
// convention).
var toolIcons = map[string]string{
	"read_file":    "📖",
	"write_file":   "✏️",
	"edit_file":    "✂️",
	"glob":         "🔍",
	"grep":         "🔎",
	"execute_bash": "⚡",
	"execute_code": "🔧",
}

func ToolIcon(name string) string {
	if icon, ok := toolIcons[name]; ok {
		return icon
	}
	return "🔧"
}

// Console serializes writes from the turn loop and the Phase 5 background
// task through a single mutex, since both may print concurrently.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	gr  *glamour.TermRenderer
}

// NewConsole returns a Console writing to out, with a glamour renderer
// styled for an 100-column terminal (matching the teacher's fixed-width
// convention in the absence of a live terminal-size query).
func NewConsole(out io.Writer) *Console {
	gr, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	return &Console{out: out, gr: gr}
}

// Markdown renders content as markdown, falling back to go-term-markdown's
// renderer if glamour failed to construct (e.g. no terminal profile could
// be detected) or failed to render content.
func (c *Console) Markdown(content string) string {
	if c.gr != nil {
		if out, err := c.gr.Render(content); err == nil {
			return out
		}
	}
	return string(markdown.Render(content, 100, 6))
}

func (c *Console) Print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, s)
}

func (c *Console) Println(s string) {
	c.Print(s + "\n")
}

func (c *Console) PrintError(s string) {
	c.Println(errStyle.Render(s))
}

func (c *Console) PrintToolLine(name, display string) {
	c.Println(toolStyle.Render(fmt.Sprintf("  %s %s", ToolIcon(name), display)))
}

func (c *Console) PrintDim(s string) {
	c.Println(dimStyle.Render(s))
}

// Spinner drives bubbles/spinner's frame data by hand — cycling its Frames
// slice on a ticker — rather than through a full Bubble Tea Program, since
// the executor's control flow is an imperative state machine, not a TUI
// update loop (see DESIGN.md).
type Spinner struct {
	frames  []string
	fps     time.Duration
	frame   int
	console *Console
	message string
	active  bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner returns a Spinner bound to console, using bubbles' dot frame
// set.
func NewSpinner(console *Console) *Spinner {
	dot := spinner.Dot
	return &Spinner{frames: dot.Frames, fps: dot.FPS, console: console}
}

// Start begins ticking the spinner with message until Stop is called.
func (s *Spinner) Start(message string) {
	if s.active {
		s.Update(message)
		return
	}
	s.message = message
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.fps)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.frame = (s.frame + 1) % len(s.frames)
			s.console.Print("\r" + s.frames[s.frame] + " " + s.message)
		}
	}
}

// Update changes the spinner's message while it is running.
func (s *Spinner) Update(message string) {
	s.message = message
}

// Active reports whether the spinner is currently running.
func (s *Spinner) Active() bool { return s.active }

// Stop halts the spinner and clears its line.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	close(s.stop)
	<-s.done
	s.active = false
	s.console.Print("\r" + strings.Repeat(" ", len(s.message)+4) + "\r")
}
