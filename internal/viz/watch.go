package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/lbartron/Verlet/internal/sim"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Watcher is a sim.Observer that redraws the scene to a plain terminal
// every few frames, for runs without the interactive view.
type Watcher struct {
	out    io.Writer
	name   string
	every  int
	canvas *Canvas
}

func NewWatcher(out io.Writer, name string, every int) *Watcher {
	if every < 1 {
		every = 1
	}
	return &Watcher{out: out, name: name, every: every, canvas: NewCanvas(70, 20)}
}

func (w *Watcher) OnFrame(e *sim.Engine, frame int) {
	if frame%w.every != 0 {
		return
	}
	DrawScene(w.canvas, e)

	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs\n", w.name, e.Time())
	b.WriteString("  " + strings.Repeat("-", w.canvas.Width) + "\n")
	for _, row := range w.canvas.Grid {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString("  " + strings.Repeat("-", w.canvas.Width) + "\n")
	fmt.Fprintf(&b, "  frame=%d n=%d contacts=%d\n", frame, e.Count(), e.SolverStats().Contacts)

	io.WriteString(w.out, b.String())
}

func (w *Watcher) Start() { io.WriteString(w.out, hideCursor) }
func (w *Watcher) Stop()  { io.WriteString(w.out, showCursor) }
