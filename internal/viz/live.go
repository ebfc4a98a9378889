package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/lbartron/Verlet/internal/metrics"
	"github.com/lbartron/Verlet/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	statsWidth      = 44
)

type TickMsg time.Time

// Builder creates a fresh simulator. It is called again on reset so that
// one-shot spawners fire anew.
type Builder func() (*sim.Simulator, error)

// Model drives a simulator from wall-clock frames and renders it.
type Model struct {
	name     string
	build    Builder
	run      sim.RunConfig
	sim      *sim.Simulator
	acc      *sim.Accumulator
	clock    sim.Clock
	canvas   *Canvas
	theme    Theme
	running  bool
	showHelp bool
	speed    float64
	frames   int
	energy   []float64
	contacts []float64
	err      error
}

// NewModel builds the first simulator. A nil clock uses wall time.
func NewModel(name string, build Builder, run sim.RunConfig, clock sim.Clock) (Model, error) {
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	if clock == nil {
		clock = sim.NewWallClock()
	}
	return Model{
		name:     name,
		build:    build,
		run:      run,
		sim:      s,
		acc:      sim.NewAccumulator(run.Dt, run.MaxSubsteps, run.MaxFrameTime),
		clock:    clock,
		canvas:   NewCanvas(width, height),
		theme:    Themes[0],
		running:  true,
		speed:    1,
		energy:   make([]float64, 0, historyCapacity),
		contacts: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Engine() *sim.Engine { return m.sim.Engine() }
func (m Model) Frames() int         { return m.frames }
func (m Model) Running() bool       { return m.running }
func (m Model) Speed() float64      { return m.speed }
func (m Model) Theme() Theme        { return m.theme }
func (m Model) Err() error          { return m.err }

func (m Model) tick() tea.Cmd {
	frame := time.Duration(m.run.FrameDt * float64(time.Second))
	return tea.Tick(frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.clock.Elapsed()
		case "r":
			m.reset()
		case "n", ".":
			if !m.running {
				m.advance(m.acc.Dt)
			}
		case "g":
			e := m.sim.Engine()
			e.SetGravity(e.Gravity().Scale(-1))
		case "+", "=":
			m.speed = min(m.speed*2, 4)
		case "-", "_":
			m.speed = max(m.speed/2, 0.25)
		case "t":
			m.theme = NextTheme(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		cols := max(msg.Width-statsWidth-8, 20)
		rows := max(msg.Height-4, 8)
		m.canvas = NewCanvas(cols, rows)
	case TickMsg:
		elapsed := m.clock.Elapsed()
		if m.running {
			m.advance(elapsed * m.speed)
		}
		return m, m.tick()
	}
	return m, nil
}

// advance runs one frame and records its history. An invalid state pauses
// the model and keeps the error for display.
func (m *Model) advance(frameTime float64) {
	m.sim.Frame(m.acc, frameTime)
	m.frames++

	e := m.sim.Engine()
	m.energy = pushBounded(m.energy, metrics.KineticEnergy(e))
	m.contacts = pushBounded(m.contacts, float64(e.SolverStats().Contacts))

	if err := e.Validate(); err != nil {
		m.err = err
		m.running = false
	}
}

func pushBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// reset rebuilds the simulator and clears history. A failed rebuild keeps
// the old simulator.
func (m *Model) reset() {
	s, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.sim = s
	m.acc.Reset()
	m.frames = 0
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
	m.err = nil
	m.clock.Elapsed()
}

// View renders the TUI interface.
func (m Model) View() string {
	e := m.sim.Engine()
	DrawScene(m.canvas, e)

	particles := lipgloss.NewStyle().Foreground(m.theme.Particles)
	canvasView := canvasStyle.Render(particles.Render(m.canvas.String()))

	header := lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true).MarginBottom(1)
	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.name)) + "\n")

	status := lipgloss.NewStyle().Foreground(m.theme.Success).Render("RUNNING")
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Foreground(m.theme.Error).Render("HALTED")
	case !m.running:
		status = lipgloss.NewStyle().Foreground(m.theme.Warning).Render("PAUSED")
	}
	s.WriteString(fmt.Sprintf("%s  x%.2g\n\n", status, m.speed))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Foreground(m.theme.Secondary).Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", e.Time()))
	row("Steps", fmt.Sprintf("%d", e.Steps()))
	row("Particles", fmt.Sprintf("%d/%d", e.Count(), e.Capacity()))
	s.WriteString(ProgressBar(float64(e.Count())/float64(max(e.Capacity(), 1)), 28) + "\n")
	row("Contacts", fmt.Sprintf("%d", e.SolverStats().Contacts))
	s.WriteString(Sparkline(m.contacts, 28) + "\n")
	if gs := e.GridStats(); gs.DirtyCells > 0 {
		row("Occupancy", fmt.Sprintf("%.1f%%", gs.Occupancy()*100))
		row("Max/cell", fmt.Sprintf("%d", gs.MaxInCell))
	}
	row("Gravity", fmt.Sprintf("(%.0f, %.0f)", e.Gravity().X, e.Gravity().Y))
	row("Dropped", fmt.Sprintf("%.3fs", m.acc.Dropped()))
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(m.theme.Error).Width(statsWidth-4).Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Separator(statsWidth-6))
	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Flip gravity ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  N / .    - Single frame when paused ║
║  R        - Reset simulation         ║
║  G        - Flip gravity             ║
║  + / -    - Double/halve speed       ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
