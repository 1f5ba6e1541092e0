package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apogee-sim/airbrakes/internal/control"
	"github.com/apogee-sim/airbrakes/internal/sim"
)

const (
	graphWidth      = 60
	historyCapacity = 2400
	framesPerSecond = 30
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Bold(true)
	barFull     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	barEmpty    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps a coast flight in real time and renders controller and
// trajectory state. The physics advances at wall-clock speed; each
// frame runs as many fixed steps as fit into the frame interval.
type Model struct {
	dyn        sim.Dynamics
	integrator sim.Integrator
	loop       *control.Loop

	state sim.State
	x0    sim.State
	t     float64
	dt    float64

	altHistory    []float64
	deployHistory []float64
	apogee        float64

	running bool
	done    bool
}

func NewModel(dyn sim.Dynamics, integ sim.Integrator, loop *control.Loop, x0 sim.State, dt float64) Model {
	return Model{
		dyn:           dyn,
		integrator:    integ,
		loop:          loop,
		state:         x0.Clone(),
		x0:            x0.Clone(),
		dt:            dt,
		altHistory:    make([]float64, 0, historyCapacity),
		deployHistory: make([]float64, 0, historyCapacity),
		apogee:        x0[0],
		running:       true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/framesPerSecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		}
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	steps := int(1.0 / (float64(framesPerSecond) * m.dt))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		d := m.loop.Update(m.t, m.state[0], m.state[1], true)
		m.state = m.integrator.Step(m.dyn, m.state, sim.Control{d}, m.t, m.dt)
		m.t += m.dt

		if m.state[0] > m.apogee {
			m.apogee = m.state[0]
		}
		if len(m.altHistory) < historyCapacity {
			m.altHistory = append(m.altHistory, m.state[0])
			m.deployHistory = append(m.deployHistory, d)
		}
		if m.state[1] <= 0 && m.loop.Locked() {
			m.done = true
			return
		}
	}
}

func (m *Model) reset() {
	m.state = m.x0.Clone()
	m.t = 0
	m.apogee = m.x0[0]
	m.altHistory = m.altHistory[:0]
	m.deployHistory = m.deployHistory[:0]
	m.done = false
	m.running = true
	m.loop.Reset()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("airbrakes coast"))
	b.WriteString("\n")

	phase := activeStyle.Render(m.loop.Phase().String())
	if m.loop.Locked() {
		phase = lockedStyle.Render("locked @ apogee")
	}

	rows := []string{
		row("t", fmt.Sprintf("%7.2f s", m.t)),
		row("phase", phase),
		row("altitude", fmt.Sprintf("%7.1f m", m.state[0])),
		row("velocity", fmt.Sprintf("%7.1f m/s", m.state[1])),
		row("predicted", fmt.Sprintf("%7.1f m", m.loop.Predicted())),
		row("target", fmt.Sprintf("%7.1f m", m.loop.Config().TargetApogee)),
		row("apogee", fmt.Sprintf("%7.1f m", m.apogee)),
		row("deployment", deployBar(m.loop.Deployment(), m.loop.Config().MaxDeployment)),
	}
	b.WriteString(panelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(
		labelStyle.Render("altitude") + "\n" + sparkline(m.altHistory, graphWidth) + "\n\n" +
			labelStyle.Render("deployment") + "\n" + sparkline(m.deployHistory, graphWidth)))

	b.WriteString(helpStyle.Render("\nspace pause · r reset · q quit"))
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func deployBar(d, max float64) string {
	const width = 24
	frac := 0.0
	if max > 0 {
		frac = d / max
	}
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := barFull.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %5.1f%%", bar, frac*100)
}

func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var out strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		out.WriteRune(chars[idx])
	}
	return out.String()
}
