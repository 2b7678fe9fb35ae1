package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/physics"
)

const (
	width       = 80
	height      = 24
	chartWindow = 120
	canvasPadX  = 2
	canvasPadY  = 1
	frameRate   = 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the bubbletea front end over an experiment.Host. Only the
// selected demo is drawn but every running demo keeps stepping.
type Model struct {
	host          *experiment.Host
	kinds         []demo.Kind
	active        int
	canvas        *Canvas
	width, height int
	theme         Theme
	style         palette
	initialParams map[demo.Kind]map[string]float64
	paramKeys     []string
	selected      int
	showHelp      bool
	last          time.Time
	drag          *dynamo.Vec2
	status        string
}

func NewModel(host *experiment.Host, start demo.Kind) Model {
	m := Model{
		host:          host,
		kinds:         host.Kinds(),
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		theme:         Themes[0],
		style:         newPalette(Themes[0]),
		initialParams: make(map[demo.Kind]map[string]float64),
	}
	for i, k := range m.kinds {
		if k == start {
			m.active = i
		}
		if dm, ok := host.Model(k); ok {
			m.initialParams[k] = dm.GetParams()
		}
	}
	m.refreshParams()
	return m
}

// Active is the demo currently on screen.
func (m Model) Active() demo.Kind {
	if len(m.kinds) == 0 {
		return ""
	}
	return m.kinds[m.active]
}

func (m Model) model() demo.Model {
	dm, _ := m.host.Model(m.Active())
	return dm
}

// Status is the last error or notice shown under the stats panel.
func (m Model) Status() string { return m.status }

func (m Model) SelectedParam() string {
	if len(m.paramKeys) == 0 {
		return ""
	}
	return m.paramKeys[m.selected]
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.host.Advance(now.Sub(m.last))
		}
		m.last = now
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if _, err := m.host.Toggle(m.Active()); err != nil {
			m.status = err.Error()
		}
	case "r":
		m.report(m.host.Reset(m.Active()))
	case "R":
		m.restoreParams()
		m.report(m.host.Reset(m.Active()))
	case "right", "n":
		m.selectDemo((m.active + 1) % max(len(m.kinds), 1))
	case "left", "b":
		m.selectDemo((m.active + len(m.kinds) - 1) % max(len(m.kinds), 1))
	case "1", "2", "3", "4":
		m.selectDemo(int(key[0] - '1'))
	case "tab":
		m.cycleParam()
	case "up", "k":
		m.adjustParam(1.05)
	case "down", "j":
		m.adjustParam(0.95)
	case "+", "=":
		m.report(m.host.SetTimeScale(m.host.TimeScale() * 1.25))
	case "-", "_":
		m.report(m.host.SetTimeScale(m.host.TimeScale() / 1.25))
	case "o":
		m.toggleTopology()
	case "a":
		if f, ok := m.model().(*demo.Fluid); ok {
			f.AddRandomObstacle()
		}
	case "c":
		if f, ok := m.model().(*demo.Fluid); ok {
			f.ClearObstacles()
		}
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.style = newPalette(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) selectDemo(i int) {
	if i < 0 || i >= len(m.kinds) {
		return
	}
	m.active = i
	m.drag = nil
	m.refreshParams()
}

func (m *Model) refreshParams() {
	m.paramKeys = m.paramKeys[:0]
	m.selected = 0
	dm := m.model()
	if dm == nil {
		return
	}
	for k := range dm.GetParams() {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

// adjustParam scales the selected parameter. A zero value is nudged off
// zero so it can grow.
func (m *Model) adjustParam(factor float64) {
	dm := m.model()
	if dm == nil || len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := dm.GetParams()[key]
	if val == 0 {
		val = 1e-3
	}
	m.report(dm.SetParam(key, val*factor))
}

func (m *Model) restoreParams() {
	dm := m.model()
	if dm == nil {
		return
	}
	for k, v := range m.initialParams[m.Active()] {
		m.report(dm.SetParam(k, v))
	}
}

func (m *Model) toggleTopology() {
	c, ok := m.model().(*demo.Circuit)
	if !ok {
		return
	}
	next := physics.Parallel
	if c.Topology() == physics.Parallel {
		next = physics.Series
	}
	m.report(m.host.SetTopology(next))
}

// fluidPoint maps a terminal cell to fluid canvas coordinates.
func (m *Model) fluidPoint(f *demo.Fluid, x, y int) (dynamo.Vec2, bool) {
	col, row := x-canvasPadX, y-canvasPadY
	if col < 0 || row < 0 || col >= m.width || row >= m.height {
		return dynamo.Vec2{}, false
	}
	cfg := f.Config()
	return dynamo.Vec2{
		X: (float64(col) + 0.5) * cfg.Width / float64(m.width),
		Y: (float64(row) + 0.5) * cfg.Height / float64(m.height),
	}, true
}

// handleMouse places obstacles on right click and drags the flow with the
// left button held.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	f, ok := m.model().(*demo.Fluid)
	if !ok {
		return
	}
	p, inside := m.fluidPoint(f, msg.X, msg.Y)
	if !inside {
		m.drag = nil
		return
	}
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		f.AddObstacleAt(p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.drag = &p
	case msg.Action == tea.MouseActionMotion && m.drag != nil:
		f.ApplyForce(*m.drag, p)
		m.drag = &p
	case msg.Action == tea.MouseActionRelease:
		m.drag = nil
	}
}

func (m *Model) resize(w, h int) {
	cw := min(max(w-52, 20), width)
	ch := min(max(h-4, 8), height)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// Series returns the chart caption and the latest values plotted for the
// active demo.
func (m Model) Series() (string, []float64) {
	var caption string
	var values []float64
	switch dm := m.model().(type) {
	case *demo.SimplePendulum:
		caption = "Energy (J)"
		for _, s := range dm.State().Trail {
			values = append(values, s.Energy.Total)
		}
	case *demo.DoublePendulum:
		caption = "Lyapunov estimate"
		for _, s := range dm.State().Lyapunov {
			values = append(values, s.Value)
		}
	case *demo.Circuit:
		caption = "Current (A)"
		values = dm.Currents()
	case *demo.Fluid:
		caption = "Mean particle speed"
		for _, s := range dm.State().Series {
			values = append(values, s.MeanSpeed)
		}
	}
	if len(values) > chartWindow {
		values = values[len(values)-chartWindow:]
	}
	return caption, values
}

func (m Model) View() string {
	dm := m.model()
	if dm == nil {
		return "no demos hosted\n"
	}
	m.draw(dm)
	canvasView := m.style.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.style.header.Render(GradientText(strings.ToUpper(string(dm.Kind())), m.theme.Primary, m.theme.Accent)) + "\n")
	if m.host.Running(dm.Kind()) {
		s.WriteString(m.style.running.Render("RUNNING"))
	} else {
		s.WriteString(m.style.paused.Render("PAUSED"))
	}
	s.WriteString(fmt.Sprintf("  x%.2f\n\n", m.host.TimeScale()))

	if caption, values := m.Series(); len(values) > 1 {
		chart := asciigraph.Plot(values, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(caption))
		s.WriteString(m.style.graph.Render(chart) + "\n\n")
	}

	m.stat(&s, "Time", fmt.Sprintf("%.2fs", dm.Time()))
	if e, ok := dm.(demo.Energetic); ok {
		parts := e.Energy()
		m.stat(&s, "Energy", fmt.Sprintf("%.4f", parts.Total))
		m.stat(&s, "Kinetic", fmt.Sprintf("%.4f", parts.Kinetic))
		m.stat(&s, "Potential", fmt.Sprintf("%.4f", parts.Potential))
	}
	m.demoStats(&s, dm)

	s.WriteString("\nPARAMETERS\n")
	params := dm.GetParams()
	initial := m.initialParams[dm.Kind()]
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-14s %s %.4g", k, ParamBar(params[k], initial[k], 10), params[k])
		if i == m.selected {
			s.WriteString(m.style.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + m.style.value.Render(line) + "\n")
		}
	}
	if m.status != "" {
		s.WriteString("\n" + m.style.alert.Render(m.status) + "\n")
	}
	s.WriteString(m.style.help.Render("SP:Run R:Reset ←→:Demo ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.style.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func (m Model) stat(s *strings.Builder, label, value string) {
	s.WriteString(m.style.label.Render(label) + m.style.value.Render(value) + "\n")
}

func (m Model) demoStats(s *strings.Builder, dm demo.Model) {
	switch d := dm.(type) {
	case *demo.SimplePendulum:
		st := d.State()
		m.stat(s, "Angle", fmt.Sprintf("%.1f°", st.Angle*180/math.Pi))
		m.stat(s, "Period", fmt.Sprintf("%.3fs", d.Period()))
	case *demo.DoublePendulum:
		m.stat(s, "Separation", fmt.Sprintf("%.3e", d.Separation()))
		if l, ok := d.Lyapunov(); ok {
			m.stat(s, "Lyapunov", fmt.Sprintf("%.4f", l.Value))
		}
	case *demo.Circuit:
		m.stat(s, "Topology", string(d.Topology()))
		m.stat(s, "Current", fmt.Sprintf("%.4fA", d.State().Current))
		m.stat(s, "Resonance", fmt.Sprintf("%.2fHz", d.ResonantFrequency()))
		m.stat(s, "Q factor", fmt.Sprintf("%.3f", d.QualityFactor()))
		m.stat(s, "Impedance", fmt.Sprintf("%.3fΩ", d.Impedance()))
	case *demo.Fluid:
		m.stat(s, "Particles", fmt.Sprintf("%d", len(d.Particles())))
		m.stat(s, "Obstacles", fmt.Sprintf("%d", len(d.Obstacles())))
		_, speeds := m.Series()
		m.stat(s, "Flow", Sparkline(speeds, 20))
	}
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Start/Pause demo         ║
║  r / R    - Reset state / and params ║
║  ←→ 1-4   - Switch demo              ║
║  Tab      - Cycle parameters         ║
║  ↑↓ k j   - Tune parameter (±5%)     ║
║  + -      - Time scale               ║
║  o        - Series/parallel circuit  ║
║  a / c    - Add/clear fluid obstacle ║
║  Mouse    - Drag flow, right: place  ║
║  t        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`

func (m Model) draw(dm demo.Model) {
	m.canvas.Clear()
	switch d := dm.(type) {
	case *demo.SimplePendulum:
		m.drawPendulum(d)
	case *demo.DoublePendulum:
		m.drawDoublePendulum(d)
	case *demo.Circuit:
		m.drawCircuit(d)
	case *demo.Fluid:
		m.drawFluid(d)
	}
}

// toScreen maps metres (y up) around a pivot to dots.
func toScreen(p dynamo.Vec2, cx, cy int, scale float64) (int, int) {
	return cx + int(math.Round(p.X*scale)), cy - int(math.Round(p.Y*scale))
}

func (m Model) drawPendulum(p *demo.SimplePendulum) {
	cw, ch := m.canvas.Dots()
	cx, cy := cw/2, ch/3
	scale := float64(ch) * 0.6 / p.Config().Length

	st := p.State()
	for _, s := range st.Trail {
		m.canvas.Set(toScreen(s.Pos, cx, cy, scale))
	}
	bob := physics.Pendulum{Length: p.Config().Length}
	bx, by := toScreen(bob.BobPosition(st.Angle), cx, cy, scale)
	m.canvas.Set(cx, cy)
	m.canvas.DrawLine(cx, cy, bx, by)
	m.canvas.Blob(bx, by)
}

func (m Model) drawDoublePendulum(d *demo.DoublePendulum) {
	cw, ch := m.canvas.Dots()
	cfg := d.Config()
	cx, cy := cw/2, ch/2
	scale := float64(ch) * 0.45 / (cfg.Length1 + cfg.Length2)

	st := d.State()
	for _, s := range st.Trail {
		m.canvas.Set(toScreen(s.Bob2, cx, cy, scale))
	}
	if len(st.Trail) == 0 {
		m.canvas.Blob(cx, cy)
		return
	}
	last := st.Trail[len(st.Trail)-1]
	b1x, b1y := toScreen(last.Bob1, cx, cy, scale)
	b2x, b2y := toScreen(last.Bob2, cx, cy, scale)
	m.canvas.DrawLine(cx, cy, b1x, b1y)
	m.canvas.DrawLine(b1x, b1y, b2x, b2y)
	m.canvas.Blob(b1x, b1y)
	m.canvas.Blob(b2x, b2y)
}

// drawCircuit plots the recorded current as an oscilloscope trace scaled
// to its peak magnitude.
func (m Model) drawCircuit(c *demo.Circuit) {
	cw, ch := m.canvas.Dots()
	mid := ch / 2
	for x := 0; x < cw; x += 4 {
		m.canvas.Set(x, mid)
	}

	currents := c.Currents()
	if len(currents) < 2 {
		return
	}
	peak := 0.0
	for _, v := range currents {
		peak = max(peak, math.Abs(v))
	}
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return
	}
	amp := float64(mid - 2)
	px, py := 0, mid
	for i, v := range currents {
		x := i * (cw - 1) / (len(currents) - 1)
		y := mid - int(math.Round(v/peak*amp))
		if i > 0 {
			m.canvas.DrawLine(px, py, x, y)
		}
		px, py = x, y
	}
}

func (m Model) drawFluid(f *demo.Fluid) {
	cw, ch := m.canvas.Dots()
	cfg := f.Config()
	sx, sy := float64(cw)/cfg.Width, float64(ch)/cfg.Height

	for _, o := range f.Obstacles() {
		r := int(math.Round(o.Radius * min(sx, sy)))
		m.canvas.DrawCircle(int(o.Center.X*sx), int(o.Center.Y*sy), r)
	}
	for _, p := range f.Particles() {
		m.canvas.Set(int(p.Pos.X*sx), int(p.Pos.Y*sy))
	}
}
