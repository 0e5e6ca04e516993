package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"omegasnd/audio"
	"omegasnd/config"
)

// TUI message types
type LogMsg struct{ Text string }
type tickMsg time.Time

// mixerCmd runs on the mixer goroutine; the TUI never touches the system
// directly.
type mixerCmd func(m *mixer, sc *scene)

const (
	maxLogLines  = 6
	meterWidth   = 12
	nameWidth    = 28
	volumeStep   = 0.1
	maxShownRows = 16
)

type tuiModel struct {
	frame         int
	width, height int
	status        StatusMsg
	haveStatus    bool
	logs          []string
	cmds          chan<- mixerCmd
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	loopStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	chanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	recStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	meterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

func NewTUIProgram(cmds chan<- mixerCmd) *tea.Program {
	m := tuiModel{cmds: cmds}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiSink forwards events to the running program.
type tuiSink struct{}

func (tuiSink) Status(s StatusMsg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(s)
	}
}

func (tuiSink) Log(text string) { logToTUI("%s", text) }

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) send(c mixerCmd) {
	if m.cmds == nil {
		return
	}
	select {
	case m.cmds <- c:
	default:
	}
}

func adjustConfig(f func(*config.Config)) mixerCmd {
	return func(m *mixer, _ *scene) {
		cfg := m.sys.Config()
		f(&cfg)
		m.sys.SetConfig(cfg)
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "m":
			m.send(adjustConfig(func(c *config.Config) { c.Muted = !c.Muted }))
		case "d":
			m.send(adjustConfig(func(c *config.Config) { c.Doppler = !c.Doppler }))
		case "+", "=":
			m.send(adjustConfig(func(c *config.Config) { c.Volume = min(c.Volume+volumeStep, 1) }))
		case "-":
			m.send(adjustConfig(func(c *config.Config) { c.Volume = max(c.Volume-volumeStep, 0) }))
		case "s":
			m.send(func(m *mixer, sc *scene) {
				sc.setOrbit("")
				sc.plays = nil
				m.sys.ClearLoopingSounds(true)
				m.sys.StopAllSounds()
			})
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		m.status = msg
		m.haveStatus = true

	case LogMsg:
		m.logs = append(m.logs, msg.Text)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
	}
	return m, nil
}

// meter draws v out of full as a bar of width cells.
func meter(v, full, width int) string {
	if full <= 0 {
		full = 1
	}
	n := min(max(v*width/full, 0), width)
	return meterStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("·", width-n))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 || !m.haveStatus {
		return "Loading..."
	}
	s := m.status
	st := s.Stats
	var lines []string

	title := titleStyle.Render("omegasnd") + dimStyle.Render(" "+version)
	if s.Recording {
		title += "  " + recStyle.Render(fmt.Sprintf("● REC %.1fs", float64(s.Recorded)/float64(max(s.Format.Rate, 1))))
	}
	lines = append(lines, title, "")

	dev := s.Device
	if audio.IsBluetooth(dev) {
		dev += " (BT!)"
	}
	lines = append(lines,
		infoStyle.Render(fmt.Sprintf("out: %s on %s", s.Backend, dev)),
		infoStyle.Render(fmt.Sprintf("fmt: %d Hz  %d ch  %d-bit", s.Format.Rate, s.Format.Channels, s.Format.SampleBits)),
		infoStyle.Render(fmt.Sprintf("clk: sound %d  painted %d  ahead %.0fms", st.SoundTime, st.PaintedTime, s.AheadMs())),
	)

	vol := fmt.Sprintf("vol: %s %.2f", meter(int(s.Volume*100), 100, meterWidth), s.Volume)
	if s.Muted {
		vol += "  " + warnStyle.Render("muted")
	}
	if s.Doppler {
		vol += dimStyle.Render("  doppler")
	}
	lines = append(lines, vol)
	if s.Clipped > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("clipped %d samples", s.Clipped)))
	}

	music := "no background track"
	if st.MusicFile != "" {
		music = fmt.Sprintf("music: %s (%.0fms buffered)", st.MusicFile, float64(st.MusicBuffered)*1000/float64(max(s.Format.Rate, 1)))
	}
	lines = append(lines, infoStyle.Render(music))
	lines = append(lines, dimStyle.Render(fmt.Sprintf("sfx: %d registered, %d resident (%d KB)", st.Registered, st.Resident, st.ResidentBytes/1024)))
	lines = append(lines, "")

	lines = append(lines, dimStyle.Render(fmt.Sprintf("%-*s %5s %-7s %-*s %-*s", nameWidth, "sound", "ent", "chan", meterWidth, "left", meterWidth, "right")))
	for i, c := range st.Active {
		if i == maxShownRows {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more", len(st.Active)-i)))
			break
		}
		style, tag := chanStyle, c.Tag.String()
		if c.Loop {
			style, tag = loopStyle, "loop"
		}
		lines = append(lines, fmt.Sprintf("%s %5d %-7s %s %s",
			style.Render(fmt.Sprintf("%-*s", nameWidth, truncate(c.Name, nameWidth))),
			c.Entity, tag, meter(c.LeftVol, 255, meterWidth), meter(c.RightVol, 255, meterWidth)))
	}
	if len(st.Active) == 0 {
		lines = append(lines, dimStyle.Render("silence"))
	}

	if len(m.logs) > 0 {
		lines = append(lines, "")
		wrapWidth := max(m.width-2, 10)
		for _, l := range m.logs {
			for _, w := range wrapText(l, wrapWidth) {
				lines = append(lines, warnStyle.Render(w))
			}
		}
	}

	lines = append(lines, "",
		boldHelp.Render("+/-")+helpStyle.Render(" volume  ")+
			boldHelp.Render("m")+helpStyle.Render(" mute  ")+
			boldHelp.Render("d")+helpStyle.Render(" doppler  ")+
			boldHelp.Render("s")+helpStyle.Render(" stop  ")+
			boldHelp.Render("q")+helpStyle.Render(" quit"))

	if len(lines) > m.height {
		lines = lines[:m.height]
	}
	return lipgloss.NewStyle().Width(m.width).Render(strings.Join(lines, "\n"))
}

func logToTUI(format string, args ...interface{}) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()

	if p != nil {
		msg := fmt.Sprintf(format, args...)
		p.Send(LogMsg{Text: msg})
	}
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
