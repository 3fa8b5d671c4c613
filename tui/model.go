// Package tui is the terminal front end: sustain toggle, note display and a
// short log of what went out.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-sustain/config"
	"go-sustain/debug"
	"go-sustain/midi"
	"go-sustain/plugin"
	"go-sustain/sustain"
	"go-sustain/theme"
	"go-sustain/widgets"
)

const (
	frameRate = time.Second / 30
	logLines  = 12
)

type Model struct {
	Proc     *plugin.Processor
	Config   *config.Config
	Theme    *theme.Theme
	Activity <-chan sustain.Event
	InName   string
	OutName  string

	channel  uint8 // channel shown in the note grid
	log      []string
	showHelp bool
	quitting bool
}

type tickMsg time.Time

type ActivityMsg sustain.Event

func NewModel(proc *plugin.Processor, cfg *config.Config, th *theme.Theme, activity <-chan sustain.Event) Model {
	return Model{
		Proc:     proc,
		Config:   cfg,
		Theme:    th,
		Activity: activity,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func ListenForActivity(activity <-chan sustain.Event) tea.Cmd {
	return func() tea.Msg {
		return ActivityMsg(<-activity)
	}
}

func (m Model) Init() tea.Cmd {
	if m.Activity == nil {
		return tick()
	}
	return tea.Batch(tick(), ListenForActivity(m.Activity))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if err := m.Config.Save(); err != nil {
				debug.Error("tui", "save config: %v", err)
			}
			return m, tea.Quit

		case " ", "s":
			on := m.Proc.Params.Toggle()
			debug.Log("tui", "sustain %v", on)

		case "r":
			m.Proc.RequestPanic()
			m.addLog("reset: all notes released")

		case "c":
			m.Config.UI.Compact = !m.Config.UI.Compact

		case "l":
			m.Config.UI.ShowLog = !m.Config.UI.ShowLog

		case "?":
			m.showHelp = !m.showHelp

		case "[":
			m.channel = (m.channel + sustain.NumChannels - 1) % sustain.NumChannels

		case "]":
			m.channel = (m.channel + 1) % sustain.NumChannels
		}

	case tickMsg:
		return m, tick()

	case ActivityMsg:
		m.addLog(midi.Describe(sustain.Event(msg)))
		return m, ListenForActivity(m.Activity)
	}

	return m, nil
}

func (m *Model) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m Model) noteStyle() widgets.NoteStyle {
	s := m.Theme.Symbols
	return widgets.NoteStyle{
		Symbols: [4]rune{s.Idle, s.Held, s.Sustained, s.Both},
		Colors:  [4]lipgloss.Color{m.Theme.Muted(), m.Theme.Held(), m.Theme.Sustained(), m.Theme.Bright()},
	}
}

var keySections = []widgets.KeySection{
	{Title: "Sustain", Keys: []widgets.KeyBinding{
		{Key: "space s", Desc: "toggle sustain"},
		{Key: "r", Desc: "release all notes and reset"},
	}},
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "[ ]", Desc: "previous / next channel"},
		{Key: "c", Desc: "compact layout"},
		{Key: "l", Desc: "show / hide log"},
		{Key: "?", Desc: "this help"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "q", Desc: "save layout and quit"},
	}},
}

func noteList(keys []sustain.Key) string {
	if len(keys) == 0 {
		return "-"
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = midi.NoteName(k.Note)
		if k.Channel != 0 {
			names[i] += fmt.Sprintf("/%d", k.Channel+1)
		}
	}
	return strings.Join(names, " ")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Proc.Stats()
	held, sustained := m.Proc.Notes()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	toggle := widgets.ToggleStyle{
		OnGlyph:  m.Theme.Symbols.On,
		OffGlyph: m.Theme.Symbols.Off,
		On:       lipgloss.NewStyle().Bold(true).Foreground(m.Theme.Sustained()),
		Off:      dimStyle,
	}

	// Header
	ports := ""
	if m.InName != "" || m.OutName != "" {
		ports = fmt.Sprintf("  %s → %s", m.InName, m.OutName)
	}
	on := m.Proc.Params.Sustaining()
	header := headerStyle.Render(m.Proc.Info.Name+" "+m.Proc.Info.Version) + "  " +
		widgets.RenderToggle("SUSTAIN "+onOff(on), on, toggle) +
		dimStyle.Render(ports+"  "+m.Proc.Mode().String())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	out.WriteString(fgStyle.Render("held      " + noteList(held.Append(nil))))
	out.WriteString("\n")
	out.WriteString(fgStyle.Render("sustained " + noteList(sustained.Append(nil))))
	out.WriteString("\n\n")

	if !m.Config.UI.Compact {
		var states [sustain.NumNotes]widgets.NoteState
		for n := range states {
			k := sustain.Key{Channel: m.channel, Note: uint8(n)}
			switch h, s := held.Has(k), sustained.Has(k); {
			case h && s:
				states[n] = widgets.NoteBoth
			case s:
				states[n] = widgets.NoteSustained
			case h:
				states[n] = widgets.NoteHeld
			}
		}
		out.WriteString(dimStyle.Render(fmt.Sprintf("channel %d", m.channel+1)))
		out.WriteString("\n")
		out.WriteString(widgets.RenderNoteGrid(&states, m.noteStyle(), dimStyle))
		out.WriteString("\n\n")
	}

	out.WriteString(dimStyle.Render(fmt.Sprintf("blocks %d  in %d  out %d  suppressed %d  released %d",
		st.Blocks, st.EventsIn, st.EventsOut, st.Suppressed, st.Synthesized)))
	if st.Dropped > 0 {
		out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(fmt.Sprintf("  dropped %d", st.Dropped)))
	}
	out.WriteString("\n")

	if m.Config.UI.ShowLog && len(m.log) > 0 {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(strings.Join(m.log, "\n")))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(keySections, fgStyle, headerStyle))
		return out.String()
	}
	out.WriteString(dimStyle.Render(widgets.RenderKeyLine([]widgets.KeyBinding{
		{Key: "space", Desc: "sustain"},
		{Key: "r", Desc: "reset"},
		{Key: "[ ]", Desc: "channel"},
		{Key: "c", Desc: "compact"},
		{Key: "l", Desc: "log"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	})))

	return out.String()
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
