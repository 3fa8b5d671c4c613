// Package widgets holds small lipgloss renderers shared by the TUI views.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// NoteState is what the grid shows for one key
type NoteState uint8

const (
	NoteIdle NoteState = iota
	NoteHeld
	NoteSustained
	NoteBoth // held again while still in the snapshot
)

// NoteStyle maps each NoteState to a glyph and color
type NoteStyle struct {
	Symbols [4]rune
	Colors  [4]lipgloss.Color
}

// RenderNote renders a single key
func RenderNote(s NoteState, style NoteStyle) string {
	return lipgloss.NewStyle().Foreground(style.Colors[s]).Render(string(style.Symbols[s]))
}

// RenderNoteGrid renders 128 notes as one octave per row, highest octave on
// top, each row labelled with its C
func RenderNoteGrid(states *[128]NoteState, style NoteStyle, label lipgloss.Style) string {
	var lines []string
	for row := 127 / 12; row >= 0; row-- {
		var line strings.Builder
		line.WriteString(label.Render(fmt.Sprintf("C%-3d", row-1)))
		for i := 0; i < 12; i++ {
			n := row*12 + i
			if n > 127 {
				break
			}
			line.WriteString(RenderNote(states[n], style))
			line.WriteString(" ")
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// ToggleStyle is how RenderToggle draws each state
type ToggleStyle struct {
	OnGlyph, OffGlyph rune
	On, Off           lipgloss.Style
}

// RenderToggle renders the glyph for the current state followed by label
func RenderToggle(label string, on bool, style ToggleStyle) string {
	if on {
		return style.On.Render(string(style.OnGlyph) + " " + label)
	}
	return style.Off.Render(string(style.OffGlyph) + " " + label)
}

// RenderKeyHelp renders one block per section: the title, then one key per
// line with the key column drawn in keyStyle
func RenderKeyHelp(sections []KeySection, titleStyle, keyStyle lipgloss.Style) string {
	var blocks []string
	for _, sec := range sections {
		var b strings.Builder
		if sec.Title != "" {
			b.WriteString(titleStyle.Render(sec.Title))
		}
		for _, k := range sec.Keys {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			pad := strings.Repeat(" ", max(0, 8-len(k.Key)))
			b.WriteString("  " + keyStyle.Render(k.Key) + pad + " " + k.Desc)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// RenderKeyLine formats key bindings on a single line: "space toggle · q quit"
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + " " + k.Desc
	}
	return strings.Join(parts, " · ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
