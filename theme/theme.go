// Package theme maps a GPL palette onto the colors and glyphs used by the UI.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Held      rune // ● key down
	Sustained rune // ◉ kept sounding by sustain
	Both      rune // ◍ down again while in the snapshot
	Idle      rune // · nothing
	On        rune // ■ toggle on
	Off       rune // □ toggle off
}

// New builds a theme from palette, or from the built-in palette when nil
func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Held:      '●',
			Sustained: '◉',
			Both:      '◍',
			Idle:      '·',
			On:        '■',
			Off:       '□',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted     = 2.0 / 9
	RoleFG        = 3.0 / 9
	RoleAccent    = 4.0 / 9
	RoleHeld      = 6.0 / 9
	RoleSustained = 7.0 / 9
	RoleWarning   = 8.0 / 9
	RoleBright    = 1.0
)

func (t *Theme) FG() lipgloss.Color        { return t.Color(RoleFG) }
func (t *Theme) Muted() lipgloss.Color     { return t.Color(RoleMuted) }
func (t *Theme) Accent() lipgloss.Color    { return t.Color(RoleAccent) }
func (t *Theme) Held() lipgloss.Color      { return t.Color(RoleHeld) }
func (t *Theme) Sustained() lipgloss.Color { return t.Color(RoleSustained) }
func (t *Theme) Warning() lipgloss.Color   { return t.Color(RoleWarning) }
func (t *Theme) Bright() lipgloss.Color    { return t.Color(RoleBright) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Hex(t.Palette.Lookup(norm))
}

// Hex converts c to a lipgloss color
func Hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
