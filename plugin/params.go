package plugin

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ParamSustaining is the ID of the one automatable parameter
const ParamSustaining = "is_sustaining"

// Params is the parameter block shared between the processing goroutine and
// everything that can change it (UI toggle, pedal automation). Reads and
// writes are atomic, never blocking.
type Params struct {
	sustaining atomic.Bool
}

// Sustaining returns the current sustain flag
func (p *Params) Sustaining() bool {
	return p.sustaining.Load()
}

// SetSustaining sets the sustain flag. UI and automation both land here.
func (p *Params) SetSustaining(v bool) {
	p.sustaining.Store(v)
}

// Toggle flips the sustain flag and returns the new value
func (p *Params) Toggle() bool {
	for {
		cur := p.sustaining.Load()
		if p.sustaining.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// Mode selects how note events are transformed
type Mode int

const (
	ModeSustain      Mode = iota // deferred release while sustaining
	ModeDropNoteOffs             // discard every note-off
)

var ErrUnknownMode = errors.New("unknown mode")

func (m Mode) String() string {
	switch m {
	case ModeSustain:
		return "sustain"
	case ModeDropNoteOffs:
		return "drop-note-offs"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the config/flag spelling of a mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "sustain":
		return ModeSustain, nil
	case "drop-note-offs":
		return ModeDropNoteOffs, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
