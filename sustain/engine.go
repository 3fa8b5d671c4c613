// Package sustain implements a sustain-pedal state machine over MIDI note
// events.
//
// While sustain is engaged, note-offs for notes that were held at the moment
// it engaged are swallowed. When sustain is released a synthetic note-off is
// emitted for each of those notes. The engine is a plain value with fixed
// size tables: it performs no I/O, takes no locks and does not allocate once
// constructed, so it can run inside a real-time callback.
package sustain

import "math/bits"

// table holds one entry per (channel, note)
type table struct {
	mask   Mask
	voices [NumChannels][NumNotes]voice
}

func (t *table) put(ev Event) {
	k := ev.Key()
	t.mask.set(k)
	t.voices[k.Channel][k.Note] = voice{id: ev.VoiceID}
}

// copyFrom copies only the occupied entries of src
func (t *table) copyFrom(src *table) {
	t.mask = src.mask
	for ch := 0; ch < NumChannels; ch++ {
		for w := 0; w < 2; w++ {
			word := src.mask[ch][w]
			for word != 0 {
				n := w*64 + bits.TrailingZeros64(word)
				word &= word - 1
				t.voices[ch][n] = src.voices[ch][n]
			}
		}
	}
}

// Engine is the sustain state machine. The zero value is ready to use and
// represents "no notes held, sustain off".
type Engine struct {
	// ReleaseVelocity is the velocity put on synthetic note-offs
	ReleaseVelocity uint8

	held   table
	frozen table

	// snapshot is nil while sustain is off and points at frozen while on.
	// The sustain edge is detected against it; there is no separate flag.
	snapshot *table
}

// New returns an engine in its initial state
func New() *Engine {
	return &Engine{}
}

// Reset drops all state without emitting anything
func (e *Engine) Reset() {
	e.held.mask = Mask{}
	e.frozen.mask = Mask{}
	e.snapshot = nil
}

// BlockStart reacts to the sustain flag at the start of a processing block.
//
// On an off->on edge the currently held notes are frozen into the snapshot.
// On an on->off edge a note-off is appended to dst for every snapshotted
// note, in ascending (channel, note) order, and those notes stop being held.
// Any other call is a no-op. dst is returned, possibly grown; callers that
// must not allocate pass a buffer with room for NumChannels*NumNotes events.
func (e *Engine) BlockStart(sustaining bool, dst []Event) []Event {
	switch {
	case sustaining && e.snapshot == nil:
		e.frozen.copyFrom(&e.held)
		e.snapshot = &e.frozen
	case !sustaining && e.snapshot != nil:
		dst = e.release(e.snapshot, dst)
		e.snapshot.mask = Mask{}
		e.snapshot = nil
	}
	return dst
}

// release emits a note-off for every key in t and removes it from held
func (e *Engine) release(t *table, dst []Event) []Event {
	for ch := 0; ch < NumChannels; ch++ {
		for w := 0; w < 2; w++ {
			word := t.mask[ch][w]
			for word != 0 {
				n := w*64 + bits.TrailingZeros64(word)
				word &= word - 1
				v := t.voices[ch][n]
				dst = append(dst, Event{
					Kind:     NoteOff,
					Channel:  uint8(ch),
					Note:     uint8(n),
					Velocity: e.ReleaseVelocity,
					VoiceID:  v.id,
				})
				e.held.mask.clear(Key{Channel: uint8(ch), Note: uint8(n)})
			}
		}
	}
	return dst
}

// Event processes one event in arrival order and reports whether it should
// be forwarded. Forwarded events are returned unchanged.
//
// A note-off for a snapshotted note is suppressed. The note still leaves the
// held set right away; the snapshot alone drives its later release.
func (e *Engine) Event(ev Event) (Event, bool) {
	switch ev.Kind {
	case NoteOn:
		e.held.put(ev)
	case NoteOff:
		k := ev.Key()
		e.held.mask.clear(k)
		if e.snapshot != nil && e.snapshot.mask.Has(k) {
			return ev, false
		}
	}
	return ev, true
}

// Panic appends a note-off for every note that is held or sustained and then
// resets the engine.
func (e *Engine) Panic(dst []Event) []Event {
	if e.snapshot != nil {
		dst = e.release(e.snapshot, dst)
	}
	dst = e.release(&e.held, dst)
	e.Reset()
	return dst
}

// Sustaining reports whether a snapshot is active
func (e *Engine) Sustaining() bool {
	return e.snapshot != nil
}

// Held reports whether k is physically down
func (e *Engine) Held(k Key) bool {
	return e.held.mask.Has(k)
}

// Sustained reports whether k will get a synthetic release
func (e *Engine) Sustained(k Key) bool {
	return e.snapshot != nil && e.snapshot.mask.Has(k)
}

// HeldMask returns a copy of the held set
func (e *Engine) HeldMask() Mask {
	return e.held.mask
}

// SustainedMask returns a copy of the snapshot, empty while sustain is off
func (e *Engine) SustainedMask() Mask {
	if e.snapshot == nil {
		return Mask{}
	}
	return e.snapshot.mask
}

// DropNoteOffs is the stateless baseline filter: everything except note-offs
// is forwarded.
func DropNoteOffs(ev Event) (Event, bool) {
	return ev, ev.Kind != NoteOff
}
