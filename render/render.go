// Package render runs Standard MIDI Files through the sustain engine.
//
// Each track gets its own engine. Sustain follows the CC64 pedal in the
// track and the deferred releases are written at the tick where the pedal
// comes up. The pedal is per track, not per channel: a CC64 on any channel
// holds the notes of every channel in that track, the same way the live
// sustain switch does.
package render

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-sustain/midi"
	"go-sustain/sustain"
)

// Options controls a render
type Options struct {
	StripPedal      bool  // drop CC64 from the output
	ReleaseVelocity uint8 // velocity of synthetic note-offs
}

// Stats summarizes a render
type Stats struct {
	Tracks      int
	Events      int
	Suppressed  int
	Synthesized int
	Pedals      int
}

// File renders every track of in into a new SMF with the same time format
func File(in *smf.SMF, opts Options) (*smf.SMF, Stats, error) {
	var st Stats
	out := smf.New()
	out.TimeFormat = in.TimeFormat

	for i, tr := range in.Tracks {
		rendered := renderTrack(tr, opts, &st)
		if err := out.Add(rendered); err != nil {
			return nil, st, fmt.Errorf("render: track %d: %w", i, err)
		}
		st.Tracks++
	}
	return out, st, nil
}

// Path reads inPath, renders it and writes outPath
func Path(inPath, outPath string, opts Options) (Stats, error) {
	in, err := smf.ReadFile(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("render: read %s: %w", inPath, err)
	}
	out, st, err := File(in, opts)
	if err != nil {
		return st, err
	}
	if err := out.WriteFile(outPath); err != nil {
		return st, fmt.Errorf("render: write %s: %w", outPath, err)
	}
	return st, nil
}

type trackWriter struct {
	out  smf.Track
	now  int64 // absolute tick of the input event being handled
	last int64 // absolute tick of the last written event
}

func (w *trackWriter) write(msg smf.Message) {
	w.out = append(w.out, smf.Event{Delta: uint32(w.now - w.last), Message: msg})
	w.last = w.now
}

func (w *trackWriter) writeAll(evs []sustain.Event) {
	for _, ev := range evs {
		w.write(smf.Message(midi.Encode(ev)))
	}
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

func renderTrack(tr smf.Track, opts Options, st *Stats) smf.Track {
	e := sustain.New()
	e.ReleaseVelocity = opts.ReleaseVelocity & 0x7F
	w := &trackWriter{}
	buf := make([]sustain.Event, 0, sustain.NumNotes)

	release := func() {
		buf = e.BlockStart(false, buf[:0])
		st.Synthesized += len(buf)
		w.writeAll(buf)
	}

	closed := false
	for _, ev := range tr {
		w.now += int64(ev.Delta)
		msg := ev.Message
		st.Events++

		if isEndOfTrack(msg) {
			release()
			w.write(msg)
			closed = true
			break
		}

		if down, ok := midi.IsSustainPedal(gomidi.Message(msg)); ok {
			st.Pedals++
			if down {
				e.BlockStart(true, nil)
			} else {
				release()
			}
			if !opts.StripPedal {
				w.write(msg)
			}
			continue
		}

		if _, fwd := e.Event(midi.Decode(gomidi.Message(msg), 0)); fwd {
			w.write(msg)
		} else {
			st.Suppressed++
		}
	}

	if !closed {
		release()
		w.out = append(w.out, smf.Event{Delta: 0, Message: smf.Message([]byte{0xFF, 0x2F, 0x00})})
	}
	return w.out
}
