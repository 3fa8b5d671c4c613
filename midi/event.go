package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-sustain/sustain"
)

// Sustain pedal controller
const (
	CCSustain      uint8 = 64
	pedalThreshold uint8 = 64
)

// Decode turns a wire message into an engine event. A note-on with velocity
// zero is a note-off. The original bytes are kept in Raw.
func Decode(msg gomidi.Message, timing uint32) sustain.Event {
	ev := sustain.Event{
		Kind:    sustain.Other,
		Timing:  timing,
		VoiceID: sustain.NoVoice,
		Raw:     msg,
	}

	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		ev.Kind = sustain.NoteOn
	case msg.GetNoteOff(&channel, &key, &velocity):
		ev.Kind = sustain.NoteOff
	case msg.GetNoteEnd(&channel, &key):
		// note-on with velocity 0
		ev.Kind = sustain.NoteOff
		velocity = 0
	default:
		return ev
	}
	ev.Channel = channel
	ev.Note = key
	ev.Velocity = velocity
	return ev
}

// Encode turns an engine event back into a wire message. Events that still
// carry their original bytes are sent as they arrived.
func Encode(ev sustain.Event) gomidi.Message {
	if ev.Raw != nil {
		return gomidi.Message(ev.Raw)
	}
	switch ev.Kind {
	case sustain.NoteOn:
		return gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case sustain.NoteOff:
		return gomidi.NoteOffVelocity(ev.Channel, ev.Note, ev.Velocity)
	}
	return nil
}

// IsSustainPedal reports whether msg is a CC64 and, if so, whether it means
// pedal down.
func IsSustainPedal(msg gomidi.Message) (down bool, ok bool) {
	var channel, controller, value uint8
	if !msg.GetControlChange(&channel, &controller, &value) || controller != CCSustain {
		return false, false
	}
	return value >= pedalThreshold, true
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a note number, 60 = C4
func NoteName(note uint8) string {
	n := int(note & 0x7F)
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}

// Describe formats an event for logs and the activity view
func Describe(ev sustain.Event) string {
	switch ev.Kind {
	case sustain.NoteOn, sustain.NoteOff:
		return fmt.Sprintf("%-8s ch%-2d %-4s vel %3d", ev.Kind, ev.Channel+1, NoteName(ev.Note), ev.Velocity)
	}
	return fmt.Sprintf("%-8s %s", ev.Kind, gomidi.Message(ev.Raw).String())
}
