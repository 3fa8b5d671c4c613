package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-sustain/sustain"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		msg  gomidi.Message
		kind sustain.Kind
		ch   uint8
		note uint8
		vel  uint8
	}{
		{"note on", gomidi.NoteOn(2, 60, 100), sustain.NoteOn, 2, 60, 100},
		{"note off", gomidi.NoteOffVelocity(0, 61, 40), sustain.NoteOff, 0, 61, 40},
		{"note on zero velocity", gomidi.NoteOn(1, 62, 0), sustain.NoteOff, 1, 62, 0},
		{"control change", gomidi.ControlChange(0, 7, 100), sustain.Other, 0, 0, 0},
		{"pitch bend", gomidi.Pitchbend(0, 100), sustain.Other, 0, 0, 0},
	}
	for _, c := range cases {
		ev := Decode(c.msg, 12)
		if ev.Kind != c.kind || ev.Channel != c.ch || ev.Note != c.note || ev.Velocity != c.vel {
			t.Errorf("%s: got %+v", c.name, ev)
		}
		if ev.Timing != 12 || ev.VoiceID != sustain.NoVoice {
			t.Errorf("%s: timing/voice not set: %+v", c.name, ev)
		}
		if !bytes.Equal(ev.Raw, c.msg) {
			t.Errorf("%s: raw bytes not kept", c.name)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := gomidi.NoteOn(1, 62, 0)
	if got := Encode(Decode(in, 0)); !bytes.Equal(got, in) {
		t.Fatalf("forwarded event changed on the wire: % X -> % X", in, got)
	}
}

func TestEncodeSynthetic(t *testing.T) {
	got := Encode(sustain.Event{Kind: sustain.NoteOff, Channel: 3, Note: 64, Velocity: 10})
	var ch, key, vel uint8
	if !got.GetNoteOff(&ch, &key, &vel) || ch != 3 || key != 64 || vel != 10 {
		t.Fatalf("unexpected message % X", []byte(got))
	}
	got = Encode(sustain.Event{Kind: sustain.NoteOn, Channel: 0, Note: 1, Velocity: 2})
	if !got.GetNoteStart(&ch, &key, &vel) || key != 1 || vel != 2 {
		t.Fatalf("unexpected message % X", []byte(got))
	}
	if got := Encode(sustain.Event{Kind: sustain.Other}); got != nil {
		t.Fatalf("expected nil for payload-less event, got % X", []byte(got))
	}
}

func TestIsSustainPedal(t *testing.T) {
	if down, ok := IsSustainPedal(gomidi.ControlChange(0, 64, 127)); !ok || !down {
		t.Fatalf("expected pedal down")
	}
	if down, ok := IsSustainPedal(gomidi.ControlChange(5, 64, 10)); !ok || down {
		t.Fatalf("expected pedal up")
	}
	if _, ok := IsSustainPedal(gomidi.ControlChange(0, 1, 127)); ok {
		t.Fatalf("mod wheel is not a pedal")
	}
	if _, ok := IsSustainPedal(gomidi.NoteOn(0, 64, 127)); ok {
		t.Fatalf("note is not a pedal")
	}
}

func TestNoteName(t *testing.T) {
	cases := map[uint8]string{60: "C4", 61: "C#4", 0: "C-1", 127: "G9", 69: "A4"}
	for n, want := range cases {
		if got := NoteName(n); got != want {
			t.Errorf("NoteName(%d) = %q, want %q", n, got, want)
		}
	}
}
