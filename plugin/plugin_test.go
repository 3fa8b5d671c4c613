package plugin

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"go-sustain/sustain"
)

func noteOn(note uint8) sustain.Event {
	return sustain.Event{Kind: sustain.NoteOn, Note: note, Velocity: 100, VoiceID: sustain.NoVoice}
}

func noteOff(note uint8) sustain.Event {
	return sustain.Event{Kind: sustain.NoteOff, Note: note, VoiceID: sustain.NoVoice}
}

func notes(evs []sustain.Event) []string {
	var out []string
	for _, ev := range evs {
		out = append(out, fmt.Sprintf("%s:%d", ev.Kind, ev.Note))
	}
	return out
}

func TestProcessScenario(t *testing.T) {
	p := NewProcessor()
	var out []sustain.Event

	out = p.Process([]sustain.Event{noteOn(60), noteOn(64)}, out)
	p.Params.SetSustaining(true)
	out = p.Process([]sustain.Event{noteOff(60), noteOn(67), noteOff(67)}, out)
	p.Params.SetSustaining(false)
	out = p.Process(nil, out)

	got := notes(out)
	want := []string{"note-on:60", "note-on:64", "note-on:67", "note-off:67", "note-off:60", "note-off:64"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %v want %v", i, got, want)
		}
	}

	st := p.Stats()
	if st.Blocks != 3 || st.EventsIn != 5 || st.EventsOut != 6 || st.Suppressed != 1 || st.Synthesized != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.Held != 0 || st.Sustained != 0 || st.Sustaining {
		t.Fatalf("expected idle engine, got %+v", st)
	}
}

func TestToggleAndAutomationAgree(t *testing.T) {
	run := func(set func(p *Processor, v bool)) []sustain.Event {
		p := NewProcessor()
		var out []sustain.Event
		out = p.Process([]sustain.Event{noteOn(60)}, out)
		set(p, true)
		out = p.Process([]sustain.Event{noteOff(60)}, out)
		set(p, false)
		return p.Process(nil, out)
	}

	viaToggle := run(func(p *Processor, v bool) {
		if p.Params.Sustaining() != v {
			p.Params.Toggle()
		}
	})
	viaAutomation := run(func(p *Processor, v bool) { p.Params.SetSustaining(v) })

	if len(viaToggle) != len(viaAutomation) {
		t.Fatalf("toggle %v automation %v", notes(viaToggle), notes(viaAutomation))
	}
	for i := range viaToggle {
		if viaToggle[i].Kind != viaAutomation[i].Kind || viaToggle[i].Note != viaAutomation[i].Note {
			t.Fatalf("toggle %v automation %v", notes(viaToggle), notes(viaAutomation))
		}
	}
}

func TestPublishedNotes(t *testing.T) {
	p := NewProcessor()
	p.Process([]sustain.Event{noteOn(60), noteOn(64)}, nil)
	p.Params.SetSustaining(true)
	p.Process([]sustain.Event{noteOff(60)}, nil)

	held, sustained := p.Notes()
	if held.Has(sustain.Key{Note: 60}) || !held.Has(sustain.Key{Note: 64}) {
		t.Fatalf("unexpected held set %v", held.Append(nil))
	}
	if sustained.Count() != 2 {
		t.Fatalf("expected two sustained notes, got %v", sustained.Append(nil))
	}
	if !p.Stats().Sustaining {
		t.Fatalf("expected sustaining")
	}
}

func TestDropNoteOffsMode(t *testing.T) {
	p := NewProcessor(WithMode(ModeDropNoteOffs))
	out := p.Process([]sustain.Event{noteOn(60), noteOff(60), {Kind: sustain.Other, Raw: []byte{0xE0, 0, 64}}}, nil)
	if len(out) != 2 || out[0].Kind != sustain.NoteOn || out[1].Kind != sustain.Other {
		t.Fatalf("unexpected output %v", notes(out))
	}
	if p.Stats().Suppressed != 1 {
		t.Fatalf("expected one suppressed event")
	}
}

func TestReleaseVelocity(t *testing.T) {
	p := NewProcessor(WithReleaseVelocity(64))
	p.Process([]sustain.Event{noteOn(60)}, nil)
	p.Params.SetSustaining(true)
	p.Process(nil, nil)
	out := p.Release(nil)
	if len(out) != 1 || out[0].Velocity != 64 {
		t.Fatalf("unexpected release %+v", out)
	}
}

func TestRequestPanic(t *testing.T) {
	p := NewProcessor()
	p.Process([]sustain.Event{noteOn(60), noteOn(62)}, nil)
	p.RequestPanic()
	out := p.Process(nil, nil)
	if len(out) != 2 || out[0].Kind != sustain.NoteOff || out[1].Kind != sustain.NoteOff {
		t.Fatalf("expected two note-offs, got %v", notes(out))
	}
	if out := p.Process(nil, nil); len(out) != 0 {
		t.Fatalf("expected panic to fire once, got %v", notes(out))
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	params := &Params{}
	p := NewProcessor(WithParams(params))
	if p.Params != params {
		t.Fatalf("expected shared params")
	}
	p.Process([]sustain.Event{noteOn(60)}, nil)
	params.SetSustaining(true)
	p.Process(nil, nil)

	p.Reset()
	if params.Sustaining() {
		t.Fatalf("expected sustain off after reset")
	}
	st := p.Stats()
	if st.Held != 0 || st.Sustained != 0 || st.Blocks != 0 {
		t.Fatalf("expected zeroed stats, got %+v", st)
	}
}

func TestConcurrentToggle(t *testing.T) {
	p := NewProcessor()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Params.Toggle()
			}
		}()
	}
	buf := make([]sustain.Event, 0, BufferSize(2))
	for i := 0; i < 200; i++ {
		buf = p.Process([]sustain.Event{noteOn(60), noteOff(60)}, buf[:0])
	}
	wg.Wait()
	// 800 flips leave the flag where it started
	if p.Params.Sustaining() {
		t.Fatalf("expected sustain off after an even number of toggles")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	p := NewProcessor()
	in := []sustain.Event{noteOn(60), noteOn(64), noteOff(60)}
	buf := make([]sustain.Event, 0, BufferSize(len(in)))
	allocs := testing.AllocsPerRun(100, func() {
		p.Params.Toggle()
		buf = p.Process(in, buf[:0])
	})
	if allocs != 0 {
		t.Fatalf("expected no allocations, got %v", allocs)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"", ModeSustain, false},
		{"sustain", ModeSustain, false},
		{"drop-note-offs", ModeDropNoteOffs, false},
		{"latch", 0, true},
	}
	for _, c := range cases {
		got, err := ParseMode(c.in)
		if c.err {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q): expected ErrUnknownMode, got %v", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseMode(%q) = %v, %v", c.in, got, err)
		}
		if got.String() != c.in && c.in != "" {
			t.Errorf("String() = %q, want %q", got.String(), c.in)
		}
	}
}

func TestInfo(t *testing.T) {
	p := NewProcessor()
	if len(p.Info.Params) != 1 || p.Info.Params[0] != ParamSustaining {
		t.Fatalf("expected %q to be the only parameter, got %v", ParamSustaining, p.Info.Params)
	}
	if p.Info.AudioInputs != 0 || p.Info.AudioOutputs != 0 || !p.Info.MIDIInput || !p.Info.MIDIOutput {
		t.Fatalf("expected MIDI-only plugin, got %+v", p.Info)
	}
	if got := p.Info.String(); got != "Sustain "+Version+" (go-sustain)" {
		t.Fatalf("Info.String() = %q", got)
	}
}
