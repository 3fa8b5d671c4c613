// Package plugin is the host boundary around the sustain engine: plugin
// metadata, the sustain parameter and per-block processing.
package plugin

import (
	"fmt"
	"sync/atomic"

	"go-sustain/sustain"
)

// Info describes the plugin to a host
type Info struct {
	Name    string
	Vendor  string
	URL     string
	Version string

	AudioInputs  int
	AudioOutputs int
	MIDIInput    bool
	MIDIOutput   bool

	SampleAccurateAutomation bool
	Params                   []string // automatable parameter IDs
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.Vendor)
}

// Version of the processor
const Version = "0.3.0"

// DefaultInfo is MIDI only, no audio buses
var DefaultInfo = Info{
	Name:                     "Sustain",
	Vendor:                   "go-sustain",
	URL:                      "https://github.com/go-sustain/go-sustain",
	Version:                  Version,
	MIDIInput:                true,
	MIDIOutput:               true,
	SampleAccurateAutomation: true,
	Params:                   []string{ParamSustaining},
}

// Stats is a point-in-time copy of the processor counters
type Stats struct {
	Blocks      int64
	EventsIn    int64
	EventsOut   int64
	Suppressed  int64
	Synthesized int64
	Dropped     int64 // lost before reaching the processor (queue overflow)
	Held        int
	Sustained   int
	Sustaining  bool
}

// Processor owns one engine instance. Process must only be called from a
// single goroutine; everything else is safe from any goroutine.
type Processor struct {
	Info   Info
	Params *Params

	mode   Mode
	engine *sustain.Engine

	panicReq atomic.Bool

	blocks      atomic.Int64
	eventsIn    atomic.Int64
	eventsOut   atomic.Int64
	suppressed  atomic.Int64
	synthesized atomic.Int64
	dropped     atomic.Int64
	sustaining  atomic.Bool

	// published after every block for readers on other goroutines
	held      [sustain.NumChannels][2]atomic.Uint64
	sustained [sustain.NumChannels][2]atomic.Uint64
}

// Option configures a Processor
type Option func(*Processor)

// WithMode sets the transform mode
func WithMode(m Mode) Option {
	return func(p *Processor) {
		p.mode = m
	}
}

// WithReleaseVelocity sets the velocity of synthetic note-offs
func WithReleaseVelocity(v uint8) Option {
	return func(p *Processor) {
		p.engine.ReleaseVelocity = v & 0x7F
	}
}

// WithParams shares an existing parameter block
func WithParams(params *Params) Option {
	return func(p *Processor) {
		if params != nil {
			p.Params = params
		}
	}
}

// NewProcessor creates a processor in its initial state
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		Info:   DefaultInfo,
		Params: &Params{},
		engine: sustain.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Mode returns the configured transform mode
func (p *Processor) Mode() Mode {
	return p.mode
}

// BufferSize is the output capacity that guarantees Process never grows out
// for an input block of n events.
func BufferSize(n int) int {
	return 2*sustain.NumChannels*sustain.NumNotes + n
}

// Process runs one block. Forwarded and synthetic events are appended to out
// in order and out is returned.
func (p *Processor) Process(in []sustain.Event, out []sustain.Event) []sustain.Event {
	start := len(out)

	if p.panicReq.CompareAndSwap(true, false) {
		out = p.engine.Panic(out)
	}

	var suppressed int64
	switch p.mode {
	case ModeDropNoteOffs:
		p.synthesized.Add(int64(len(out) - start))
		for _, ev := range in {
			if fwd, ok := sustain.DropNoteOffs(ev); ok {
				out = append(out, fwd)
			} else {
				suppressed++
			}
		}
	default:
		out = p.engine.BlockStart(p.Params.Sustaining(), out)
		p.synthesized.Add(int64(len(out) - start))
		for _, ev := range in {
			if fwd, ok := p.engine.Event(ev); ok {
				out = append(out, fwd)
			} else {
				suppressed++
			}
		}
	}

	p.blocks.Add(1)
	p.eventsIn.Add(int64(len(in)))
	p.eventsOut.Add(int64(len(out) - start))
	p.suppressed.Add(suppressed)
	p.publish()
	return out
}

// Release processes an empty block with sustain forced off, flushing every
// sustained note. Used when the event stream is about to end.
func (p *Processor) Release(out []sustain.Event) []sustain.Event {
	start := len(out)
	out = p.engine.BlockStart(false, out)
	n := int64(len(out) - start)
	p.synthesized.Add(n)
	p.eventsOut.Add(n)
	p.publish()
	return out
}

// RequestPanic asks the next Process call to release every held and
// sustained note and reset the engine.
func (p *Processor) RequestPanic() {
	p.panicReq.Store(true)
}

// Reset returns the processor to "no notes held, sustain off". It is not
// safe to call concurrently with Process.
func (p *Processor) Reset() {
	p.engine.Reset()
	p.Params.SetSustaining(false)
	p.panicReq.Store(false)
	p.blocks.Store(0)
	p.eventsIn.Store(0)
	p.eventsOut.Store(0)
	p.suppressed.Store(0)
	p.synthesized.Store(0)
	p.dropped.Store(0)
	p.publish()
}

// AddDropped counts events lost upstream of the processor
func (p *Processor) AddDropped(n int64) {
	p.dropped.Add(n)
}

func (p *Processor) publish() {
	held := p.engine.HeldMask()
	sustained := p.engine.SustainedMask()
	for ch := range held {
		for w := range held[ch] {
			p.held[ch][w].Store(held[ch][w])
			p.sustained[ch][w].Store(sustained[ch][w])
		}
	}
	p.sustaining.Store(p.engine.Sustaining())
}

// Notes returns the last published held and sustained sets
func (p *Processor) Notes() (held, sustained sustain.Mask) {
	for ch := range held {
		for w := range held[ch] {
			held[ch][w] = p.held[ch][w].Load()
			sustained[ch][w] = p.sustained[ch][w].Load()
		}
	}
	return held, sustained
}

// Stats returns a copy of the counters
func (p *Processor) Stats() Stats {
	held, sustained := p.Notes()
	return Stats{
		Blocks:      p.blocks.Load(),
		EventsIn:    p.eventsIn.Load(),
		EventsOut:   p.eventsOut.Load(),
		Suppressed:  p.suppressed.Load(),
		Synthesized: p.synthesized.Load(),
		Dropped:     p.dropped.Load(),
		Held:        held.Count(),
		Sustained:   sustained.Count(),
		Sustaining:  p.sustaining.Load(),
	}
}
