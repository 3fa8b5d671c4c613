package midi

import (
	"context"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-sustain/debug"
	"go-sustain/plugin"
	"go-sustain/sustain"
)

// RouterConfig tunes the live block loop
type RouterConfig struct {
	BlockPeriod time.Duration // how often an empty block runs so UI toggles act promptly
	QueueSize   int           // incoming messages buffered between driver and loop
	FollowPedal bool          // CC64 on any channel of the input drives the sustain parameter
}

// DefaultRouterConfig is a 5ms block with room for bursts
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		BlockPeriod: 5 * time.Millisecond,
		QueueSize:   256,
	}
}

type received struct {
	msg gomidi.Message
	ms  int32
}

// ListenFunc starts delivering messages to recv until stop is called
type ListenFunc func(recv func(msg gomidi.Message, timestampms int32)) (stop func(), err error)

// ListenPort adapts an input port to a ListenFunc
func ListenPort(in drivers.In) ListenFunc {
	return func(recv func(gomidi.Message, int32)) (func(), error) {
		return gomidi.ListenTo(in, recv, gomidi.HandleError(func(err error) {
			debug.Warn("midi", "listener error on %s: %v", in.String(), err)
		}))
	}
}

// Router moves messages from an input through a Processor to an output.
// All processing happens on the goroutine running Run.
type Router struct {
	proc   *plugin.Processor
	listen ListenFunc
	send   func(gomidi.Message) error
	cfg    RouterConfig

	queue    chan received
	activity chan sustain.Event

	// owned by the Run goroutine
	block   []sustain.Event
	out     []sustain.Event
	blockT0 int32
}

// NewRouter wires a processor between listen and send
func NewRouter(proc *plugin.Processor, listen ListenFunc, send func(gomidi.Message) error, cfg RouterConfig) *Router {
	if cfg.BlockPeriod <= 0 {
		cfg.BlockPeriod = DefaultRouterConfig().BlockPeriod
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultRouterConfig().QueueSize
	}
	return &Router{
		proc:     proc,
		listen:   listen,
		send:     send,
		cfg:      cfg,
		queue:    make(chan received, cfg.QueueSize),
		activity: make(chan sustain.Event, 64),
		block:    make([]sustain.Event, 0, cfg.QueueSize),
		out:      make([]sustain.Event, 0, plugin.BufferSize(cfg.QueueSize)),
	}
}

// Activity delivers a copy of every event sent to the output. Events are
// dropped when nobody keeps up.
func (r *Router) Activity() <-chan sustain.Event {
	return r.activity
}

// receive runs on the driver's goroutine
func (r *Router) receive(msg gomidi.Message, timestampms int32) {
	// the driver may reuse its buffer
	cp := make(gomidi.Message, len(msg))
	copy(cp, msg)
	select {
	case r.queue <- received{msg: cp, ms: timestampms}:
	default:
		r.proc.AddDropped(1)
	}
}

// Run processes blocks until ctx is done. On return every sustained note
// has been released on the output.
func (r *Router) Run(ctx context.Context) error {
	stop, err := r.listen(r.receive)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer stop()

	ticker := time.NewTicker(r.cfg.BlockPeriod)
	defer ticker.Stop()

	debug.Log("router", "running, block=%s followPedal=%v", r.cfg.BlockPeriod, r.cfg.FollowPedal)

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.flush()
			for len(r.queue) > 0 {
				r.drain()
				r.flush()
			}
			r.emit(r.proc.Release(r.out[:0]))
			debug.Log("router", "stopped")
			return nil
		case m := <-r.queue:
			r.add(m)
			r.drain()
			r.flush()
		case <-ticker.C:
			r.flush()
		}
	}
}

// drain moves queued messages into the current block until it is full.
// Whatever is left waits for the next block.
func (r *Router) drain() {
	for len(r.block) < cap(r.block) {
		select {
		case m := <-r.queue:
			r.add(m)
		default:
			return
		}
	}
}

func (r *Router) add(m received) {
	if r.cfg.FollowPedal {
		if down, ok := IsSustainPedal(m.msg); ok && down != r.proc.Params.Sustaining() {
			// the pedal edge starts a new block so earlier events keep the old state
			r.flush()
			r.proc.Params.SetSustaining(down)
		}
	}
	if len(r.block) == 0 {
		r.blockT0 = m.ms
	}
	offset := m.ms - r.blockT0
	if offset < 0 {
		offset = 0
	}
	r.block = append(r.block, Decode(m.msg, uint32(offset)))
}

// flush processes the pending block, possibly empty, and sends the result
func (r *Router) flush() {
	r.emit(r.proc.Process(r.block, r.out[:0]))
	r.block = r.block[:0]
}

func (r *Router) emit(evs []sustain.Event) {
	for _, ev := range evs {
		msg := Encode(ev)
		if msg == nil {
			continue
		}
		if err := r.send(msg); err != nil {
			debug.LogEvery(100, "router", "send failed: %v", err)
		}
		select {
		case r.activity <- ev:
		default:
		}
	}
	r.out = evs[:0]
}
