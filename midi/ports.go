package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	ErrPortNotFound = errors.New("midi port not found")
	ErrPortTimeout  = errors.New("timed out listing midi ports")
)

// CoreMIDI can hang while enumerating; give up after this long
const portScanTimeout = 3 * time.Second

// Ports is one enumeration of the driver's ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// ListPorts enumerates input and output ports
func ListPorts(ctx context.Context) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return Ports{}, ctx.Err()
	case <-time.After(portScanTimeout):
		return Ports{}, ErrPortTimeout
	}
}

// InNames returns the input port names in driver order
func (p Ports) InNames() []string {
	names := make([]string, len(p.Ins))
	for i, in := range p.Ins {
		names[i] = in.String()
	}
	return names
}

// OutNames returns the output port names in driver order
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Outs))
	for i, out := range p.Outs {
		names[i] = out.String()
	}
	return names
}

// FindIn returns the input port best matching name
func (p Ports) FindIn(name string) (drivers.In, error) {
	i := matchPort(p.InNames(), name)
	if i < 0 {
		return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, name)
	}
	return p.Ins[i], nil
}

// FindOut returns the output port best matching name
func (p Ports) FindOut(name string) (drivers.Out, error) {
	i := matchPort(p.OutNames(), name)
	if i < 0 {
		return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, name)
	}
	return p.Outs[i], nil
}

// matchPort prefers an exact name, then a case-insensitive substring.
// An empty name picks the first port that is not a loopback.
func matchPort(names []string, want string) int {
	if want == "" {
		for i, n := range names {
			if !isThrough(n) {
				return i
			}
		}
		return -1
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	lw := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lw) {
			return i
		}
	}
	return -1
}

func isThrough(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "through") || strings.Contains(name, "dummy")
}

// OpenSender opens out for writing
func OpenSender(out drivers.Out) (func(gomidi.Message) error, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out.String(), err)
	}
	return send, nil
}

// CloseDriver releases the driver's ports
func CloseDriver() {
	gomidi.CloseDriver()
}
