package sustain

import "math/bits"

// MIDI limits
const (
	NumChannels = 16
	NumNotes    = 128
)

// Kind tags an Event
type Kind uint8

const (
	Other Kind = iota // controllers, pressure, pitch bend, sysex...
	NoteOn
	NoteOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	default:
		return "other"
	}
}

// NoVoice marks an event without a voice identifier
const NoVoice int32 = -1

// Event is a single MIDI event flowing through the engine.
//
// Timing is the offset of the event within its processing block. The engine
// never reads or rewrites it. Raw carries the original wire bytes so that
// forwarded events (and Other events in particular) leave exactly as they
// arrived; synthetic events have a nil Raw.
type Event struct {
	Kind     Kind
	Timing   uint32
	Channel  uint8 // 0-15
	Note     uint8 // 0-127
	Velocity uint8 // 0-127
	VoiceID  int32
	Raw      []byte
}

// Key returns the identity used for held/sustained bookkeeping
func (e Event) Key() Key {
	return Key{Channel: e.Channel & 0x0F, Note: e.Note & 0x7F}
}

// Key identifies a note by channel and note number
type Key struct {
	Channel uint8
	Note    uint8
}

// voice is what the engine remembers about a held note so the eventual
// synthetic note-off carries the same voice id. Channel and note come from
// the table position, velocity from ReleaseVelocity.
type voice struct {
	id int32
}

// Mask is a channel x note membership set
type Mask [NumChannels][2]uint64

// Has reports whether k is in the mask
func (m Mask) Has(k Key) bool {
	ch, n := k.Channel&0x0F, k.Note&0x7F
	return m[ch][n>>6]&(1<<(n&63)) != 0
}

func (m *Mask) set(k Key) {
	ch, n := k.Channel&0x0F, k.Note&0x7F
	m[ch][n>>6] |= 1 << (n & 63)
}

func (m *Mask) clear(k Key) {
	ch, n := k.Channel&0x0F, k.Note&0x7F
	m[ch][n>>6] &^= 1 << (n & 63)
}

// Count returns the number of keys in the mask
func (m Mask) Count() int {
	c := 0
	for ch := range m {
		c += bits.OnesCount64(m[ch][0]) + bits.OnesCount64(m[ch][1])
	}
	return c
}

// Empty reports whether no key is set
func (m Mask) Empty() bool {
	for ch := range m {
		if m[ch][0]|m[ch][1] != 0 {
			return false
		}
	}
	return true
}

// Append appends every key in ascending (channel, note) order
func (m Mask) Append(dst []Key) []Key {
	for ch := 0; ch < NumChannels; ch++ {
		for w := 0; w < 2; w++ {
			word := m[ch][w]
			for word != 0 {
				n := w*64 + bits.TrailingZeros64(word)
				word &= word - 1
				dst = append(dst, Key{Channel: uint8(ch), Note: uint8(n)})
			}
		}
	}
	return dst
}
