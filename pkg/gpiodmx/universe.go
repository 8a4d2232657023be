package gpiodmx

import "sync/atomic"

const (
	// Capacity512 is a full DMX512 universe.
	Capacity512 = 512
	// Capacity128 is the reduced buffer used on targets with little memory.
	Capacity128 = 128

	defaultMaxChannel = 16
)

// Universe is the channel buffer shared between the producer and the
// transmission engine. Channels are addressed 1..Capacity().
//
// Slot writes and the active channel count are atomic, so the producer may
// call any method while the engine is reading the universe from its tick.
type Universe struct {
	slots []atomic.Uint32
	max   atomic.Int32
}

// NewUniverse returns a universe holding capacity channels, clamped to
// [1, 512]. All channels start at 0 and the active count starts at 16 (or
// the capacity, if smaller).
func NewUniverse(capacity int) *Universe {
	capacity = clamp(capacity, 1, Capacity512)
	u := &Universe{slots: make([]atomic.Uint32, capacity)}
	u.max.Store(int32(min(defaultMaxChannel, capacity)))
	return u
}

// Capacity returns the number of addressable channels.
func (u *Universe) Capacity() int {
	return len(u.slots)
}

// Write stores value in channel. The value saturates to [0, 255]. A channel
// outside [1, Capacity()] is ignored. Writing past the active count raises
// the count to channel; Write never lowers it.
func (u *Universe) Write(channel, value int) {
	if channel < 1 || channel > len(u.slots) {
		return
	}
	u.slots[channel-1].Store(uint32(clamp(value, 0, 255)))
	u.grow(channel)
}

// SetChannels writes values to consecutive channels starting at start.
// Values that would land outside the universe are dropped.
func (u *Universe) SetChannels(start int, values []byte) {
	last := 0
	for i, v := range values {
		ch := start + i
		if ch < 1 {
			continue
		}
		if ch > len(u.slots) {
			break
		}
		u.slots[ch-1].Store(uint32(v))
		last = ch
	}
	if last > 0 {
		u.grow(last)
	}
}

// Read returns the value of channel, or 0 for a channel outside the universe.
func (u *Universe) Read(channel int) byte {
	if channel < 1 || channel > len(u.slots) {
		return 0
	}
	return byte(u.slots[channel-1].Load())
}

// SetMaxChannel sets the number of channels sent per frame, clamped to
// [1, Capacity()]. Unlike Write it may lower the count.
func (u *Universe) SetMaxChannel(channel int) {
	u.max.Store(int32(clamp(channel, 1, len(u.slots))))
}

// MaxChannel returns the number of channels sent per frame.
func (u *Universe) MaxChannel() int {
	return int(u.max.Load())
}

// Snapshot copies channels 1..MaxChannel().
func (u *Universe) Snapshot() []byte {
	n := u.MaxChannel()
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(u.slots[i].Load())
	}
	return out
}

func (u *Universe) grow(channel int) {
	for {
		cur := u.max.Load()
		if int32(channel) <= cur || u.max.CompareAndSwap(cur, int32(channel)) {
			return
		}
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
