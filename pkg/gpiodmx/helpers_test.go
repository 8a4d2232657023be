package gpiodmx

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// event is one transmitter call seen by recordingTx. A break is recorded
// with isBreak set; bytes carry their value.
type event struct {
	isBreak bool
	value   byte
}

// recordingTx is a Transmitter that records what it was asked to send.
type recordingTx struct {
	mu     sync.Mutex
	events []event
	idles  int
}

func (r *recordingTx) Idle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idles++
	return nil
}

func (r *recordingTx) SendBreak() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{isBreak: true})
}

func (r *recordingTx) SendByte(v byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{value: v})
}

func (r *recordingTx) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recordingTx) idleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idles
}

func (r *recordingTx) breaks() int {
	n := 0
	for _, e := range r.snapshot() {
		if e.isBreak {
			n++
		}
	}
	return n
}

// frames splits recorded events into frames. Each frame starts with the
// byte following a break (the start code).
func (r *recordingTx) frames() [][]byte {
	var out [][]byte
	for _, e := range r.snapshot() {
		if e.isBreak {
			out = append(out, []byte{})
			continue
		}
		if len(out) == 0 {
			continue
		}
		out[len(out)-1] = append(out[len(out)-1], e.value)
	}
	return out
}

// countingSource is a TickSource that tracks its enable bit.
type countingSource struct {
	mu       sync.Mutex
	enabled  bool
	disables int
}

func (s *countingSource) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

func (s *countingSource) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.disables++
}

func (s *countingSource) isEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// recordingPin is a fake GPIO line that keeps every level written to it.
type recordingPin struct {
	gpiotest.Pin
	levels []gpio.Level
}

func newRecordingPin() *recordingPin {
	return &recordingPin{Pin: gpiotest.Pin{N: "DMX", Num: 18}}
}

func (p *recordingPin) Out(l gpio.Level) error {
	p.Lock()
	defer p.Unlock()
	p.L = l
	p.levels = append(p.levels, l)
	return nil
}

func (p *recordingPin) recorded() []gpio.Level {
	p.Lock()
	defer p.Unlock()
	return append([]gpio.Level(nil), p.levels...)
}

// decodeSlot turns the eleven levels of one slot back into its value.
func decodeSlot(levels []gpio.Level) (v byte, ok bool) {
	if len(levels) != BitsPerByte || levels[0] != gpio.Low {
		return 0, false
	}
	if levels[9] != gpio.High || levels[10] != gpio.High {
		return 0, false
	}
	for i := 0; i < 8; i++ {
		if levels[1+i] == gpio.High {
			v |= 1 << i
		}
	}
	return v, true
}
