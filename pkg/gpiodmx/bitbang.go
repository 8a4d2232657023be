package gpiodmx

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// BitBanger is a Transmitter that toggles a GPIO line with busy-wait timing.
//
// Every edge of a slot is scheduled against the time of its first edge, so a
// late write delays that one edge and does not push the rest of the byte.
// The caller should run it on a locked OS thread, see Ticker.
type BitBanger struct {
	pin       gpio.PinOut
	bitPeriod time.Duration

	mu  sync.Mutex
	err error
}

// NewBitBanger returns a transmitter driving pin at the DMX512 bit rate.
func NewBitBanger(pin gpio.PinOut) *BitBanger {
	return &BitBanger{pin: pin, bitPeriod: BitPeriod}
}

// Pin returns the line this transmitter drives.
func (b *BitBanger) Pin() gpio.PinOut {
	return b.pin
}

func (b *BitBanger) Idle() error {
	return b.pin.Out(gpio.High)
}

func (b *BitBanger) SendBreak() {
	start := time.Now()
	b.out(gpio.Low)
	spinUntil(start.Add(BreakTime))
	b.out(gpio.High)
	spinUntil(start.Add(BreakTime + MarkAfterBreak))
}

func (b *BitBanger) SendByte(v byte) {
	// bit 0 is the start bit, bits 1-8 the data LSB first, bits 9-10 stop.
	frame := uint16(v)<<1 | 0x600

	start := time.Now()
	for i := 0; i < BitsPerByte; i++ {
		b.out(gpio.Level(frame&1 == 1))
		frame >>= 1
		spinUntil(start.Add(time.Duration(i+1) * b.bitPeriod))
	}
}

// Err returns the first error the line reported while transmitting, if any.
func (b *BitBanger) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// out writes one level. Only the first failure is logged and kept; the
// timing of the remaining bits is not disturbed.
func (b *BitBanger) out(l gpio.Level) {
	if err := b.pin.Out(l); err != nil {
		b.fail(err)
	}
}

func (b *BitBanger) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = fmt.Errorf("write %s: %w", b.pin, err)
		log.Printf("gpiodmx: %v", b.err)
	}
}

// spinUntil busy-waits; sleeping would hand the thread back to the
// scheduler and lose the bit timing.
func spinUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
	}
}
