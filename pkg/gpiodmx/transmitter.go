// Package gpiodmx transmits a DMX512 universe on a single GPIO line.
//
// A periodic tick runs the frame engine, which sends as much of the frame
// as fits in a fixed share of the tick and resumes on the next one. Each
// slot is bit-banged with busy-wait timing, so no UART is needed.
package gpiodmx

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

const (
	// BaudRate is the DMX512 line rate.
	BaudRate = 250 * physic.KiloHertz

	// BitsPerByte is the number of bit periods per transmitted slot:
	// one start bit, eight data bits and two stop bits.
	BitsPerByte = 11

	// BreakTime is how long the line is held low to mark a new frame.
	BreakTime = 11 * 8 * time.Microsecond
	// MarkAfterBreak is how long the line is held high before the start code.
	MarkAfterBreak = 8 * time.Microsecond

	// StartCode is the first slot of a dimmer data frame.
	StartCode byte = 0x00
)

// BitPeriod is the duration of one bit on the wire.
var BitPeriod = BaudRate.Period()

// Transmitter emits the timing critical parts of a DMX frame on one output
// line. It is the only piece a platform port needs to provide.
//
// SendBreak and SendByte return once the signal has been physically emitted.
// They report no errors; a faulty line shows up as a bad signal.
type Transmitter interface {
	// Idle configures the line as an output at mark (high) level.
	Idle() error
	// SendBreak emits the break followed by the mark-after-break.
	SendBreak()
	// SendByte emits one slot: start bit, value LSB first, two stop bits.
	SendByte(v byte)
}
