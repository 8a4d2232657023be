// Package uartdmx drives DMX512 through a serial port configured for
// 250 kbit/s, 8 data bits and 2 stop bits. It satisfies gpiodmx.Transmitter,
// so the frame engine can use a UART instead of bit-banging a GPIO line.
package uartdmx

import "time"

const (
	// The UART break control is coarse; hold it longer than the 88us
	// minimum so short sleeps cannot undershoot.
	breakTime      = 110 * time.Microsecond
	markAfterBreak = 20 * time.Microsecond
)

// Open opens and configures the serial device dev.
func Open(dev string) (*UART, error) {
	return openUART(dev)
}
