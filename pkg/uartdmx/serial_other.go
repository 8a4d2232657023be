//go:build !linux

package uartdmx

import "errors"

// UART is a DMX transmitter on a serial device. It is only available on
// linux.
type UART struct{}

func openUART(string) (*UART, error) {
	return nil, errors.New("uartdmx: only supported on linux")
}

func (*UART) Idle() error { return nil }
func (*UART) SendBreak() {}
func (*UART) SendByte(byte) {}
func (*UART) Err() error { return nil }
func (*UART) Close() error { return nil }
