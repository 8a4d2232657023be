package uartdmx

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// UART is a DMX transmitter on a Linux serial device.
type UART struct {
	file *os.File

	mu  sync.Mutex
	err error
}

func (u *UART) ioctl(request, argp uintptr) error {
	for {
		_, _, e := syscall.Syscall(syscall.SYS_IOCTL, u.file.Fd(), request, argp)
		if e == syscall.EINTR {
			log.Printf("ioctl was interrupted. Retrying...")
			continue
		}
		if e != 0 {
			return e
		}
		return nil
	}
}

func openUART(dev string) (*UART, error) {
	file, err := os.OpenFile(dev, syscall.O_RDWR|syscall.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}

	u := &UART{file: file}
	if err := u.ioctl(unix.TCSETS2, uintptr(unsafe.Pointer(makeTermios2()))); err != nil {
		file.Close()
		return nil, fmt.Errorf("configure %s: %w", dev, err)
	}
	return u, nil
}

func makeTermios2() *unix.Termios {
	t := &unix.Termios{}
	t.Cflag = 0
	t.Cflag |= unix.CSTOPB
	t.Cflag |= unix.CS8
	t.Cflag |= unix.CLOCAL
	t.Cflag |= unix.CREAD
	t.Cflag |= unix.BOTHER
	t.Lflag = 0
	t.Iflag = 0
	t.Oflag = 0
	t.Ispeed = 250000
	t.Ospeed = 250000
	t.Cc[unix.VTIME] = 1
	t.Cc[unix.VMIN] = 0
	return t
}

// Idle clears any break left on the line, leaving it at mark level.
func (u *UART) Idle() error {
	return u.sendBreak(false)
}

func (u *UART) SendBreak() {
	if err := u.sendBreak(true); err != nil {
		u.fail(fmt.Errorf("start break: %w", err))
		return
	}
	time.Sleep(breakTime)

	if err := u.sendBreak(false); err != nil {
		u.fail(fmt.Errorf("end break: %w", err))
		return
	}
	time.Sleep(markAfterBreak)
}

func (u *UART) SendByte(v byte) {
	n, err := u.file.Write([]byte{v})
	if err != nil {
		u.fail(fmt.Errorf("write: %w", err))
		return
	}
	if n != 1 {
		u.fail(errors.New("short write"))
		return
	}
	if err := u.drain(); err != nil {
		u.fail(fmt.Errorf("drain: %w", err))
	}
}

// Err returns the first error hit while transmitting, if any.
func (u *UART) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

func (u *UART) Close() error {
	return u.file.Close()
}

func (u *UART) sendBreak(enable bool) error {
	c := unix.TIOCSBRK
	if !enable {
		c = unix.TIOCCBRK
	}
	return u.ioctl(uintptr(c), 0)
}

// drain waits until the byte has left the shift register (tcdrain).
func (u *UART) drain() error {
	return u.ioctl(unix.TCSBRK, 1)
}

func (u *UART) fail(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err == nil {
		log.Printf("uart: %v", err)
		u.err = err
	}
}
