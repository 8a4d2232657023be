package gpiodmx

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned by OpenPin for a name the host does not know.
var ErrPinNotFound = errors.New("gpiodmx: pin not found")

var (
	hostOnce sync.Once
	hostErr  error
)

// OpenPin initializes the host drivers and looks up a GPIO line by name,
// e.g. "GPIO18" or "18".
func OpenPin(name string) (gpio.PinOut, error) {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("failed to initialize periph host: %w", err)
		}
	})
	if hostErr != nil {
		return nil, hostErr
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return p, nil
}
