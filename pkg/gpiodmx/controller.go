package gpiodmx

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrRunning is returned when the output is changed while transmitting.
	ErrRunning = errors.New("gpiodmx: transmission running, call Stop first")
	// ErrNoTransmitter is returned by Start before an output is set.
	ErrNoTransmitter = errors.New("gpiodmx: no output pin or transmitter set")
	// ErrBudgetTooSmall is returned by New when a tick cannot fit a break
	// and start code.
	ErrBudgetTooSmall = errors.New("gpiodmx: tick budget too small for a break")
)

// Option configures a Controller.
type Option func(*Controller) error

// WithCapacity sets the universe size, see NewUniverse.
func WithCapacity(capacity int) Option {
	return func(c *Controller) error {
		c.capacity = capacity
		return nil
	}
}

// WithTickPeriod sets how often the engine runs.
func WithTickPeriod(period time.Duration) Option {
	return func(c *Controller) error {
		if period <= 0 {
			return errors.New("tick period must be positive")
		}
		c.period = period
		return nil
	}
}

// WithUtilization sets the share of each tick spent transmitting, in (0, 1].
func WithUtilization(utilization float64) Option {
	return func(c *Controller) error {
		if utilization <= 0 || utilization > 1 {
			return errors.New("utilization must be in (0, 1]")
		}
		c.utilization = utilization
		return nil
	}
}

// WithRealtime configures the tick thread, see Realtime.
func WithRealtime(rt Realtime) Option {
	return func(c *Controller) error {
		c.realtime = &rt
		return nil
	}
}

// WithTransmitter sets the output, e.g. a UART instead of a GPIO line.
func WithTransmitter(tx Transmitter) Option {
	return func(c *Controller) error {
		c.tx = tx
		return nil
	}
}

// Controller is the producer facing side: it owns the universe, the frame
// engine and the tick source, and starts and stops transmission.
type Controller struct {
	capacity    int
	period      time.Duration
	utilization float64
	realtime    *Realtime

	universe *Universe
	ticker   *Ticker

	// mu serializes output changes and Start. The tick only loads engine.
	mu     sync.Mutex
	tx     Transmitter
	engine atomic.Pointer[Engine]
}

// New returns a stopped controller.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		capacity:    Capacity512,
		period:      DefaultTickPeriod,
		utilization: DefaultUtilization,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if b := c.Budget(); b < BreakCost {
		return nil, fmt.Errorf("%w: %d bit periods per %v tick, need %d", ErrBudgetTooSmall, b, c.period, BreakCost)
	}

	c.universe = NewUniverse(c.capacity)
	c.ticker = NewTicker(c.period, c.realtime, c.tick)
	return c, nil
}

// Universe returns the channel buffer.
func (c *Controller) Universe() *Universe {
	return c.universe
}

// Write sets a channel, see Universe.Write.
func (c *Controller) Write(channel, value int) {
	c.universe.Write(channel, value)
}

// SetMaxChannel sets the channels sent per frame, see Universe.SetMaxChannel.
func (c *Controller) SetMaxChannel(channel int) {
	c.universe.SetMaxChannel(channel)
}

// SetOutputPin selects the GPIO line to bit-bang. It fails with ErrRunning
// unless transmission is stopped.
func (c *Controller) SetOutputPin(pin gpio.PinOut) error {
	return c.SetTransmitter(NewBitBanger(pin))
}

// SetTransmitter selects the output. It fails with ErrRunning unless
// transmission is stopped.
func (c *Controller) SetTransmitter(tx Transmitter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.engine.Load(); e != nil && e.Mode() != Disabled {
		return ErrRunning
	}
	c.tx = tx
	c.engine.Store(nil)
	return nil
}

// Budget returns the bit periods each tick may spend.
func (c *Controller) Budget() int {
	return BudgetForPeriod(c.period, c.utilization)
}

// Start transmits frames continuously until Stop.
func (c *Controller) Start() error {
	return c.start(Continuous)
}

// SendFrame transmits a single frame, then stops.
func (c *Controller) SendFrame() error {
	return c.start(SingleShot)
}

func (c *Controller) start(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return ErrNoTransmitter
	}

	e := c.engine.Load()
	if e == nil || e.Mode() == Disabled {
		// A tick from before Stop may still be finishing its budget on
		// this line; let it end before driving the line to mark.
		c.ticker.Wait()
		if err := c.tx.Idle(); err != nil {
			return err
		}
	}
	if e == nil {
		e = NewEngine(c.universe, c.tx, c.ticker, c.Budget())
		c.engine.Store(e)
	}
	c.ticker.Run()
	e.Start(m)
	return nil
}

// Stop halts transmission. It is safe to call at any time and more than
// once. A tick in progress finishes its budget first.
func (c *Controller) Stop() {
	if e := c.engine.Load(); e != nil {
		e.Stop()
		return
	}
	c.ticker.Disable()
}

// Mode returns the current transmission mode.
func (c *Controller) Mode() Mode {
	if e := c.engine.Load(); e != nil {
		return e.Mode()
	}
	return Disabled
}

// Frames returns the number of frames sent through the current output.
func (c *Controller) Frames() uint64 {
	if e := c.engine.Load(); e != nil {
		return e.Frames()
	}
	return 0
}

// Err returns the first error the output reported while transmitting, for
// outputs that keep one (BitBanger, a UART).
func (c *Controller) Err() error {
	c.mu.Lock()
	tx := c.tx
	c.mu.Unlock()
	if f, ok := tx.(interface{ Err() error }); ok {
		return f.Err()
	}
	return nil
}

// Close stops transmission and the tick goroutine.
func (c *Controller) Close() error {
	c.Stop()
	c.ticker.Close()
	return nil
}

func (c *Controller) tick() {
	if e := c.engine.Load(); e != nil {
		e.Tick()
	}
}
