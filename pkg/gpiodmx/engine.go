package gpiodmx

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mode is the transmission mode of an Engine.
type Mode int32

const (
	// Disabled sends nothing.
	Disabled Mode = iota
	// Continuous repeats frames until stopped.
	Continuous
	// SingleShot sends one frame, then reverts to Disabled.
	SingleShot
)

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "disabled"
	case Continuous:
		return "continuous"
	case SingleShot:
		return "single-shot"
	default:
		return "unknown"
	}
}

const (
	// BreakCost is the budget, in bit periods, of a break plus start code.
	BreakCost = 35
	// SlotCost is the budget, in bit periods, of one channel slot.
	SlotCost = BitsPerByte

	// DefaultUtilization is the share of each tick period spent transmitting.
	DefaultUtilization = 0.25

	// avrTickDivisor converts an AVR clock in Hz to DMX bit periods per
	// timer-2 overflow (prescaler 64, phase correct PWM: 64*510 cycles).
	avrTickDivisor = 31372
)

// BudgetForPeriod returns how many bit periods a tick of the given period
// may spend transmitting.
func BudgetForPeriod(period time.Duration, utilization float64) int {
	if period <= 0 || utilization <= 0 {
		return 0
	}
	return int(float64(period/BitPeriod) * min(utilization, 1))
}

// BudgetForClock returns the per-tick budget of an AVR timer-2 overflow
// running from a clockHz system clock, at a quarter of the CPU.
func BudgetForClock(clockHz uint32) int {
	return int(clockHz/avrTickDivisor) >> 2
}

// TickSource is the periodic event that drives an Engine. Disable keeps the
// handler from running; Enable lets it run on the next period.
type TickSource interface {
	Enable()
	Disable()
}

// Engine is the frame state machine. Each Tick sends as much of the current
// frame as its budget allows and remembers where it stopped.
//
// The cursor is only touched from Tick. Start, Stop and Mode may be called
// from any goroutine.
type Engine struct {
	universe *Universe
	tx       Transmitter
	source   TickSource
	budget   int

	// cursor 0 is the break and start code, n>0 is channel n.
	cursor int
	// frameGen is the Start generation the current frame belongs to.
	frameGen uint64

	// mu orders mode changes with the source's enable bit. It is never
	// held while transmitting.
	mu   sync.Mutex
	gen  uint64
	mode atomic.Int32

	reset  atomic.Bool
	frames atomic.Uint64
}

// NewEngine returns a disabled engine sending u through tx. src may be nil
// when the caller drives Tick or Resume by hand.
func NewEngine(u *Universe, tx Transmitter, src TickSource, budget int) *Engine {
	return &Engine{universe: u, tx: tx, source: src, budget: budget}
}

// Budget returns the bit periods each Tick may spend.
func (e *Engine) Budget() int {
	return e.budget
}

// Mode returns the current transmission mode.
func (e *Engine) Mode() Mode {
	return Mode(e.mode.Load())
}

// Frames returns the number of frames completed so far.
func (e *Engine) Frames() uint64 {
	return e.frames.Load()
}

// Start sets the mode, restarts the frame from the break on the next tick
// and enables the tick source. A Start that lands while a single-shot frame
// is finishing is kept: that frame does not disable the engine.
func (e *Engine) Start(m Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.mode.Store(int32(m))
	e.reset.Store(true)
	if e.source != nil && m != Disabled {
		e.source.Enable()
	}
}

// Stop disables the tick source and sets the mode to Disabled. A tick that
// is already running finishes its current budget.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disable()
}

// Tick is the periodic handler. It keeps the tick source disabled while it
// runs and re-enables it on return unless the engine stopped. It returns the
// number of steps sent.
func (e *Engine) Tick() int {
	if e.source != nil {
		e.source.Disable()
	}
	steps := e.Resume(e.budget)
	if e.source != nil {
		e.mu.Lock()
		if e.Mode() != Disabled {
			e.source.Enable()
		}
		e.mu.Unlock()
	}
	return steps
}

// Resume advances the frame using at most budget bit periods and returns the
// number of steps taken. A step is only started if the whole of it fits.
func (e *Engine) Resume(budget int) int {
	if e.Mode() == Disabled {
		return 0
	}
	if e.reset.Swap(false) {
		e.cursor = 0
		e.mu.Lock()
		e.frameGen = e.gen
		e.mu.Unlock()
	}

	steps := 0
	for {
		// The producer may have lowered the count since the last step.
		if e.cursor > e.universe.MaxChannel() {
			e.endFrame()
			return steps
		}

		if e.cursor == 0 {
			if budget < BreakCost {
				return steps
			}
			budget -= BreakCost
			e.tx.SendBreak()
			e.tx.SendByte(StartCode)
		} else {
			if budget < SlotCost {
				return steps
			}
			budget -= SlotCost
			e.tx.SendByte(e.universe.Read(e.cursor))
		}
		steps++

		e.cursor++
		if e.cursor > e.universe.MaxChannel() {
			e.endFrame()
			return steps
		}
	}
}

// Cursor returns the next step of the frame. Only safe from the tick
// goroutine or when no tick is running.
func (e *Engine) Cursor() int {
	return e.cursor
}

func (e *Engine) endFrame() {
	e.cursor = 0
	e.frames.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Mode() == SingleShot && e.gen == e.frameGen {
		e.disable()
	}
}

// disable must be called with mu held.
func (e *Engine) disable() {
	e.mode.Store(int32(Disabled))
	if e.source != nil {
		e.source.Disable()
	}
}
