package gpiodmx

// Realtime describes how the tick thread is isolated from the rest of the
// system while it bit-bangs.
type Realtime struct {
	// CPU pins the tick thread to one core. Negative leaves affinity alone.
	CPU int
	// Priority is the SCHED_FIFO priority, 1-99. Zero keeps the default
	// scheduler.
	Priority int
	// LockMemory locks the process memory to avoid page faults mid-frame.
	LockMemory bool
}

// Apply configures the calling OS thread. The caller must have called
// runtime.LockOSThread.
func (r *Realtime) Apply() error {
	return r.apply()
}
