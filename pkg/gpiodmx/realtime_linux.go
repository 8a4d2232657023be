package gpiodmx

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func (r *Realtime) apply() error {
	if r.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			return fmt.Errorf("mlockall: %w", err)
		}
	}

	if r.CPU >= 0 {
		var set unix.CPUSet
		set.Zero()
		set.Set(r.CPU)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("set affinity to cpu %d: %w", r.CPU, err)
		}
	}

	if r.Priority > 0 {
		attr := &unix.SchedAttr{
			Size:     unix.SizeofSchedAttr,
			Policy:   unix.SCHED_FIFO,
			Priority: uint32(r.Priority),
		}
		if err := unix.SchedSetAttr(0, attr, 0); err != nil {
			return fmt.Errorf("set SCHED_FIFO priority %d: %w", r.Priority, err)
		}
	}

	return nil
}
