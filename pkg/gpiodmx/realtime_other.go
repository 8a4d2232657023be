//go:build !linux

package gpiodmx

import "errors"

func (r *Realtime) apply() error {
	if r.LockMemory || r.CPU >= 0 || r.Priority > 0 {
		return errors.New("realtime tick thread is only supported on linux")
	}
	return nil
}
