package relax

import "sync/atomic"

// atomicBool is a monotonic "did anything change" flag shared across
// worker goroutines within a single Run call.
type atomicBool struct {
	v atomic.Bool
}

func (b *atomicBool) Store(val bool) {
	if val {
		b.v.Store(true)
	}
}

func (b *atomicBool) Load() bool { return b.v.Load() }
