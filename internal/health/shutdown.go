package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process-wide readiness gate. The server sets it to false
// when shutdown begins so load balancers stop routing new traffic while
// in-flight requests drain.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness gate state.
func IsReady() bool {
	return ready.Load()
}
