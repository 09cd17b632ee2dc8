// Package sigmux multiplexes OS signal delivery to registered actions
// without exposing callers to the hazards of signal-handler execution.
//
// A Registry maps each signal number to an ordered, immutable list of
// subscriptions, published by atomic swap so the dispatch path never shares
// a lock with registration code (a lock held across both contexts would be
// a guaranteed deadlock if delivery preempted the holder). Subscriptions
// carry one of three deliberately restricted payloads: a synchronous
// callback, a store into a caller-owned atomic flag, or a non-blocking
// wake-byte write into a notification pipe. The pipe is the self-pipe
// bridge into ordinary code: lossy, coalescing, drained at leisure.
//
// Most programs use the package-level functions, which operate on the
// Default registry:
//
//	w, rd, _ := sigmux.NewPipe()
//	h, err := sigmux.Register(syscall.SIGHUP, sigmux.NotifyPipe(w))
//	...
//	for {
//		if _, err := rd.Drain(); err != nil {
//			return
//		}
//		reloadConfig() // wakeups coalesce; re-check state, don't count events
//	}
//
// Removal via Handle.Unregister is fire-and-forget: one delivery already in
// flight may still run the removed action, but none beginning afterwards
// will. OriginOf classifies delivery metadata (who sent the signal) as a
// pure function usable anywhere.
package sigmux

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

// Register subscribes act to sig on the Default registry.
func Register(sig os.Signal, act Action) (*Handle, error) {
	return Default.Register(sig, act)
}

// Reset clears all subscriptions on the Default registry. Intended for
// tests and controlled reinitialization.
func Reset() {
	Default.Reset()
}

// Delivered reports the Default registry's dispatch count for sig.
func Delivered(sig os.Signal) uint64 {
	return Default.Delivered(sig)
}

// Collector returns a prometheus collector for the Default registry.
func Collector() prometheus.Collector {
	return Default.Collector()
}

// SetPolicy replaces the Default registry's policy. Safe for concurrent
// use; dispatch reads the policy atomically per delivery.
func SetPolicy(p Policy) {
	Default.policy.Store(&p)
}

// SetLogger sets the bookkeeping logger on the Default registry.
func SetLogger(l LoggerFunc) {
	Default.mu.Lock()
	Default.logf = l
	Default.mu.Unlock()
}

// SetDebug toggles bookkeeping log output on the Default registry.
func SetDebug(enabled bool) {
	Default.mu.Lock()
	Default.debug = enabled
	Default.mu.Unlock()
}
