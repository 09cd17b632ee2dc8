package sigmux

import (
	"os"
	"runtime"
	"sync/atomic"
	"syscall"
)

// Handle is the opaque token owning one subscription. Exactly one handle
// exists per slot; registering the same signal twice yields two handles
// that are removed independently.
type Handle struct {
	reg     *Registry
	sig     int
	id      uint64
	done    atomic.Bool
	cleanup runtime.Cleanup
}

// release carries everything the drop cleanup needs. It must not reference
// the Handle itself or the handle would never become unreachable.
type release struct {
	reg *Registry
	sig int
	id  uint64
}

func newHandle(r *Registry, sig int, id uint64) *Handle {
	h := &Handle{reg: r, sig: sig, id: id}
	h.cleanup = runtime.AddCleanup(h, func(rel release) {
		rel.reg.unregister(rel.sig, rel.id)
	}, release{reg: r, sig: sig, id: id})
	return h
}

// Unregister removes the subscription and reports whether it was still
// registered; a second call returns false.
//
// Removal is fire-and-forget: a dispatch already in flight when Unregister
// returns may run the action one final time, but no dispatch beginning
// afterwards will observe it. Callers needing a hard cut-off must sequence
// that themselves (e.g. have the action check caller-owned state).
func (h *Handle) Unregister() bool {
	if h.done.Swap(true) {
		return false
	}
	h.cleanup.Stop()
	return h.reg.unregister(h.sig, h.id)
}

// Forget intentionally leaks the subscription: it stays registered for the
// process lifetime and the handle's eventual collection no longer removes
// it. Useful for fire-once-never-remove registrations.
func (h *Handle) Forget() {
	if !h.done.Swap(true) {
		h.cleanup.Stop()
	}
}

// Signal returns the signal this handle is subscribed to.
func (h *Handle) Signal() os.Signal {
	return syscall.Signal(h.sig)
}
