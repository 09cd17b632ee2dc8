package sigmux

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// arenaSize bounds the per-signal slot table. Signal numbers are small
// positive integers on every supported platform; 64 covers the Linux
// realtime range, which is the largest.
const arenaSize = 65

// slot is one registered subscription. Identifiers are monotonically
// increasing and never reused, so a stale snapshot can never be confused
// with a live one.
type slot struct {
	id  uint64
	act Action
}

// snapshot is an immutable slot list. Once published into the arena it is
// never mutated; updates build a fresh snapshot and swap the pointer.
type snapshot struct {
	slots []slot
}

// watcher holds the delivery channel installed with the OS for one signal
// number and the stop channel that ends its forwarding loop.
type watcher struct {
	ch   chan os.Signal
	stop chan struct{}
}

// Registry multiplexes OS signal delivery to registered actions. It is
// process-scoped state: signal delivery is process-wide and reaches the
// dispatcher with no calling context, so the slot table is an explicit
// arena indexed by signal number rather than a closure capturing state.
//
// Registration and removal serialize on an ordinary mutex, but the dispatch
// path never touches it: it only loads the published snapshot pointer and
// performs atomic counter updates. No lock is ever shared between the two
// sides, so dispatch can preempt or run concurrently with registration
// without deadlock.
type Registry struct {
	mu        sync.Mutex
	installer Installer
	logf      LoggerFunc
	debug     bool

	policy atomic.Pointer[Policy]
	nextID atomic.Uint64

	// arena and delivered are indexed by signal number. arena entries are
	// read by dispatch with an acquire load and written by registration
	// with a release store; delivered is bumped with plain atomic adds.
	arena     [arenaSize]atomic.Pointer[snapshot]
	delivered [arenaSize]atomic.Uint64

	// watch tracks which signal numbers already have the dispatcher
	// installed. Guarded by mu; dispatch never reads it.
	watch map[int]*watcher
}

// NewRegistry creates an independent registry. Most programs use the
// package-level Default instance instead; separate registries are mainly
// useful in tests or when injecting a custom Installer.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		installer: &osInstaller{},
		logf:      func(string, ...any) {},
		watch:     make(map[int]*watcher),
	}
	p := defaultPolicy()
	r.policy.Store(&p)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process-wide registry used by the package-level functions.
var Default = NewRegistry()

// Register subscribes act to deliveries of sig and returns a handle owning
// the new subscription. Handles are not shared: duplicate interest in the
// same signal takes two independent registrations.
//
// Signals outside the platform's valid range and the uncatchable set
// (SIGKILL, SIGSTOP) are rejected with ErrInvalidSignal before any state
// changes. The first registration for a signal number installs the
// dispatcher with the OS; if that installation fails the just-added slot is
// rolled back and the error wraps ErrInstallFailed.
func (r *Registry) Register(sig os.Signal, act Action) (*Handle, error) {
	n, ok := sigNum(sig)
	if !ok || n < 1 || n > sigMax || reservedSignal(n) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, sig)
	}
	if !act.valid() {
		return nil, ErrInvalidAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID.Add(1)
	prev := r.arena[n].Load()
	next := &snapshot{slots: make([]slot, 0, len(prevSlots(prev))+1)}
	next.slots = append(next.slots, prevSlots(prev)...)
	next.slots = append(next.slots, slot{id: id, act: act})
	r.arena[n].Store(next)

	if _, installed := r.watch[n]; !installed {
		w := &watcher{
			ch:   make(chan os.Signal, 16),
			stop: make(chan struct{}),
		}
		if err := r.installer.Install(w.ch, sig); err != nil {
			r.arena[n].Store(prev)
			return nil, fmt.Errorf("%w for %v: %v", ErrInstallFailed, sig, err)
		}
		r.watch[n] = w
		go r.forward(n, w)
	}

	if r.debug {
		r.logf("sigmux: register id=%d for %v (%d active)", id, sig, len(next.slots))
	}
	return newHandle(r, n, id), nil
}

// unregister removes the slot with the given id from sig's snapshot.
// Removal is fire-and-forget: a dispatch that loaded the old snapshot
// strictly before the swap may still run the removed action one final
// time. The old snapshot itself is reclaimed by the runtime once no
// dispatch holds it; slot ids are never reused.
func (r *Registry) unregister(n int, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.arena[n].Load()
	if cur == nil {
		return false
	}
	idx := -1
	for i := range cur.slots {
		if cur.slots[i].id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	next := &snapshot{slots: make([]slot, 0, len(cur.slots)-1)}
	next.slots = append(next.slots, cur.slots[:idx]...)
	next.slots = append(next.slots, cur.slots[idx+1:]...)
	r.arena[n].Store(next)

	if r.debug {
		r.logf("sigmux: unregister id=%d for %v (%d active)", id, syscall.Signal(n), len(next.slots))
	}
	return true
}

// forward drains one signal's delivery channel and dispatches each arrival.
// It is the schedulable stand-in for the raw OS handler; everything it
// runs obeys the handler contract (no locks shared with registration, no
// blocking, no allocation in the action payloads).
func (r *Registry) forward(n int, w *watcher) {
	for {
		select {
		case <-w.stop:
			return
		case sig, ok := <-w.ch:
			if !ok {
				return
			}
			r.dispatch(n, sig)
		}
	}
}

// dispatch executes every active slot for one delivery, in insertion
// order. It reads only the published snapshot and atomics: the delivery
// path must stay runnable even while a registration holds r.mu.
func (r *Registry) dispatch(n int, sig os.Signal) {
	snap := r.arena[n].Load()
	r.delivered[n].Add(1)

	owned := false
	if snap != nil {
		for i := range snap.slots {
			act := &snap.slots[i].act
			switch act.kind {
			case actionCallback:
				act.fn(sig)
			case actionFlag:
				act.flag.Store(true)
			case actionPipe:
				act.pipe.Notify()
			}
			if act.owned {
				owned = true
			}
		}
	}

	if p := r.policy.Load(); p.ChainDefault && !owned && defaultTerminates(n) {
		r.chainDefault(sig)
	}
}

// chainDefault restores the previous OS disposition for sig and re-raises
// it, so the default action (typically process termination) still occurs
// when no subscriber owns the signal. This is terminal for the signal: the
// dispatcher is no longer installed afterwards.
func (r *Registry) chainDefault(sig os.Signal) {
	r.installer.Reset(sig)
	_ = r.installer.Raise(sig)
}

// Reset removes every subscription and uninstalls the dispatcher from all
// signals it was watching. It is intended for tests and controlled
// reinitialization; a registry otherwise lives for the process lifetime.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for n, w := range r.watch {
		r.installer.Uninstall(w.ch)
		close(w.stop)
		delete(r.watch, n)
	}
	for n := range r.arena {
		r.arena[n].Store(nil)
	}
	if r.debug {
		r.logf("sigmux: reset all subscriptions")
	}
}

// Delivered reports how many deliveries of sig this registry has
// dispatched. The count is maintained with lock-free atomics and may be
// read concurrently with dispatch.
func (r *Registry) Delivered(sig os.Signal) uint64 {
	n, ok := sigNum(sig)
	if !ok || n < 1 || n >= arenaSize {
		return 0
	}
	return r.delivered[n].Load()
}

// activeSlots returns the number of live subscriptions for signal number n.
func (r *Registry) activeSlots(n int) int {
	if n < 1 || n >= arenaSize {
		return 0
	}
	snap := r.arena[n].Load()
	if snap == nil {
		return 0
	}
	return len(snap.slots)
}

func prevSlots(s *snapshot) []slot {
	if s == nil {
		return nil
	}
	return s.slots
}

// sigNum extracts the platform signal number from an os.Signal. All
// signals produced by the os and syscall packages carry one.
func sigNum(s os.Signal) (int, bool) {
	ss, ok := s.(syscall.Signal)
	if !ok {
		return 0, false
	}
	return int(ss), true
}

// defaultTerminates reports whether the default disposition of signal
// number n ends the process. Chaining only makes sense for these; a
// wakeup-style signal with a registered action needs no default pass.
func defaultTerminates(n int) bool {
	switch syscall.Signal(n) {
	case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT:
		return true
	default:
		return false
	}
}
