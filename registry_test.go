package sigmux

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstaller records installations and lets tests deliver signals
// synthetically, without involving the OS.
type fakeInstaller struct {
	mu       sync.Mutex
	installs []os.Signal
	resets   []os.Signal
	raises   []os.Signal
	failWith error
	chans    map[os.Signal]chan<- os.Signal
}

func newFakeInstaller() *fakeInstaller {
	return &fakeInstaller{chans: make(map[os.Signal]chan<- os.Signal)}
}

func (f *fakeInstaller) Install(c chan<- os.Signal, sig os.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.installs = append(f.installs, sig)
	f.chans[sig] = c
	return nil
}

func (f *fakeInstaller) Uninstall(c chan<- os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sig, ch := range f.chans {
		if ch == c {
			delete(f.chans, sig)
		}
	}
}

func (f *fakeInstaller) Reset(sig os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sig)
}

func (f *fakeInstaller) Raise(sig os.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raises = append(f.raises, sig)
	return nil
}

// deliver simulates one OS delivery of sig.
func (f *fakeInstaller) deliver(t *testing.T, sig os.Signal) {
	t.Helper()
	f.mu.Lock()
	ch := f.chans[sig]
	f.mu.Unlock()
	require.NotNil(t, ch, "no handler installed for %v", sig)
	ch <- sig
}

func (f *fakeInstaller) installCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.installs)
}

func TestRegisterInvalidSignal(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	for _, sig := range []os.Signal{
		syscall.SIGKILL,
		syscall.Signal(0),
		syscall.Signal(-3),
		syscall.Signal(sigMax + 1),
	} {
		h, err := r.Register(sig, SetFlag(new(atomic.Bool)))
		require.ErrorIs(t, err, ErrInvalidSignal, "signal %v", sig)
		require.Nil(t, h)
	}

	// Idempotent failure: repeated rejections add no state.
	for i := 0; i < 5; i++ {
		_, err := r.Register(syscall.SIGKILL, SetFlag(new(atomic.Bool)))
		require.ErrorIs(t, err, ErrInvalidSignal)
	}
	assert.Zero(t, r.activeSlots(int(syscall.SIGKILL)))
	assert.Zero(t, fi.installCount(), "rejected registrations must not install handlers")
}

func TestRegisterZeroAction(t *testing.T) {
	r := NewRegistry(WithInstaller(newFakeInstaller()))
	defer r.Reset()

	_, err := r.Register(syscall.SIGHUP, Action{})
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = r.Register(syscall.SIGHUP, Callback(nil))
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestInstallFailureRollsBack(t *testing.T) {
	fi := newFakeInstaller()
	fi.failWith = errors.New("EPERM")
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	h, err := r.Register(syscall.SIGHUP, SetFlag(new(atomic.Bool)))
	require.ErrorIs(t, err, ErrInstallFailed)
	require.Nil(t, h)
	assert.Zero(t, r.activeSlots(int(syscall.SIGHUP)), "slot must be rolled back on install failure")

	// A later attempt, once installation works, starts clean.
	fi.failWith = nil
	h, err = r.Register(syscall.SIGHUP, SetFlag(new(atomic.Bool)))
	require.NoError(t, err)
	defer h.Forget()
	assert.Equal(t, 1, r.activeSlots(int(syscall.SIGHUP)))
	assert.Equal(t, 1, fi.installCount())
}

func TestInstallOncePerSignal(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	for i := 0; i < 4; i++ {
		h, err := r.Register(syscall.SIGHUP, SetFlag(new(atomic.Bool)))
		require.NoError(t, err)
		defer h.Forget()
	}
	assert.Equal(t, 1, fi.installCount(), "dispatcher installs exactly once per signal")
}

func TestDispatchRunsActionsInOrder(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	seq := make(chan int, 4)
	h1, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { seq <- 1 }))
	require.NoError(t, err)
	defer h1.Forget()
	h2, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { seq <- 2 }))
	require.NoError(t, err)
	defer h2.Forget()

	fi.deliver(t, syscall.SIGALRM)

	require.Equal(t, 1, <-seq)
	require.Equal(t, 2, <-seq)
	assert.Equal(t, uint64(1), r.Delivered(syscall.SIGALRM))
}

func TestFlagActionObservableAfterDelivery(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	var flag atomic.Bool
	h, err := r.Register(syscall.SIGPIPE, SetFlag(&flag))
	require.NoError(t, err)
	defer h.Forget()

	fi.deliver(t, syscall.SIGPIPE)
	require.Eventually(t, flag.Load, time.Second, time.Millisecond)
}

func TestUnregisterStopsSubsequentDispatch(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	var count atomic.Int64
	h, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { count.Add(1) }))
	require.NoError(t, err)

	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, time.Millisecond)

	require.True(t, h.Unregister())
	require.False(t, h.Unregister(), "double unregister reports false")

	fi.deliver(t, syscall.SIGALRM)
	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, func() bool { return r.Delivered(syscall.SIGALRM) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), count.Load(), "no dispatch after unregister may run the action")
}

func TestHandlesOnSameSignalAreIndependent(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	var a, b atomic.Int64
	ha, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { a.Add(1) }))
	require.NoError(t, err)
	hb, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { b.Add(1) }))
	require.NoError(t, err)
	defer hb.Forget()

	require.True(t, ha.Unregister())

	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, func() bool { return b.Load() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, a.Load())
}

// A removal issued by a callback mid-dispatch must not affect the snapshot
// already being executed; it only takes effect for later deliveries.
func TestUnregisterDuringDispatchSnapshotIsolation(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	var second atomic.Int64
	var h2 *Handle
	h1, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) { h2.Unregister() }))
	require.NoError(t, err)
	defer h1.Forget()
	h2, err = r.Register(syscall.SIGALRM, Callback(func(os.Signal) { second.Add(1) }))
	require.NoError(t, err)

	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, func() bool { return r.Delivered(syscall.SIGALRM) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), second.Load(), "current snapshot still runs the removed action")

	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, func() bool { return r.Delivered(syscall.SIGALRM) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), second.Load(), "later deliveries must not")
}

func TestChainDefaultResetsDisposition(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi), WithPolicy(Policy{ChainDefault: true}))
	defer r.Reset()

	// An owned subscription suppresses chaining.
	var flag atomic.Bool
	owned, err := r.Register(syscall.SIGHUP, SetFlag(&flag).Owned())
	require.NoError(t, err)

	fi.deliver(t, syscall.SIGHUP)
	require.Eventually(t, flag.Load, time.Second, time.Millisecond)
	fi.mu.Lock()
	resets := len(fi.resets)
	fi.mu.Unlock()
	assert.Zero(t, resets, "owned subscription must suppress the chained default")

	// Without an owner the previous disposition is restored and the
	// signal re-raised.
	require.True(t, owned.Unregister())
	fi.deliver(t, syscall.SIGHUP)
	require.Eventually(t, func() bool {
		fi.mu.Lock()
		defer fi.mu.Unlock()
		return len(fi.resets) == 1 && len(fi.raises) == 1
	}, time.Second, time.Millisecond)
}

func TestResetClearsEverything(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))

	h, err := r.Register(syscall.SIGALRM, SetFlag(new(atomic.Bool)))
	require.NoError(t, err)
	h.Forget()

	r.Reset()
	assert.Zero(t, r.activeSlots(int(syscall.SIGALRM)))
	fi.mu.Lock()
	remaining := len(fi.chans)
	fi.mu.Unlock()
	assert.Zero(t, remaining, "reset must uninstall every watcher")
}

// Many goroutines register and unregister on one signal while deliveries
// keep arriving. Nothing may crash, no removed slot may fire after its
// removal settles, and slot state must stay bounded.
func TestConcurrentRegisterUnregisterStress(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	// Pin one watcher so deliveries always have an installed channel.
	pin, err := r.Register(syscall.SIGALRM, SetFlag(new(atomic.Bool)))
	require.NoError(t, err)
	defer pin.Forget()

	fi.mu.Lock()
	ch := fi.chans[syscall.SIGALRM]
	fi.mu.Unlock()
	require.NotNil(t, ch)

	stop := make(chan struct{})
	var churn, delivery sync.WaitGroup

	for g := 0; g < 4; g++ {
		churn.Add(1)
		go func() {
			defer churn.Done()
			for i := 0; i < 500; i++ {
				h, err := r.Register(syscall.SIGALRM, Callback(func(os.Signal) {}))
				if err != nil {
					t.Error(err)
					return
				}
				if !h.Unregister() {
					t.Error("freshly registered slot vanished")
					return
				}
			}
		}()
	}

	delivery.Add(1)
	go func() {
		defer delivery.Done()
		for {
			select {
			case <-stop:
				return
			case ch <- syscall.SIGALRM:
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()

	churnDone := make(chan struct{})
	go func() {
		churn.Wait()
		close(churnDone)
	}()
	select {
	case <-churnDone:
	case <-time.After(30 * time.Second):
		t.Fatal("stress test timed out")
	}
	close(stop)
	delivery.Wait()

	// Steady state: only the pinned slot remains.
	require.Eventually(t, func() bool { return r.activeSlots(int(syscall.SIGALRM)) == 1 }, time.Second, time.Millisecond)
}
