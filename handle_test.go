package sigmux

import (
	"runtime"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForgetLeaksSubscription(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	var flag atomic.Bool
	h, err := r.Register(syscall.SIGALRM, SetFlag(&flag))
	require.NoError(t, err)

	h.Forget()
	assert.False(t, h.Unregister(), "a forgotten handle can no longer unregister")

	// The subscription itself stays live.
	fi.deliver(t, syscall.SIGALRM)
	require.Eventually(t, flag.Load, time.Second, time.Millisecond)
	assert.Equal(t, 1, r.activeSlots(int(syscall.SIGALRM)))
}

func TestDroppedHandleReleasesSubscription(t *testing.T) {
	fi := newFakeInstaller()
	r := NewRegistry(WithInstaller(fi))
	defer r.Reset()

	func() {
		h, err := r.Register(syscall.SIGALRM, SetFlag(new(atomic.Bool)))
		require.NoError(t, err)
		_ = h // drops out of scope without Forget or Unregister
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return r.activeSlots(int(syscall.SIGALRM)) == 0
	}, 5*time.Second, 10*time.Millisecond, "dropped handle must release its slot")
}

func TestHandleSignalAccessor(t *testing.T) {
	r := NewRegistry(WithInstaller(newFakeInstaller()))
	defer r.Reset()

	h, err := r.Register(syscall.SIGHUP, SetFlag(new(atomic.Bool)))
	require.NoError(t, err)
	defer h.Forget()
	assert.Equal(t, syscall.SIGHUP, h.Signal())
}
