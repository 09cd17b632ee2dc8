//go:build linux

package sigmux

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal-origin codes from <asm-generic/siginfo.h>. These are not exported
// by the syscall layer on every platform, so each platform file carries the
// resolved values for its libc.
const (
	codeUserSent int32 = 0    // SI_USER: kill(2)
	codeQueued   int32 = -1   // SI_QUEUE: sigqueue(3)
	codeMesgQ    int32 = -3   // SI_MESGQ: POSIX message queue notification
	codeKernel   int32 = 0x80 // SI_KERNEL
)

const hasKernelCode = true

// sigMax is the highest valid signal number, including the realtime range.
const sigMax = 64

// reservedSignal reports signals that can never be caught.
func reservedSignal(n int) bool {
	s := syscall.Signal(n)
	return s == syscall.SIGKILL || s == syscall.SIGSTOP
}

// raiseSignal re-delivers sig to the own process so the current OS
// disposition runs.
func raiseSignal(n int, _ os.Signal) error {
	return unix.Kill(unix.Getpid(), syscall.Signal(n))
}
