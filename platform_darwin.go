//go:build darwin

package sigmux

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal-origin codes from <sys/signal.h>. Darwin has no kernel-generated
// code; codeKernel is a placeholder that never matches.
const (
	codeUserSent int32 = 0x10001 // SI_USER
	codeQueued   int32 = 0x10002 // SI_QUEUE
	codeMesgQ    int32 = 0x10005 // SI_MESGQ
	codeKernel   int32 = 0
)

const hasKernelCode = false

const sigMax = 31

func reservedSignal(n int) bool {
	s := syscall.Signal(n)
	return s == syscall.SIGKILL || s == syscall.SIGSTOP
}

func raiseSignal(n int, _ os.Signal) error {
	return unix.Kill(unix.Getpid(), syscall.Signal(n))
}
