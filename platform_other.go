//go:build !linux && !darwin

package sigmux

import (
	"os"
	"syscall"
)

// Best-effort signal-origin codes for platforms without a dedicated table.
// The BSDs share Darwin's values; elsewhere signal metadata is not
// observable and everything decodes as unknown, which is the documented
// degradation.
const (
	codeUserSent int32 = 0x10001 // SI_USER
	codeQueued   int32 = 0x10002 // SI_QUEUE
	codeMesgQ    int32 = 0x10005 // SI_MESGQ
	codeKernel   int32 = 0
)

const hasKernelCode = false

const sigMax = 31

func reservedSignal(n int) bool {
	// SIGSTOP is not defined everywhere (notably Windows); SIGKILL is.
	return syscall.Signal(n) == syscall.SIGKILL || n == 17 || n == 19 || n == 23
}

func raiseSignal(_ int, sig os.Signal) error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(sig)
}
