package sigmux

import "errors"

var (
	// ErrInvalidSignal marks a registration against a signal number that
	// is out of range or uncatchable (SIGKILL, SIGSTOP). A configuration
	// error; retrying cannot succeed.
	ErrInvalidSignal = errors.New("sigmux: invalid or uncatchable signal")

	// ErrInstallFailed wraps a failure to install the dispatcher with the
	// OS. The registration that triggered it is rolled back.
	ErrInstallFailed = errors.New("sigmux: installing signal handler failed")

	// ErrInvalidAction marks a zero Action passed to Register.
	ErrInvalidAction = errors.New("sigmux: action has no payload")

	// ErrPipeClosed is returned from notification pipe operations after
	// either end has been closed.
	ErrPipeClosed = errors.New("sigmux: notification pipe closed")
)
