package sigmux

import (
	"os"
	"os/signal"
)

// Installer abstracts the OS primitive that makes the dispatcher reachable
// for a signal number. It is the seam for injecting mocks during testing,
// including ones whose installation fails.
type Installer interface {
	// Install registers c to receive deliveries of sig. It is called at
	// most once per signal number per registry, under the registration
	// lock, so concurrent first registrations cannot double-install.
	Install(c chan<- os.Signal, sig os.Signal) error

	// Uninstall stops all deliveries to c.
	Uninstall(c chan<- os.Signal)

	// Reset restores the disposition sig had before Install, so the
	// default action can run again.
	Reset(sig os.Signal)

	// Raise re-delivers sig to the own process, running whatever
	// disposition is current.
	Raise(sig os.Signal) error
}

// osInstaller is the production implementation. It delegates to the
// standard library's signal installation primitives, which cannot fail.
type osInstaller struct{}

func (*osInstaller) Install(c chan<- os.Signal, sig os.Signal) error {
	signal.Notify(c, sig)
	return nil
}

func (*osInstaller) Uninstall(c chan<- os.Signal) {
	signal.Stop(c)
}

func (*osInstaller) Reset(sig os.Signal) {
	signal.Reset(sig)
}

func (*osInstaller) Raise(sig os.Signal) error {
	n, ok := sigNum(sig)
	if !ok {
		return ErrInvalidSignal
	}
	return raiseSignal(n, sig)
}
