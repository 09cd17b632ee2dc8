package sigmux

// Policy defines optional dispatch behavior for a Registry.
type Policy struct {
	// ChainDefault re-raises a signal with its previous OS disposition
	// restored after dispatch, whenever the signal's default action
	// terminates the process and no active subscription claims ownership
	// (see Action.Owned). This keeps "log, then die anyway" registrations
	// from silently swallowing termination signals.
	ChainDefault bool
}

func defaultPolicy() Policy {
	return Policy{}
}
