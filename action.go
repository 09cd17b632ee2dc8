package sigmux

import (
	"os"
	"sync/atomic"
)

type actionKind uint8

const (
	actionNone actionKind = iota
	actionCallback
	actionFlag
	actionPipe
)

// Action is the payload executed when a subscribed signal is delivered.
// Only the three constructors below produce valid actions; the zero Action
// is rejected at registration. Restricting payloads to these variants is
// what keeps the dispatch path free of allocation, locking and blocking —
// an arbitrary closure doing arbitrary work has no place on it.
type Action struct {
	kind  actionKind
	fn    func(os.Signal)
	flag  *atomic.Bool
	pipe  *PipeWriter
	owned bool
}

// Callback runs fn synchronously on every delivery, in registration order
// relative to other subscriptions on the same signal.
//
// fn executes on the dispatch path and inherits its contract: it must not
// allocate, take locks shared with registration code, or block. Violating
// the contract is a programming error, not a recoverable condition.
func Callback(fn func(os.Signal)) Action {
	if fn == nil {
		return Action{}
	}
	return Action{kind: actionCallback, fn: fn}
}

// SetFlag stores true into the caller-owned flag on every delivery, with
// release ordering. The caller polls or clears the flag from ordinary
// context; a single delivery between two polls is indistinguishable from
// many (deliveries coalesce into one observed true).
func SetFlag(flag *atomic.Bool) Action {
	if flag == nil {
		return Action{}
	}
	return Action{kind: actionFlag, flag: flag}
}

// NotifyPipe writes one wake byte into w on every delivery. The write is
// non-blocking; when the pipe is full the byte is dropped, which is safe
// because the reader re-checks all watched state per wakeup anyway.
func NotifyPipe(w *PipeWriter) Action {
	if w == nil {
		return Action{}
	}
	return Action{kind: actionPipe, pipe: w}
}

// Owned marks the subscription as fully owning its signal. While an owned
// subscription is active, Policy.ChainDefault does not re-raise the
// default disposition after dispatch.
func (a Action) Owned() Action {
	a.owned = true
	return a
}

func (a Action) valid() bool {
	return a.kind != actionNone
}
