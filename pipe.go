package sigmux

// The notification pipe is the bridge from dispatch context into ordinary
// schedulable code: the classic self-pipe pattern. The writer side performs
// a single non-blocking one-byte write per notification and silently drops
// the byte when the pipe is full — deliveries coalesce, so presence is the
// signal, not the count. The reader side drains pending bytes from ordinary
// context, blocking or polling as the caller chooses.
//
// Contract: after W >= 1 notifications land, the next drain observes a
// count in [1, W]; after zero notifications a poll observes 0. Ordering
// between distinct pipes is unspecified. A wakeup therefore means
// "re-check all watched state", never "exactly these events happened".
//
// On Unix platforms the pipe is a real pipe(2) descriptor pair (see
// pipe_unix.go), so the reader end can be multiplexed into external poll
// loops. Elsewhere a bounded in-process queue provides the same lossy
// semantics (see pipe_other.go).
