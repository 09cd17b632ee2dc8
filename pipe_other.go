//go:build !unix

package sigmux

import "sync/atomic"

// Fallback notification pipe for platforms without pipe(2): a bounded
// in-process queue with the same lossy, coalescing semantics as the Unix
// self-pipe. The queue channel is never closed, so Notify can race Close
// without panicking; closure is signalled on a separate done channel.

const pipeCapacity = 64

type pipeState struct {
	ch     chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

func (s *pipeState) close() error {
	if s.closed.Swap(true) {
		return ErrPipeClosed
	}
	close(s.done)
	return nil
}

// PipeWriter is the dispatch-context end of a notification pipe.
type PipeWriter struct {
	s     *pipeState
	drops atomic.Uint64
}

// PipeReader is the ordinary-context end of a notification pipe.
type PipeReader struct {
	s *pipeState
}

// NewPipe creates a notification pipe pair.
func NewPipe() (*PipeWriter, *PipeReader, error) {
	s := &pipeState{
		ch:   make(chan struct{}, pipeCapacity),
		done: make(chan struct{}),
	}
	return &PipeWriter{s: s}, &PipeReader{s: s}, nil
}

// Notify enqueues one wake token without blocking; a full queue drops it.
func (w *PipeWriter) Notify() {
	if w.s.closed.Load() {
		return
	}
	select {
	case w.s.ch <- struct{}{}:
	default:
		w.drops.Add(1)
	}
}

// Drops reports how many wake tokens were discarded against a full queue.
func (w *PipeWriter) Drops() uint64 {
	return w.drops.Load()
}

// Close marks the pipe closed and wakes a blocked reader.
func (w *PipeWriter) Close() error {
	return w.s.close()
}

// Drain blocks until at least one wake token is pending, then consumes
// everything pending and returns the count.
func (r *PipeReader) Drain() (int, error) {
	select {
	case <-r.s.ch:
		n := r.consume()
		return n + 1, nil
	case <-r.s.done:
		// Closed; hand over whatever was already queued.
		if n := r.consume(); n > 0 {
			return n, nil
		}
		return 0, ErrPipeClosed
	}
}

// Poll consumes pending wake tokens without blocking; 0 means none were
// pending.
func (r *PipeReader) Poll() (int, error) {
	n := r.consume()
	if n == 0 && r.s.closed.Load() {
		return 0, ErrPipeClosed
	}
	return n, nil
}

// Close marks the pipe closed.
func (r *PipeReader) Close() error {
	return r.s.close()
}

func (r *PipeReader) consume() int {
	total := 0
	for {
		select {
		case <-r.s.ch:
			total++
		default:
			return total
		}
	}
}
