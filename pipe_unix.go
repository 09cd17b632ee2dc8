//go:build unix

package sigmux

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// PipeWriter is the dispatch-context end of a notification pipe. Notify is
// the only operation meant for dispatch; Close belongs to ordinary context.
type PipeWriter struct {
	fd     int
	drops  atomic.Uint64
	closed atomic.Bool
}

// PipeReader is the ordinary-context end of a notification pipe.
type PipeReader struct {
	fd     int
	closed atomic.Bool
}

// NewPipe creates a notification pipe pair. Both descriptors are set
// non-blocking and close-on-exec.
func NewPipe() (*PipeWriter, *PipeReader, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, nil, err
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, nil, err
		}
		unix.CloseOnExec(fd)
	}
	return &PipeWriter{fd: fds[1]}, &PipeReader{fd: fds[0]}, nil
}

// Notify writes one wake byte. It never blocks: a full pipe drops the byte
// (counted, not reported — dispatch has nowhere to report to), which is
// correct because a pending byte already guarantees the reader wakes up.
func (w *PipeWriter) Notify() {
	if w.closed.Load() {
		return
	}
	var b [1]byte
	for {
		_, err := unix.Write(w.fd, b[:])
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			w.drops.Add(1)
		}
		return
	}
}

// Drops reports how many wake bytes were discarded against a full pipe.
func (w *PipeWriter) Drops() uint64 {
	return w.drops.Load()
}

// Close closes the writer descriptor. After both ends are closed the pipe
// is gone; in-flight Notify calls become no-ops.
func (w *PipeWriter) Close() error {
	if w.closed.Swap(true) {
		return ErrPipeClosed
	}
	return unix.Close(w.fd)
}

// Drain blocks until at least one wake byte is pending, then consumes
// everything pending and returns the count.
func (r *PipeReader) Drain() (int, error) {
	for {
		if r.closed.Load() {
			return 0, ErrPipeClosed
		}
		pfd := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, err
		}
		if pfd[0].Revents&unix.POLLIN == 0 {
			// Writer closed with nothing pending.
			return 0, ErrPipeClosed
		}
		n, err := r.consume()
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// Poll consumes pending wake bytes without blocking; 0 means none were
// pending.
func (r *PipeReader) Poll() (int, error) {
	if r.closed.Load() {
		return 0, ErrPipeClosed
	}
	return r.consume()
}

// Fd exposes the reader descriptor for external poll/select loops.
func (r *PipeReader) Fd() int {
	return r.fd
}

// Close closes the reader descriptor.
func (r *PipeReader) Close() error {
	if r.closed.Swap(true) {
		return ErrPipeClosed
	}
	return unix.Close(r.fd)
}

func (r *PipeReader) consume() (int, error) {
	total := 0
	var buf [128]byte
	for {
		n, err := unix.Read(r.fd, buf[:])
		if n > 0 {
			total += n
		}
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return total, nil
		case err != nil:
			return total, err
		case n == 0:
			// EOF: writer end closed.
			if total == 0 {
				return 0, ErrPipeClosed
			}
			return total, nil
		case n < len(buf):
			return total, nil
		}
	}
}
