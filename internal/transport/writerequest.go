package transport

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/protofilter/codec"
)

// ErrOutboxFull is returned via a WriteFuture's error when a session's
// bounded outbound queue is full.
var ErrOutboxFull = errors.New("transport: outbox full")

// WriteFuture is a one-shot completion signal for an outbound write,
// satisfying codec.WriteFuture. IsWritten reports the current state
// without blocking; AwaitUninterruptibly blocks until the write settles.
type WriteFuture struct {
	once    sync.Once
	done    chan struct{}
	written atomic.Bool
	err     error
}

// NewWriteFuture returns a pending WriteFuture.
func NewWriteFuture() *WriteFuture {
	return &WriteFuture{done: make(chan struct{})}
}

func (f *WriteFuture) SetWritten() {
	f.once.Do(func() {
		f.written.Store(true)
		close(f.done)
	})
}

func (f *WriteFuture) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *WriteFuture) AwaitUninterruptibly() { <-f.done }

// IsWritten reports whether the write has completed successfully so
// far, without waiting for it to settle.
func (f *WriteFuture) IsWritten() bool { return f.written.Load() }

// Err blocks until the future settles and returns the failure reason,
// if any.
func (f *WriteFuture) Err() error {
	<-f.done
	return f.err
}

var _ codec.WriteFuture = (*WriteFuture)(nil)

// WriteRequest bundles an outbound message with its WriteFuture,
// satisfying codec.WriteRequest. Message starts out holding the raw
// application message and is overwritten in place by the codec filter's
// encoder path.
type WriteRequest struct {
	message any
	future  *WriteFuture
}

// NewWriteRequest wraps message in a fresh WriteRequest.
func NewWriteRequest(message any) *WriteRequest {
	return &WriteRequest{message: message, future: NewWriteFuture()}
}

func (r *WriteRequest) Message() any              { return r.message }
func (r *WriteRequest) SetMessage(message any)    { r.message = message }
func (r *WriteRequest) Future() codec.WriteFuture { return r.future }

var _ codec.WriteRequest = (*WriteRequest)(nil)
