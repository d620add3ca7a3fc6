// Package transport is the concrete Session/Chain runtime the codec
// filter runs over: a small TCP session type with an attribute map and
// a reassignable worker token, playing the role an embedding runtime's
// session object and filter-chain plumbing play as external
// collaborators of the filter. The read/write loop pairs
// net.TCPConn with golang.org/x/sync/errgroup, and session identity
// uses github.com/google/uuid.
package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/protofilter/codec"
)

// ErrFrameTooLarge is returned by the read pump when a decoder leaves
// more than maxFrame bytes unconsumed waiting for a message to
// complete — either the peer sent a malformed frame or maxFrame is set
// too low for the traffic this session carries.
var ErrFrameTooLarge = errors.New("transport: pending frame exceeds max frame length")

// Session is a TCP connection wrapped with the attribute map and
// worker-token bookkeeping codec.Session requires. Only one goroutine —
// the current "worker" — drives its read loop at a time; Realign
// simulates the runtime reassigning the session to a different worker,
// which bumps the token the codec filter's decode loop checkpoints on.
type Session struct {
	id   string
	conn *net.TCPConn

	attrs sync.Map

	workerToken atomic.Uint64
	registered  atomic.Bool
	connected   atomic.Bool

	outbox chan outboundFrame
}

// outboundFrame pairs an already-encoded payload with the future that
// must be completed once it actually reaches the wire.
type outboundFrame struct {
	payload []byte
	future  *WriteFuture
}

// NewSession wraps conn. The session starts unregistered; call Register
// once its owning worker goroutine is running.
func NewSession(conn *net.TCPConn) *Session {
	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		outbox: make(chan outboundFrame, 64),
	}
	s.connected.Store(true)
	return s
}

func (s *Session) ID() string               { return s.id }
func (s *Session) IsConnected() bool        { return s.connected.Load() }
func (s *Session) WorkerToken() uint64      { return s.workerToken.Load() }
func (s *Session) IsWorkerRegistered() bool { return s.registered.Load() }

func (s *Session) GetAttribute(key any) any {
	v, _ := s.attrs.Load(key)
	return v
}

func (s *Session) SetAttribute(key any, value any) { s.attrs.Store(key, value) }
func (s *Session) RemoveAttribute(key any)         { s.attrs.Delete(key) }

// Register marks the session as having a worker actively draining its
// I/O, unblocking DecoderOutput.Flush.
func (s *Session) Register() { s.registered.Store(true) }

// Deregister marks the session as having no worker draining its I/O.
func (s *Session) Deregister() { s.registered.Store(false) }

// Realign simulates the embedding runtime reassigning this session to a
// new worker goroutine, bumping WorkerToken so an in-flight decode loop
// or DecoderOutput.Flush yields at its next checkpoint.
func (s *Session) Realign() { s.workerToken.Add(1) }

var _ codec.Session = (*Session)(nil)

// Write enqueues message for the outbound path and returns a future
// that completes once the write reaches the wire.
func (s *Session) Write(chain *Chain, message any) codec.WriteFuture {
	req := NewWriteRequest(message)
	if err := chain.FilterWrite(s, req); err != nil {
		req.future.fail(err)
	}
	return req.future
}

// Run pairs the session's read pump (bytes off the wire, through
// chain.MessageReceived) with its write pump (encoded frames drained
// from outbox and written to the socket) under a single errgroup. Run
// blocks until ctx is canceled or either pump errors, then closes the
// session.
func (s *Session) Run(ctx context.Context, chain *Chain, maxFrame int) error {
	s.Register()
	defer s.Deregister()

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.readLoop(child, chain, maxFrame)
	})
	group.Go(func() error {
		return s.writeLoop(child)
	})

	err := group.Wait()
	s.close(chain)
	return err
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-s.outbox:
			if _, err := s.conn.Write(frame.payload); err != nil {
				frame.future.fail(err)
				return err
			}
			frame.future.SetWritten()
		}
	}
}

// enqueueWrite hands an already-encoded payload to the write pump. It is
// called by the chain's terminal NextFilter.FilterWrite, i.e. only after
// codec.Filter has already run the message through the encoder (or
// passed it through unchanged for a pre-encoded ByteBuffer/FileRegion).
func (s *Session) enqueueWrite(payload []byte, future *WriteFuture) {
	select {
	case s.outbox <- outboundFrame{payload: payload, future: future}:
	default:
		future.fail(ErrOutboxFull)
	}
}

// readLoop reads off the wire and drives the chain's decode path. Bytes
// a decoder leaves unconsumed at the end of a MessageReceived call —
// because a full message hasn't arrived yet — are carried over into
// pending and prefixed onto the next read, so framing never desyncs
// across TCP reads.
func (s *Session) readLoop(ctx context.Context, chain *Chain, maxFrame int) error {
	reader := bufio.NewReaderSize(s.conn, maxFrame)
	buf := make([]byte, maxFrame)
	pending := make([]byte, 0, maxFrame)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := reader.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		pending = append(pending, buf[:n]...)
		if len(pending) > maxFrame {
			return ErrFrameTooLarge
		}

		in := codec.NewBuffer(pending)
		chain.MessageReceived(s, in)

		consumed := in.Position()
		remaining := copy(pending, pending[consumed:])
		pending = pending[:remaining]
	}
}

func (s *Session) close(chain *Chain) {
	if !s.connected.CompareAndSwap(true, false) {
		return
	}
	_ = chain.SessionClosed(s)
	_ = s.conn.Close()
}
