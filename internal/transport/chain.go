package transport

import (
	"log/slog"

	"github.com/protofilter/codec"
)

// Chain wires exactly one codec.Filter in front of a terminal sink,
// satisfying codec.Chain (for the duplicate-add guard) and providing
// the filter's own view of "downstream" via nextFilterAdapter. It is
// minimal filter-chain plumbing, kept just complete enough to run the
// filter end to end.
type Chain struct {
	filter   *codec.Filter
	sink     Sink
	attached bool
}

// Sink is the terminal handler past the codec filter: decoded
// application messages arrive at OnMessage, codec exceptions at
// OnException and session close at OnClose. Encoded outbound payloads
// do not pass through the Sink; they go straight to the session's write
// pump.
type Sink interface {
	OnMessage(session *Session, message any)
	OnException(session *Session, err error)
	OnClose(session *Session)
}

// NewChain builds a Chain around filter and sink.
func NewChain(filter *codec.Filter, sink Sink) *Chain {
	return &Chain{filter: filter, sink: sink}
}

// Contains satisfies codec.Chain: it reports true only for this chain's
// own filter, and only once an Attach call has succeeded.
func (c *Chain) Contains(filter *codec.Filter) bool { return c.attached && c.filter == filter }

// Attach runs the filter's OnAdd against session, using this chain for
// the duplicate-instance check: the first Attach succeeds, any later one
// fails with an IllegalUsageError.
func (c *Chain) Attach(session *Session) error {
	if err := c.filter.OnAdd(c, session); err != nil {
		return err
	}
	c.attached = true
	return nil
}

// MessageReceived drives the codec filter's decode loop for one network
// read.
func (c *Chain) MessageReceived(session *Session, message any) {
	c.filter.MessageReceived(nextFilterAdapter{c}, session, message)
}

// MessageSent notifies the codec filter of a completed write, draining
// any parked decoded messages when request is codec.Registered.
func (c *Chain) MessageSent(session *Session, request codec.WriteRequest) {
	c.filter.MessageSent(nextFilterAdapter{c}, session, request)
}

// FilterWrite runs an outbound message through the codec filter's
// encode-then-forward path.
func (c *Chain) FilterWrite(session *Session, request codec.WriteRequest) error {
	return c.filter.FilterWrite(nextFilterAdapter{c}, session, request)
}

// SessionClosed runs the codec filter's teardown path.
func (c *Chain) SessionClosed(session *Session) error {
	return c.filter.SessionClosed(nextFilterAdapter{c}, session)
}

// --- codec.NextFilter, implemented by delegating to the terminal sink ---

func (c *Chain) messageReceivedDownstream(session codec.Session, message any) {
	c.sink.OnMessage(session.(*Session), message)
}

func (c *Chain) messageSentDownstream(codec.Session, codec.WriteRequest) {
	// No further chain stage after the terminal sink; nothing to do.
}

func (c *Chain) filterWriteDownstream(session codec.Session, request codec.WriteRequest) {
	ts, ok := session.(*Session)
	if !ok {
		return
	}
	payload, ok := request.Message().([]byte)
	if !ok {
		c.sink.OnException(ts, codec.NewIllegalUsageError("encoded message is not a []byte payload", nil))
		return
	}
	wf, ok := request.Future().(*WriteFuture)
	if !ok {
		wf = NewWriteFuture()
	}
	ts.enqueueWrite(payload, wf)
}

func (c *Chain) exceptionCaughtDownstream(session codec.Session, err error) {
	ts, ok := session.(*Session)
	if !ok {
		slog.Error("codec: exception on unknown session type", "error", err)
		return
	}
	c.sink.OnException(ts, err)
}

func (c *Chain) sessionClosedDownstream(session codec.Session) {
	ts, ok := session.(*Session)
	if !ok {
		return
	}
	c.sink.OnClose(ts)
}

// nextFilterAdapter satisfies codec.NextFilter by delegating each event
// to a Chain method. Chain does not implement codec.NextFilter directly
// because its exported methods (MessageReceived etc.) take *Session, not
// codec.Session, and mean "run the filter", not "this is downstream of
// the filter" — the two roles need distinct signatures.
type nextFilterAdapter struct{ chain *Chain }

func (a nextFilterAdapter) MessageReceived(session codec.Session, message any) {
	a.chain.messageReceivedDownstream(session, message)
}

func (a nextFilterAdapter) MessageSent(session codec.Session, request codec.WriteRequest) {
	a.chain.messageSentDownstream(session, request)
}

func (a nextFilterAdapter) FilterWrite(session codec.Session, request codec.WriteRequest) {
	a.chain.filterWriteDownstream(session, request)
}

func (a nextFilterAdapter) ExceptionCaught(session codec.Session, err error) {
	a.chain.exceptionCaughtDownstream(session, err)
}

func (a nextFilterAdapter) SessionClosed(session codec.Session) {
	a.chain.sessionClosedDownstream(session)
}

var _ codec.NextFilter = nextFilterAdapter{}
