package codec

// Session is the per-connection context the filter chain hands to every
// event. Implementations are owned by the embedding transport, never by
// this package.
type Session interface {
	// ID returns a string identifying the session, used only for logging.
	ID() string

	// IsConnected reports whether the underlying transport is still open.
	IsConnected() bool

	// WorkerToken identifies the worker currently responsible for this
	// session's events. The token changes when the runtime reassigns the
	// session to a different worker (see the decode-loop realignment
	// checkpoint in Filter.MessageReceived). It never changes mid-event
	// on the goroutine that owns it; only a concurrent reassignment from
	// outside the current event dispatch bumps it.
	WorkerToken() uint64

	// IsWorkerRegistered reports whether the session currently has a
	// worker registered to drain its I/O. DecoderOutput.Flush is a no-op
	// while this is false.
	IsWorkerRegistered() bool

	// GetAttribute, SetAttribute and RemoveAttribute back the
	// per-filter encoder/decoder/decoderOutput/encoderOutput bindings,
	// keyed uniquely per CodecFilter instance so multiple filters can
	// coexist on one chain.
	GetAttribute(key any) any
	SetAttribute(key any, value any)
	RemoveAttribute(key any)
}

// NextFilter is this filter's view of the next handler in the chain.
type NextFilter interface {
	MessageReceived(session Session, message any)
	MessageSent(session Session, request WriteRequest)
	FilterWrite(session Session, request WriteRequest)
	ExceptionCaught(session Session, err error)
	SessionClosed(session Session)
}

// WriteFuture is a one-shot signal of whether a write completed.
type WriteFuture interface {
	SetWritten()
	AwaitUninterruptibly()
	IsWritten() bool
}

// WriteRequest bundles an outbound message with its completion future.
// The message field is mutated in place by the encoder path: it starts
// out holding the raw application message and is overwritten with the
// encoded payload before being forwarded downstream.
type WriteRequest interface {
	Message() any
	SetMessage(message any)
	Future() WriteFuture
}

// ByteBuffer is the inbound buffer view the decode loop advances. Its
// lifetime is the duration of one MessageReceived dispatch; the filter
// never retains it across events.
type ByteBuffer interface {
	Position() int
	SetPosition(pos int)
	Limit() int
	HasRemaining() bool
	// HexDump renders the buffer's remaining bytes for diagnostics. It
	// must not move Position.
	HexDump() string
}

// FileRegion is a sentinel type for outbound messages that are already
// raw file-backed payloads and therefore bypass the encoder, exactly like
// a pre-encoded ByteBuffer.
type FileRegion interface {
	IsFileRegion()
}

// Decoder is a per-session, stateful protocol decoder.
type Decoder interface {
	// Decode consumes some prefix of in and writes zero or more decoded
	// messages to out. It may consume less than all of in's remaining
	// bytes if a full message is not yet available.
	Decode(session Session, in ByteBuffer, out *DecoderOutput) error
	// FinishDecode is called once, at session close, to let the decoder
	// emit any message it was buffering awaiting more input.
	FinishDecode(session Session, out *DecoderOutput) error
	// Dispose releases decoder resources. Errors are logged, never
	// propagated.
	Dispose(session Session) error
}

// Encoder is a per-session, stateful protocol encoder.
type Encoder interface {
	// Encode writes at most one payload to out via out.Write.
	Encode(session Session, message any, out *EncoderOutput) error
	// Dispose releases encoder resources. Errors are logged, never
	// propagated.
	Dispose(session Session) error
}

// CodecFactory resolves the (encoder, decoder) pair to use for a given
// session. See NewFixedCodecFactory and NewCodecFilterFactory for the
// two constructor-driven modes; a CodecFactory can also be implemented
// directly for the fully custom, externally-supplied mode.
type CodecFactory interface {
	Encoder(session Session) (Encoder, error)
	Decoder(session Session) (Decoder, error)
}
