package codec

// Chain is the narrow slice of filter-chain plumbing the codec filter
// needs from its embedding runtime: the ability to ask whether this
// exact filter instance is already wired into a chain, guarding against
// a duplicate add. Everything else about dispatching events between
// filters is out of scope for this package.
type Chain interface {
	Contains(filter *Filter) bool
}

// Registered is the distinguished WriteRequest sentinel signalling that a
// session has just been (re)registered on a worker. Compare
// by identity: `request == codec.Registered`.
var Registered WriteRequest = &registeredSentinel{}

type registeredSentinel struct{}

func (*registeredSentinel) Message() any        { return nil }
func (*registeredSentinel) SetMessage(any)      {}
func (*registeredSentinel) Future() WriteFuture { return nil }

// FilterOption configures a Filter at construction time.
type FilterOption func(*Filter)

// WithLogger overrides the Filter's logger. The default is slog.Default().
func WithLogger(logger Logger) FilterOption {
	return func(f *Filter) { f.logger = logger }
}

// Filter is the event handler wired into a session's filter chain. It
// dispatches lifecycle, inbound and outbound events, orchestrating the
// decode loop (MessageReceived) and encode-then-forward (FilterWrite).
//
// A single Filter instance may be wired into many sessions' chains
// (each session gets its own encoder/decoder/DecoderOutput/
// EncoderOutput, keyed under session attributes unique to this
// instance), but must never be wired twice into the same chain.
type Filter struct {
	factory CodecFactory
	logger  Logger
}

// NewFilter builds a Filter around factory. factory must not be nil.
func NewFilter(factory CodecFactory, opts ...FilterOption) (*Filter, error) {
	if factory == nil {
		return nil, NewIllegalUsageError("factory must not be nil", nil)
	}

	f := &Filter{factory: factory, logger: defaultLogger()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

type attrKey struct {
	filter *Filter
	slot   string
}

func (f *Filter) encoderKey() attrKey       { return attrKey{f, "encoder"} }
func (f *Filter) decoderKey() attrKey       { return attrKey{f, "decoder"} }
func (f *Filter) decoderOutputKey() attrKey { return attrKey{f, "decoderOut"} }
func (f *Filter) encoderOutputKey() attrKey { return attrKey{f, "encoderOut"} }

// OnAdd resolves and stashes a fresh (encoder, decoder) pair for the
// session, under attribute keys unique to this Filter instance so
// multiple codec filters can coexist on one chain. Fails with
// IllegalUsageError if this exact instance is already in chain.
func (f *Filter) OnAdd(chain Chain, session Session) error {
	if chain.Contains(f) {
		return NewIllegalUsageError("this CodecFilter instance is already present in the chain; create another instance", nil)
	}

	encoder, err := f.factory.Encoder(session)
	if err != nil {
		return err
	}
	decoder, err := f.factory.Decoder(session)
	if err != nil {
		return err
	}

	session.SetAttribute(f.encoderKey(), encoder)
	session.SetAttribute(f.decoderKey(), decoder)
	return nil
}

// OnRemove disposes the encoder, decoder and DecoderOutput bound to
// session. EncoderOutput is not explicitly removed here — it is released
// along with the rest of the session's attributes when the session
// itself is torn down. Each dispose call is isolated: a
// failure is logged and does not stop the rest of the teardown.
func (f *Filter) OnRemove(session Session) {
	f.disposeEncoder(session)
	f.disposeDecoder(session)
	session.RemoveAttribute(f.decoderOutputKey())
}

func (f *Filter) disposeEncoder(session Session) {
	v := session.GetAttribute(f.encoderKey())
	session.RemoveAttribute(f.encoderKey())
	encoder, ok := v.(Encoder)
	if !ok || encoder == nil {
		return
	}
	f.safeDispose(session, "encoder", encoder.Dispose)
}

func (f *Filter) disposeDecoder(session Session) {
	v := session.GetAttribute(f.decoderKey())
	session.RemoveAttribute(f.decoderKey())
	decoder, ok := v.(Decoder)
	if !ok || decoder == nil {
		return
	}
	f.safeDispose(session, "decoder", decoder.Dispose)
}

func (f *Filter) safeDispose(session Session, what string, dispose func(Session) error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("codec: dispose panicked", "component", what, "session", session.ID(), "recover", r)
		}
	}()

	if err := dispose(session); err != nil {
		f.logger.Warn("codec: dispose failed", "component", what, "session", session.ID(), "error", err)
	}
}

func (f *Filter) getDecoder(session Session) Decoder {
	decoder, _ := session.GetAttribute(f.decoderKey()).(Decoder)
	return decoder
}

func (f *Filter) getEncoder(session Session) Encoder {
	encoder, _ := session.GetAttribute(f.encoderKey()).(Encoder)
	return encoder
}

// getDecoderOutput returns the session's DecoderOutput, lazily creating
// it on first use.
func (f *Filter) getDecoderOutput(session Session) *DecoderOutput {
	key := f.decoderOutputKey()
	if out, ok := session.GetAttribute(key).(*DecoderOutput); ok {
		return out
	}
	out := NewDecoderOutput()
	session.SetAttribute(key, out)
	return out
}

// getEncoderOutput returns the session's EncoderOutput, lazily creating
// it on first use.
func (f *Filter) getEncoderOutput(session Session) *EncoderOutput {
	key := f.encoderOutputKey()
	if out, ok := session.GetAttribute(key).(*EncoderOutput); ok {
		return out
	}
	out := NewEncoderOutput()
	session.SetAttribute(key, out)
	return out
}

// classifyDecodeError turns any error the decoder raised into a value
// that implements DecoderError's hex-dump accessors, preserving whether
// it is recoverable.
func classifyDecodeError(err error) interface {
	error
	Hexdump() string
	SetHexdump(string)
} {
	if re, ok := err.(*RecoverableDecoderError); ok {
		return re
	}
	return NewDecoderError(err)
}

// MessageReceived drives the decode loop. If message is not a
// ByteBuffer it is forwarded unchanged and the decoder is never
// invoked. Otherwise the loop runs until the buffer is exhausted, the
// session is realigned to a new worker, the decoder returns without
// error but consumes nothing (it needs more data), or the decoder raises
// a non-recoverable (or non-progressing) error.
func (f *Filter) MessageReceived(nextFilter NextFilter, session Session, message any) {
	in, ok := message.(ByteBuffer)
	if !ok {
		nextFilter.MessageReceived(session, message)
		return
	}

	decoder := f.getDecoder(session)
	decoderOut := f.getDecoderOutput(session)
	ioToken := session.WorkerToken()

	for in.HasRemaining() {
		if session.WorkerToken() != ioToken {
			f.logger.Debug("codec: session realigned mid-decode, yielding to new worker", "session", session.ID())
			break
		}

		oldPos := in.Position()
		err := f.decodeOnce(decoder, session, in, decoderOut, nextFilter)
		if err == nil {
			if in.Position() == oldPos {
				// Decoder needs more bytes than this buffer holds; stop and
				// let the caller resume once more data has arrived.
				break
			}
			continue
		}

		classified := classifyDecodeError(err)
		if classified.Hexdump() == "" {
			curPos := in.Position()
			in.SetPosition(oldPos)
			classified.SetHexdump(in.HexDump())
			in.SetPosition(curPos)
		}

		decoderOut.Lock()
		decoderOut.Flush(nextFilter, session)
		decoderOut.Unlock()

		nextFilter.ExceptionCaught(session, classified)

		_, recoverable := classified.(*RecoverableDecoderError)
		if !recoverable || in.Position() == oldPos {
			break
		}
	}
}

func (f *Filter) decodeOnce(decoder Decoder, session Session, in ByteBuffer, decoderOut *DecoderOutput, nextFilter NextFilter) error {
	decoderOut.Lock()
	defer decoderOut.Unlock()

	if err := decoder.Decode(session, in, decoderOut); err != nil {
		return err
	}
	decoderOut.Flush(nextFilter, session)
	return nil
}

// MessageSent drains any DecoderOutput messages parked while the
// session had no registered worker, when request is the Registered
// sentinel, then always forwards the event.
func (f *Filter) MessageSent(nextFilter NextFilter, session Session, request WriteRequest) {
	if request == Registered {
		decoderOut := f.getDecoderOutput(session)
		decoderOut.Lock()
		decoderOut.Flush(nextFilter, session)
		decoderOut.Unlock()
	}

	nextFilter.MessageSent(session, request)
}

// FilterWrite encodes request's message and forwards it downstream with
// the original completion future attached. Pre-encoded
// messages (a ByteBuffer or FileRegion) bypass the encoder entirely.
func (f *Filter) FilterWrite(nextFilter NextFilter, session Session, request WriteRequest) error {
	message := request.Message()

	switch message.(type) {
	case ByteBuffer, FileRegion:
		nextFilter.FilterWrite(session, request)
		return nil
	}

	encoder := f.getEncoder(session)
	encoderOut := f.getEncoderOutput(session)

	if err := encoder.Encode(session, message, encoderOut); err != nil {
		return NewEncoderError(err)
	}

	if encoderOut.flushWithFuture(request) {
		nextFilter.FilterWrite(session, request)
	}
	return nil
}

// SessionClosed lets the decoder emit a terminal message via
// FinishDecode, then unconditionally disposes codec state and flushes
// whatever FinishDecode produced, before forwarding the event. Order
// matters: FinishDecode must see live decoder state, and the final
// flush must run after disposal so it drains messages FinishDecode
// just produced. If FinishDecode fails, teardown and the final flush
// still run, the DecoderError is returned, and the event is not
// forwarded.
func (f *Filter) SessionClosed(nextFilter NextFilter, session Session) error {
	decoder := f.getDecoder(session)
	decoderOut := f.getDecoderOutput(session)

	var finishErr error
	if decoder != nil {
		if err := decoder.FinishDecode(session, decoderOut); err != nil {
			finishErr = NewDecoderError(err)
		}
	}

	f.OnRemove(session)
	decoderOut.Flush(nextFilter, session)

	if finishErr != nil {
		return finishErr
	}

	nextFilter.SessionClosed(session)
	return nil
}
