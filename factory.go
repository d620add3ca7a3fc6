package codec

// fixedCodecFactory returns the same encoder/decoder instances for every
// session. This is the mode to use when the encoder/decoder hold no
// per-session state of their own.
type fixedCodecFactory struct {
	encoder Encoder
	decoder Decoder
}

// NewFixedCodecFactory builds a CodecFactory that hands out the same
// encoder and decoder instance to every session. Fails loudly at
// construction time if either argument is nil.
func NewFixedCodecFactory(encoder Encoder, decoder Decoder) (CodecFactory, error) {
	if encoder == nil {
		return nil, NewIllegalUsageError("encoder must not be nil", nil)
	}
	if decoder == nil {
		return nil, NewIllegalUsageError("decoder must not be nil", nil)
	}
	return &fixedCodecFactory{encoder: encoder, decoder: decoder}, nil
}

func (f *fixedCodecFactory) Encoder(Session) (Encoder, error) { return f.encoder, nil }
func (f *fixedCodecFactory) Decoder(Session) (Decoder, error) { return f.decoder, nil }

// perSessionCodecFactory constructs a fresh encoder and decoder for
// every session via injected constructor closures, standing in for a
// reflective "type identifier with a zero-arg constructor" mode: the
// closures need no reflection and fail the same way on a missing
// constructor.
type perSessionCodecFactory struct {
	newEncoder func() Encoder
	newDecoder func() Decoder
}

// NewCodecFilterFactory builds a CodecFactory that constructs a new
// encoder and decoder per session by calling newEncoder/newDecoder.
// Fails loudly if either constructor is nil.
func NewCodecFilterFactory(newEncoder func() Encoder, newDecoder func() Decoder) (CodecFactory, error) {
	if newEncoder == nil {
		return nil, NewIllegalUsageError("newEncoder constructor must not be nil", nil)
	}
	if newDecoder == nil {
		return nil, NewIllegalUsageError("newDecoder constructor must not be nil", nil)
	}
	return &perSessionCodecFactory{newEncoder: newEncoder, newDecoder: newDecoder}, nil
}

func (f *perSessionCodecFactory) Encoder(Session) (Encoder, error) { return f.newEncoder(), nil }
func (f *perSessionCodecFactory) Decoder(Session) (Decoder, error) { return f.newDecoder(), nil }
