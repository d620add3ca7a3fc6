package codec

// EncoderOutput is the per-session, single-slot sink an Encoder writes
// its one encoded payload into. Write fails loudly if called twice
// within one Encode call: an encoder producing more than one payload
// per logical message is a contract violation.
type EncoderOutput struct {
	message any
	written bool
}

// NewEncoderOutput returns an empty EncoderOutput.
func NewEncoderOutput() *EncoderOutput {
	return &EncoderOutput{}
}

// Write captures the encoded payload. A second call before the slot is
// cleared by flushWithFuture returns an IllegalUsageError.
func (o *EncoderOutput) Write(message any) error {
	if o.written {
		return NewIllegalUsageError("Encode called EncoderOutput.Write more than once", nil)
	}
	o.message = message
	o.written = true
	return nil
}

// Flush is the general-purpose, no-future drain operation. It is
// deliberately unsupported: an explicit failure here beats silently
// succeeding. The only valid drain path is flushWithFuture, invoked
// internally by Filter.FilterWrite.
func (o *EncoderOutput) Flush() error {
	return NewIllegalUsageError("EncoderOutput.Flush is not supported; use the filter's write path", nil)
}

// flushWithFuture atomically reads and clears the slot. If a message was
// captured, it overwrites request's message and returns true so the
// caller forwards request downstream; otherwise it completes request's
// future successfully and returns false.
func (o *EncoderOutput) flushWithFuture(request WriteRequest) bool {
	if !o.written {
		request.Future().SetWritten()
		return false
	}

	message := o.message
	o.message = nil
	o.written = false

	request.SetMessage(message)
	return true
}
