package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecoderError is raised from the decode loop or FinishDecode. It carries
// a hex dump of the input region that produced it, auto-populated by the
// decode loop if the decoder didn't set one itself.
type DecoderError struct {
	cause   error
	hexdump string
}

// NewDecoderError wraps cause, unless cause is already a DecoderError,
// in which case it is returned unchanged: a decode failure should never
// get wrapped twice as it propagates.
func NewDecoderError(cause error) *DecoderError {
	if de, ok := cause.(*DecoderError); ok {
		return de
	}
	return &DecoderError{cause: errors.Wrap(cause, "decode failed")}
}

func (e *DecoderError) Error() string {
	if e.hexdump != "" {
		return fmt.Sprintf("%v\nhexdump:\n%s", e.cause, e.hexdump)
	}
	return e.cause.Error()
}

func (e *DecoderError) Unwrap() error { return e.cause }

// Hexdump returns the hex dump attached to this error, or "" if none has
// been set yet.
func (e *DecoderError) Hexdump() string { return e.hexdump }

// SetHexdump attaches a hex dump if one is not already present. Calling
// it a second time is a no-op.
func (e *DecoderError) SetHexdump(dump string) {
	if e.hexdump == "" {
		e.hexdump = dump
	}
}

// RecoverableDecoderError is a DecoderError the decoder asserts it can
// resume from, provided the input buffer's position advanced during
// the call that raised it.
type RecoverableDecoderError struct {
	DecoderError
}

// NewRecoverableDecoderError wraps cause as a resumable decode failure.
func NewRecoverableDecoderError(cause error) *RecoverableDecoderError {
	if re, ok := cause.(*RecoverableDecoderError); ok {
		return re
	}
	return &RecoverableDecoderError{DecoderError{cause: errors.Wrap(cause, "recoverable decode failure")}}
}

// EncoderError is raised from Encoder.Encode. Foreign errors are wrapped
// exactly once, the same as DecoderError.
type EncoderError struct {
	cause error
}

// NewEncoderError wraps cause, unless it is already an EncoderError.
func NewEncoderError(cause error) *EncoderError {
	if ee, ok := cause.(*EncoderError); ok {
		return ee
	}
	return &EncoderError{cause: errors.Wrap(cause, "encode failed")}
}

func (e *EncoderError) Error() string { return e.cause.Error() }
func (e *EncoderError) Unwrap() error { return e.cause }

// IllegalUsageError signals a programming error: duplicate filter-instance
// add, a second EncoderOutput.Write within one Encode call, nil codec
// components at construction, or an unsupported EncoderOutput.Flush call.
type IllegalUsageError struct {
	message string
	cause   error
}

// NewIllegalUsageError builds an IllegalUsageError. cause may be nil.
func NewIllegalUsageError(message string, cause error) *IllegalUsageError {
	return &IllegalUsageError{message: message, cause: cause}
}

func (e *IllegalUsageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("illegal usage: %s: %v", e.message, e.cause)
	}
	return "illegal usage: " + e.message
}

func (e *IllegalUsageError) Unwrap() error { return e.cause }
