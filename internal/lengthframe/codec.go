// Package lengthframe is the demo wire codec cmd/codecfilterd runs the
// core codec.Filter over: a two-byte big-endian length prefix followed
// by that many bytes of payload. It is written directly against this
// module's Decoder/Encoder interfaces, in the style of
// ozontech-framer's MarshalAppend/Unmarshal codec shape.
package lengthframe

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/protofilter/codec"
)

// MaxFrameLength bounds a single frame's payload, guarding against a
// corrupt length prefix requesting an unbounded allocation. It is below
// the largest length the two-byte prefix can carry, so a 0xffff prefix
// is rejected and Encode never writes a truncated length.
const MaxFrameLength = 1 << 15

var errFrameTooLarge = errors.New("lengthframe: frame exceeds MaxFrameLength")

// Message is the decoded unit this codec produces and consumes.
type Message struct {
	Body []byte
}

// Decoder decodes the length-prefixed framing described above. It holds
// no cross-call state: every call either finds a complete frame at the
// buffer's current position or leaves the buffer untouched for the next
// read to extend.
type Decoder struct{}

// NewDecoder returns a fresh Decoder for one session, matching the
// signature codec.NewCodecFilterFactory expects.
func NewDecoder() codec.Decoder { return &Decoder{} }

func (d *Decoder) Decode(_ codec.Session, in codec.ByteBuffer, out *codec.DecoderOutput) error {
	buf, ok := in.(*codec.Buffer)
	if !ok {
		return errors.New("lengthframe: decoder requires a *codec.Buffer")
	}

	remaining := buf.Remaining()
	if len(remaining) < 2 {
		return nil // not enough data for even the length prefix yet
	}

	length := int(binary.BigEndian.Uint16(remaining[:2]))
	if length > MaxFrameLength {
		return errFrameTooLarge
	}
	if len(remaining) < 2+length {
		return nil // frame not fully arrived yet
	}

	body := append([]byte(nil), remaining[2:2+length]...)
	buf.Advance(2 + length)
	out.Write(&Message{Body: body})
	return nil
}

func (d *Decoder) FinishDecode(codec.Session, *codec.DecoderOutput) error { return nil }
func (d *Decoder) Dispose(codec.Session) error                            { return nil }

// Encoder encodes a *Message (or a raw []byte, treated as the frame
// body) into the same length-prefixed wire format.
type Encoder struct{}

// NewEncoder returns a fresh Encoder, matching the signature
// codec.NewCodecFilterFactory expects.
func NewEncoder() codec.Encoder { return &Encoder{} }

func (e *Encoder) Encode(_ codec.Session, message any, out *codec.EncoderOutput) error {
	var body []byte
	switch m := message.(type) {
	case *Message:
		body = m.Body
	case []byte:
		body = m
	default:
		return errors.Errorf("lengthframe: cannot encode %T", message)
	}
	if len(body) > MaxFrameLength {
		return errFrameTooLarge
	}

	frame := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(frame, uint16(len(body)))
	copy(frame[2:], body)

	return out.Write(frame)
}

func (e *Encoder) Dispose(codec.Session) error { return nil }

var (
	_ codec.Decoder = (*Decoder)(nil)
	_ codec.Encoder = (*Encoder)(nil)
)
