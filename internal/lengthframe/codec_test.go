package lengthframe

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protofilter/codec"
)

func TestDecoder_WaitsForCompleteFrame(t *testing.T) {
	decoder := &Decoder{}
	out := codec.NewDecoderOutput()

	// Only the length prefix has arrived, no body yet.
	buf := codec.NewBuffer([]byte{0x00, 0x05})
	require.NoError(t, decoder.Decode(nil, buf, out))
	assert.Equal(t, 0, buf.Position())
}

func TestDecoder_DecodesAFullFrame(t *testing.T) {
	decoder := &Decoder{}
	out := codec.NewDecoderOutput()

	buf := codec.NewBuffer([]byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o', 0x00})
	require.NoError(t, decoder.Decode(nil, buf, out))

	assert.Equal(t, 7, buf.Position())

	var got *Message
	out.Flush(recordFirstFilter{&got}, dummySession{})
	require.NotNil(t, got)
	assert.Equal(t, []byte("hello"), got.Body)
}

func TestDecoder_RejectsOversizedFrame(t *testing.T) {
	decoder := &Decoder{}
	out := codec.NewDecoderOutput()

	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, 0xffff)
	buf := codec.NewBuffer(append(header, make([]byte, 4)...))

	err := decoder.Decode(nil, buf, out)
	assert.Error(t, err)
}

func TestEncoder_EncodesMessageAndRawBytes(t *testing.T) {
	encoder := &Encoder{}

	out := codec.NewEncoderOutput()
	require.NoError(t, encoder.Encode(nil, &Message{Body: []byte("hi")}, out))

	out2 := codec.NewEncoderOutput()
	require.NoError(t, encoder.Encode(nil, []byte("hi"), out2))
}

func TestEncoder_RejectsUnknownMessageType(t *testing.T) {
	encoder := &Encoder{}
	out := codec.NewEncoderOutput()

	err := encoder.Encode(nil, 42, out)
	assert.Error(t, err)
}

// recordFirstFilter captures the first decoded message flushed through
// it, standing in for a real codec.NextFilter in a unit test that only
// cares about the decoder's output.
type recordFirstFilter struct {
	dst **Message
}

func (r recordFirstFilter) MessageReceived(_ codec.Session, message any) {
	if *r.dst == nil {
		*r.dst, _ = message.(*Message)
	}
}
func (recordFirstFilter) MessageSent(codec.Session, codec.WriteRequest) {}
func (recordFirstFilter) FilterWrite(codec.Session, codec.WriteRequest) {}
func (recordFirstFilter) ExceptionCaught(codec.Session, error)          {}
func (recordFirstFilter) SessionClosed(codec.Session)                   {}

var _ codec.NextFilter = recordFirstFilter{}

// dummySession is a minimal always-registered codec.Session for
// decoder/encoder unit tests that never touch session state.
type dummySession struct{}

func (dummySession) ID() string               { return "dummy" }
func (dummySession) IsConnected() bool        { return true }
func (dummySession) WorkerToken() uint64      { return 0 }
func (dummySession) IsWorkerRegistered() bool { return true }
func (dummySession) GetAttribute(any) any     { return nil }
func (dummySession) SetAttribute(any, any)    {}
func (dummySession) RemoveAttribute(any)      {}

var _ codec.Session = dummySession{}
