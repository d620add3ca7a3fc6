package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protofilter/codec"
	"github.com/protofilter/codec/internal/lengthframe"
)

// createTestTCPPair mirrors the loopback dial-and-accept pattern used
// throughout the transport package's test suite.
func createTestTCPPair(t *testing.T) (server, client *net.TCPConn) {
	t.Helper()

	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer listener.Close()

	clientChan := make(chan *net.TCPConn, 1)
	errChan := make(chan error, 1)
	go func() {
		conn, err := net.DialTCP("tcp", nil, listener.Addr().(*net.TCPAddr))
		if err != nil {
			errChan <- err
			return
		}
		clientChan <- conn
	}()

	serverConn, err := listener.AcceptTCP()
	require.NoError(t, err)

	select {
	case clientConn := <-clientChan:
		return serverConn, clientConn
	case err := <-errChan:
		serverConn.Close()
		t.Fatalf("client dial failed: %v", err)
		return nil, nil
	case <-time.After(5 * time.Second):
		serverConn.Close()
		t.Fatal("timeout waiting for client connection")
		return nil, nil
	}
}

func TestSession_IdentityAndAttributes(t *testing.T) {
	server, client := createTestTCPPair(t)
	defer client.Close()
	defer server.Close()

	s := NewSession(server)

	assert.NotEmpty(t, s.ID())
	assert.True(t, s.IsConnected())
	assert.False(t, s.IsWorkerRegistered())
	assert.Equal(t, uint64(0), s.WorkerToken())

	s.Register()
	assert.True(t, s.IsWorkerRegistered())
	s.Deregister()
	assert.False(t, s.IsWorkerRegistered())

	s.Realign()
	s.Realign()
	assert.Equal(t, uint64(2), s.WorkerToken())

	s.SetAttribute("key", 42)
	assert.Equal(t, 42, s.GetAttribute("key"))
	s.RemoveAttribute("key")
	assert.Nil(t, s.GetAttribute("key"))

	var _ codec.Session = s
}

type recordingSink struct {
	messages chan any
	closed   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{messages: make(chan any, 8), closed: make(chan struct{})}
}

func (s *recordingSink) OnMessage(_ *Session, message any) { s.messages <- message }
func (s *recordingSink) OnException(*Session, error)       {}
func (s *recordingSink) OnClose(*Session)                  { close(s.closed) }

func newLengthFrameChain(t *testing.T, sink Sink) *Chain {
	t.Helper()
	factory, err := codec.NewCodecFilterFactory(lengthframe.NewEncoder, lengthframe.NewDecoder)
	require.NoError(t, err)
	filter, err := codec.NewFilter(factory)
	require.NoError(t, err)
	return NewChain(filter, sink)
}

func TestSession_Run_DecodesInboundFrames(t *testing.T) {
	server, client := createTestTCPPair(t)
	defer client.Close()

	sink := newRecordingSink()
	session := NewSession(server)
	chain := newLengthFrameChain(t, sink)
	require.NoError(t, chain.Attach(session))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- session.Run(ctx, chain, 1<<16) }()

	frame := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	_, err := client.Write(frame)
	require.NoError(t, err)

	select {
	case msg := <-sink.messages:
		decoded, ok := msg.(*lengthframe.Message)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), decoded.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the decoded frame")
	}

	client.Close()
	cancel()
	<-runErr
}

// TestSession_Run_DecodesFrameSplitAcrossTwoReads writes a single frame
// across two separate TCP writes with a pause in between, forcing the
// read pump to see the length prefix (and part of the body) with the
// rest of the frame still unarrived. The decode loop must yield control
// back to readLoop without spinning, and readLoop must carry the
// unconsumed prefix bytes over into the next read instead of dropping
// them, so the frame still decodes correctly once the rest arrives.
func TestSession_Run_DecodesFrameSplitAcrossTwoReads(t *testing.T) {
	server, client := createTestTCPPair(t)
	defer client.Close()

	sink := newRecordingSink()
	session := NewSession(server)
	chain := newLengthFrameChain(t, sink)
	require.NoError(t, chain.Attach(session))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- session.Run(ctx, chain, 1<<16) }()

	frame := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}

	_, err := client.Write(frame[:3]) // length prefix plus one body byte
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond) // give the read pump a chance to see the partial frame

	_, err = client.Write(frame[3:]) // remainder of the body
	require.NoError(t, err)

	select {
	case msg := <-sink.messages:
		decoded, ok := msg.(*lengthframe.Message)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), decoded.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the decoded frame; framing likely desynced across reads")
	}

	client.Close()
	cancel()
	<-runErr
}

func TestSession_Write_EncodesOutboundFrame(t *testing.T) {
	server, client := createTestTCPPair(t)
	defer client.Close()

	sink := newRecordingSink()
	session := NewSession(server)
	chain := newLengthFrameChain(t, sink)
	require.NoError(t, chain.Attach(session))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx, chain, 1<<16)

	future := session.Write(chain, &lengthframe.Message{Body: []byte("world")})
	future.AwaitUninterruptibly()
	assert.True(t, future.IsWritten())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	header := make([]byte, 2)
	_, err := readFull(client, header)
	require.NoError(t, err)

	length := int(header[0])<<8 | int(header[1])
	body := make([]byte, length)
	_, err = readFull(client, body)
	require.NoError(t, err)
	assert.Equal(t, "world", string(body))
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
