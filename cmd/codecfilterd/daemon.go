package main

import (
	"context"
	"log/slog"

	"github.com/protofilter/codec"
	"github.com/protofilter/codec/internal/lengthframe"
	"github.com/protofilter/codec/internal/transport"
)

// echoHandler builds a fresh codec.Filter and Chain per accepted
// connection and echoes every decoded frame back to its sender.
type echoHandler struct {
	logger   *slog.Logger
	maxFrame int
}

func newEchoHandler(logger *slog.Logger, maxFrame int) *echoHandler {
	return &echoHandler{logger: logger, maxFrame: maxFrame}
}

func (h *echoHandler) Handle(ctx context.Context, session *transport.Session) {
	factory, err := codec.NewCodecFilterFactory(lengthframe.NewEncoder, lengthframe.NewDecoder)
	if err != nil {
		h.logger.Error("codecfilterd: failed to build codec factory", "error", err)
		return
	}

	filter, err := codec.NewFilter(factory, codec.WithLogger(h.logger))
	if err != nil {
		h.logger.Error("codecfilterd: failed to build filter", "error", err)
		return
	}

	sink := &echoSink{logger: h.logger}
	chain := transport.NewChain(filter, sink)
	sink.chain = chain

	if err := chain.Attach(session); err != nil {
		h.logger.Error("codecfilterd: failed to attach filter", "session", session.ID(), "error", err)
		return
	}

	if err := session.Run(ctx, chain, h.maxFrame); err != nil {
		h.logger.Debug("codecfilterd: session ended", "session", session.ID(), "error", err)
	}
}

// echoSink is the terminal transport.Sink for one connection: decoded
// frames are logged and echoed straight back.
type echoSink struct {
	logger *slog.Logger
	chain  *transport.Chain
}

func (s *echoSink) OnMessage(session *transport.Session, message any) {
	msg, ok := message.(*lengthframe.Message)
	if !ok {
		s.logger.Warn("codecfilterd: unexpected decoded message type", "session", session.ID(), "type", message)
		return
	}
	s.logger.Info("codecfilterd: frame received", "session", session.ID(), "bytes", len(msg.Body))
	session.Write(s.chain, msg)
}

func (s *echoSink) OnException(session *transport.Session, err error) {
	s.logger.Warn("codecfilterd: codec exception", "session", session.ID(), "error", err)
}

func (s *echoSink) OnClose(session *transport.Session) {
	s.logger.Info("codecfilterd: session closed", "session", session.ID())
}
