// Package codec implements a protocol codec filter for a session-oriented,
// event-driven filter chain. It sits between raw byte transport and
// application messages: on the inbound path it drives a stateful Decoder
// against an accumulating buffer, emitting decoded messages to the next
// filter; on the outbound path it invokes an Encoder and forwards the
// encoded bytes with the original write's completion future attached.
//
// The filter itself owns no transport, no buffer allocation strategy, and
// no concrete wire format. Those are supplied by the embedding runtime
// (see Session, NextFilter, ByteBuffer, Decoder, Encoder) and, for this
// module's demo binary, by internal/transport and internal/lengthframe.
package codec
