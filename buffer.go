package codec

import (
	"fmt"
	"strings"
)

// Buffer is a position-tracking ByteBuffer over a fixed byte slice:
// Limit is the slice's length, Position tracks how much a decoder has
// consumed, and HexDump renders a diagnostic slice without disturbing
// Position. A Buffer does not grow; callers that accumulate bytes build
// a new Buffer over the larger slice.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps data as a Buffer positioned at the start with its limit
// at len(data).
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Position() int { return b.pos }

func (b *Buffer) SetPosition(pos int) {
	if pos < 0 || pos > len(b.data) {
		panic(fmt.Sprintf("codec: position %d out of range [0,%d]", pos, len(b.data)))
	}
	b.pos = pos
}

func (b *Buffer) Limit() int { return len(b.data) }

func (b *Buffer) HasRemaining() bool { return b.pos < len(b.data) }

// Remaining returns the bytes between Position and Limit without moving
// Position, for use by a Decoder.
func (b *Buffer) Remaining() []byte { return b.data[b.pos:] }

// Advance moves Position forward by n bytes, as a Decoder does after
// consuming n bytes of input.
func (b *Buffer) Advance(n int) { b.SetPosition(b.pos + n) }

// HexDump renders the bytes from Position to Limit as a classic
// hex-and-ASCII dump, sixteen bytes per line. It does not move Position.
func (b *Buffer) HexDump() string {
	return hexDump(b.data[b.pos:])
}

func hexDump(data []byte) string {
	var out strings.Builder
	for offset := 0; offset < len(data); offset += 16 {
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[offset:end]

		fmt.Fprintf(&out, "%08x  ", offset)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&out, "%02x ", line[i])
			} else {
				out.WriteString("   ")
			}
			if i == 7 {
				out.WriteByte(' ')
			}
		}
		out.WriteString(" |")
		for _, c := range line {
			if c >= 0x20 && c < 0x7f {
				out.WriteByte(c)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteString("|\n")
	}
	return out.String()
}
