// internal/probe/esp/slip.go
package esp

import (
	"bytes"
	"fmt"
	"io"
)

// SLIP framing constants used by the ESP ROM serial protocol.
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// slipEncode wraps a payload in SLIP framing with byte stuffing.
func slipEncode(payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(slipEnd)
	for _, b := range payload {
		switch b {
		case slipEnd:
			buf.WriteByte(slipEsc)
			buf.WriteByte(slipEscEnd)
		case slipEsc:
			buf.WriteByte(slipEsc)
			buf.WriteByte(slipEscEsc)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(slipEnd)
	return buf.Bytes()
}

// slipDecode unstuffs a SLIP payload (frame delimiters already stripped).
func slipDecode(frame []byte) ([]byte, error) {
	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); i++ {
		b := frame[i]
		if b != slipEsc {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(frame) {
			return nil, fmt.Errorf("truncated SLIP escape sequence")
		}
		switch frame[i] {
		case slipEscEnd:
			out = append(out, slipEnd)
		case slipEscEsc:
			out = append(out, slipEsc)
		default:
			return nil, fmt.Errorf("invalid SLIP escape byte 0x%02x", frame[i])
		}
	}
	return out, nil
}

// readFrame reads one complete SLIP frame from r and returns the decoded
// payload. Bytes before the opening delimiter are discarded; the ROM emits
// boot noise between frames.
func readFrame(r io.Reader) ([]byte, error) {
	var (
		one     [1]byte
		inFrame bool
		raw     []byte
	)

	for {
		n, err := r.Read(one[:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("read timeout waiting for SLIP frame")
		}

		b := one[0]
		if !inFrame {
			if b == slipEnd {
				inFrame = true
			}
			continue
		}
		if b == slipEnd {
			if len(raw) == 0 {
				// Empty frame, treat as a fresh delimiter.
				continue
			}
			return slipDecode(raw)
		}
		raw = append(raw, b)
	}
}
