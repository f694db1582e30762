// Package encoder converts hexadecimal remote-control codes into NEC-like
// pulse patterns and back.
package encoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NEC framing, all in microseconds.
const (
	HeaderMark  uint32 = 9000
	HeaderSpace uint32 = 4500
	BitMark     uint32 = 560
	ZeroSpace   uint32 = 560
	OneSpace    uint32 = 1690
)

const (
	// FrameBits is the number of data bits sent per frame, MSB first.
	FrameBits = 32
	// FrameLength is header + one mark/space per bit + closing mark.
	FrameLength = 2 + 2*FrameBits + 1

	minDigits = 8
)

// ErrInvalidHex is returned for empty input or input with non-hex characters.
var ErrInvalidHex = errors.New("invalid hex code")

// EncodingError reports which input could not be encoded.
type EncodingError struct {
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.Input, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Pattern is a sequence of alternating mark (even index) and space (odd
// index) durations in microseconds.
type Pattern []uint32

// Duration returns the total time it takes to send the pattern.
func (p Pattern) Duration() time.Duration {
	var total time.Duration
	for _, d := range p {
		total += time.Duration(d) * time.Microsecond
	}
	return total
}

// Pairs groups the pattern into mark/space pairs. A trailing mark is paired
// with a zero space.
func (p Pattern) Pairs() [][2]uint32 {
	pairs := make([][2]uint32, 0, (len(p)+1)/2)
	for i := 0; i < len(p); i += 2 {
		var pair [2]uint32
		pair[0] = p[i]
		if i+1 < len(p) {
			pair[1] = p[i+1]
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// Encode turns a hex command code such as "0x20DF10EF" into a 67 entry NEC
// pattern. Codes shorter than 8 digits are zero padded. Longer codes are
// accepted as long as they fit a signed 64-bit value; only their low 32 bits
// are sent.
func Encode(hex string) (Pattern, error) {
	value, err := parseCode(hex)
	if err != nil {
		return nil, &EncodingError{Input: hex, Err: err}
	}

	out := make(Pattern, 0, FrameLength)
	out = append(out, HeaderMark, HeaderSpace)
	for i := FrameBits - 1; i >= 0; i-- {
		out = append(out, BitMark)
		if (value>>uint(i))&1 == 1 {
			out = append(out, OneSpace)
		} else {
			out = append(out, ZeroSpace)
		}
	}
	// end of frame burst
	out = append(out, BitMark)

	return out, nil
}

// Value returns the 32 bits Encode would send for hex.
func Value(hex string) (uint32, error) {
	value, err := parseCode(hex)
	if err != nil {
		return 0, &EncodingError{Input: hex, Err: err}
	}
	return uint32(value), nil
}

func parseCode(hex string) (int64, error) {
	s := strings.TrimSpace(hex)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = strings.TrimSpace(s[2:])
	}
	if s == "" {
		return 0, ErrInvalidHex
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return 0, ErrInvalidHex
		}
	}
	if len(s) < minDigits {
		s = strings.Repeat("0", minDigits-len(s)) + s
	}
	value, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		// only a range error can get here
		return 0, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return value, nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// FormatValue renders a decoded frame value the way codes are usually written.
func FormatValue(v uint32) string {
	return fmt.Sprintf("%08X", v)
}
