package encoder

import (
	"errors"
	"fmt"
)

var (
	// ErrShortFrame is returned when a pattern has fewer entries than a full frame.
	ErrShortFrame = errors.New("NEC frame has less than 67 pulses")
	// ErrNotNEC is returned when the header does not look like NEC.
	ErrNotNEC = errors.New("pattern header does not match NEC")
	// ErrBadBit is returned when a bit cannot be read as zero or one.
	ErrBadBit = errors.New("error decoding NEC frame value")
)

const tolerance = 0.10

func within(d, want uint32) bool {
	f := float64(d)
	w := float64(want)
	return f > w*(1-tolerance) && f < w*(1+tolerance)
}

func matchNECHeader(mark, space uint32) bool {
	return within(mark, HeaderMark) && within(space, HeaderSpace)
}

// Decode reads the 32-bit value back out of a pattern. Timings may be off by
// up to 10%, so captured signals decode as well as generated ones.
func Decode(p Pattern) (uint32, error) {
	if len(p) < FrameLength {
		return 0, ErrShortFrame
	}
	if !matchNECHeader(p[0], p[1]) {
		return 0, ErrNotNEC
	}

	var value uint32
	for i := 0; i < FrameBits; i++ {
		mark, space := p[2+2*i], p[3+2*i]
		if !within(mark, BitMark) {
			return 0, fmt.Errorf("%w: bit %d mark %d", ErrBadBit, FrameBits-1-i, mark)
		}
		value <<= 1
		switch {
		case within(space, OneSpace):
			value |= 1
		case within(space, ZeroSpace):
		default:
			return 0, fmt.Errorf("%w: bit %d space %d", ErrBadBit, FrameBits-1-i, space)
		}
	}
	return value, nil
}
