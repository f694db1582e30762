//go:build !linux

package emitter

import "github.com/derktes/ir-blaster-bridge/encoder"

// LIRC is only available on Linux.
type LIRC struct{}

// OpenLIRC always fails outside Linux.
func OpenLIRC(path string) (*LIRC, error) {
	return nil, ErrUnsupported
}

func (l *LIRC) HasIrEmitter() bool { return false }

func (l *LIRC) CarrierFrequencies() ([]CarrierRange, error) { return nil, ErrUnsupported }

func (l *LIRC) Transmit(frequency int, pattern encoder.Pattern) error { return ErrUnsupported }

func (l *LIRC) Close() error { return nil }
