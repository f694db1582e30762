// Package emitter holds the IR hardware backends a gateway transmits through.
package emitter

import (
	"errors"

	"github.com/derktes/ir-blaster-bridge/encoder"
)

// Freq38Khz is the most commonly used carrier for IR remotes.
const Freq38Khz = 38000

// Carrier frequencies most consumer blasters can modulate at.
const (
	MinCarrier = 30000
	MaxCarrier = 60000
)

// ErrUnsupported is returned when a backend is not available on this platform.
var ErrUnsupported = errors.New("emitter not supported on this platform")

// CarrierRange is an inclusive range of carrier frequencies in Hz.
type CarrierRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether frequency lies in the range.
func (r CarrierRange) Contains(frequency int) bool {
	return frequency >= r.Min && frequency <= r.Max
}

// Emitter is the IR hardware service. Transmit blocks until the pattern has
// been sent.
type Emitter interface {
	HasIrEmitter() bool
	CarrierFrequencies() ([]CarrierRange, error)
	Transmit(frequency int, pattern encoder.Pattern) error
}
