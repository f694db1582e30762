// Package gateway guards an IR emitter: it checks the hardware is there,
// validates the carrier, rate limits transmits and encodes codes before
// handing them to the hardware.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/derktes/ir-blaster-bridge/emitter"
	"github.com/derktes/ir-blaster-bridge/encoder"
)

var (
	// ErrNoEmitter is returned when the device has no IR blaster.
	ErrNoEmitter = errors.New("no IR emitter available")
	// ErrFrequencyOutOfRange is returned for carriers the hardware cannot produce.
	ErrFrequencyOutOfRange = errors.New("carrier frequency out of range")
	// ErrTooFrequent is returned when a transmit arrives inside the debounce window.
	ErrTooFrequent = errors.New("transmit requested too soon after the previous one")
	// ErrBusy is returned while another transmit is still being sent.
	ErrBusy = errors.New("emitter busy")
)

// TransmitError wraps a failure reported by the hardware.
type TransmitError struct {
	Frequency int
	Err       error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("transmit at %d Hz: %v", e.Frequency, e.Err)
}

func (e *TransmitError) Unwrap() error { return e.Err }

// Config tunes a Gateway. Zero fields take the defaults below.
type Config struct {
	// MinInterval is the shortest allowed spacing between two transmits.
	// Negative disables debouncing.
	MinInterval      time.Duration
	DefaultFrequency int
	MinFrequency     int
	MaxFrequency     int
	// Now is the clock used for debouncing.
	Now func() time.Time
}

const DefaultMinInterval = 100 * time.Millisecond

func (c Config) withDefaults() Config {
	if c.MinInterval == 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.DefaultFrequency <= 0 {
		c.DefaultFrequency = emitter.Freq38Khz
	}
	if c.MinFrequency <= 0 {
		c.MinFrequency = emitter.MinCarrier
	}
	if c.MaxFrequency <= 0 {
		c.MaxFrequency = emitter.MaxCarrier
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Gateway serializes transmits to one emitter.
type Gateway struct {
	em  emitter.Emitter
	cfg Config

	mu       sync.Mutex
	inFlight bool
	last     time.Time
}

// New returns a Gateway sending through em.
func New(em emitter.Emitter, cfg Config) *Gateway {
	return &Gateway{em: em, cfg: cfg.withDefaults()}
}

// DefaultFrequency is the carrier used when a caller gives none.
func (g *Gateway) DefaultFrequency() int {
	return g.cfg.DefaultFrequency
}

// HasIrEmitter reports whether the hardware can transmit.
func (g *Gateway) HasIrEmitter() bool {
	return g.em != nil && g.em.HasIrEmitter()
}

// CarrierFrequencies returns the ranges the hardware supports.
func (g *Gateway) CarrierFrequencies() ([]emitter.CarrierRange, error) {
	if !g.HasIrEmitter() {
		return nil, ErrNoEmitter
	}
	return g.em.CarrierFrequencies()
}

// Transmit encodes code and sends it at frequency Hz, or the default carrier
// when frequency is not positive. Requests made while a transmit is running,
// or within MinInterval of the last one, are rejected rather than queued.
// Once handed to the hardware a transmit runs to completion; ctx is only
// checked before that.
func (g *Gateway) Transmit(ctx context.Context, code string, frequency int) (encoder.Pattern, error) {
	if frequency <= 0 {
		frequency = g.cfg.DefaultFrequency
	}
	if !g.HasIrEmitter() {
		return nil, ErrNoEmitter
	}
	if err := g.checkFrequency(frequency); err != nil {
		return nil, err
	}

	if err := g.reserve(); err != nil {
		return nil, err
	}

	pattern, err := encoder.Encode(code)
	if err != nil {
		g.release()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		g.release()
		return nil, err
	}

	g.mu.Lock()
	g.last = g.cfg.Now()
	g.mu.Unlock()

	err = g.em.Transmit(frequency, pattern)
	g.release()
	if err != nil {
		return nil, &TransmitError{Frequency: frequency, Err: err}
	}
	return pattern, nil
}

func (g *Gateway) checkFrequency(frequency int) error {
	if frequency < g.cfg.MinFrequency || frequency > g.cfg.MaxFrequency {
		return fmt.Errorf("%w: %d Hz not in %d-%d Hz", ErrFrequencyOutOfRange, frequency, g.cfg.MinFrequency, g.cfg.MaxFrequency)
	}
	ranges, err := g.em.CarrierFrequencies()
	if err != nil || len(ranges) == 0 {
		// nothing reported, the configured bounds are all we have
		return nil
	}
	for _, r := range ranges {
		if r.Contains(frequency) {
			return nil
		}
	}
	return fmt.Errorf("%w: %d Hz not supported by emitter", ErrFrequencyOutOfRange, frequency)
}

func (g *Gateway) reserve() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrBusy
	}
	if g.cfg.MinInterval > 0 && !g.last.IsZero() && g.cfg.Now().Sub(g.last) < g.cfg.MinInterval {
		return ErrTooFrequent
	}
	g.inFlight = true
	return nil
}

func (g *Gateway) release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}
