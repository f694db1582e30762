package emitter

import (
	"log"
	"sync"

	"github.com/derktes/ir-blaster-bridge/encoder"
)

// Sent is one transmit call seen by a Recorder.
type Sent struct {
	Frequency int
	Pattern   encoder.Pattern
}

// Recorder is an Emitter that keeps what it is asked to send instead of
// driving hardware. The server uses it for dry runs.
type Recorder struct {
	// Absent makes HasIrEmitter report false.
	Absent bool
	// Fail, when set, is returned from every Transmit.
	Fail error
	// Ranges overrides the reported carrier ranges.
	Ranges []CarrierRange
	// Verbose logs every transmit.
	Verbose bool

	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) HasIrEmitter() bool {
	return !r.Absent
}

func (r *Recorder) CarrierFrequencies() ([]CarrierRange, error) {
	if r.Ranges != nil {
		return r.Ranges, nil
	}
	return []CarrierRange{{MinCarrier, MaxCarrier}}, nil
}

func (r *Recorder) Transmit(frequency int, pattern encoder.Pattern) error {
	if r.Fail != nil {
		return r.Fail
	}
	r.mu.Lock()
	r.sent = append(r.sent, Sent{frequency, pattern})
	r.mu.Unlock()
	if r.Verbose {
		log.Printf("dry-run transmit at %d Hz, %d pulses, %v", frequency, len(pattern), pattern.Duration())
	}
	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Sent returns a copy of everything transmitted so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}
