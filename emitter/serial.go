package emitter

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/derktes/ir-blaster-bridge/encoder"
	"github.com/tarm/serial"
)

// ErrNoReply is returned when the blaster does not acknowledge a frame.
var ErrNoReply = errors.New("no reply from serial blaster")

// SerialConfig describes how to reach a blaster attached over a serial line.
type SerialConfig struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string
	Baud   int
	// ReadTimeout bounds the wait for the blaster's reply.
	ReadTimeout time.Duration
	// Ranges the blaster can modulate at; defaults to 30-60 kHz.
	Ranges []CarrierRange
}

// DefaultSerialConfig returns the settings the reference blaster firmware uses.
func DefaultSerialConfig(device string) *SerialConfig {
	return &SerialConfig{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 2 * time.Second,
	}
}

// serialFrame is written to the blaster as one JSON line.
type serialFrame struct {
	Frequency int             `json:"frequency"`
	Pattern   encoder.Pattern `json:"pattern"`
}

// Serial sends patterns to a microcontroller that drives the IR LED. Each
// frame is a JSON line; the blaster answers "OK" or "ERR <reason>" once the
// pattern has been sent.
type Serial struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
	ranges []CarrierRange
}

// OpenSerial opens the serial port described by cfg.
func OpenSerial(cfg *SerialConfig) (*Serial, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return NewSerial(port, cfg.Ranges), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.ReadWriteCloser, ranges []CarrierRange) *Serial {
	if len(ranges) == 0 {
		ranges = []CarrierRange{{MinCarrier, MaxCarrier}}
	}
	return &Serial{
		port:   port,
		reader: bufio.NewReader(port),
		ranges: ranges,
	}
}

func (s *Serial) HasIrEmitter() bool {
	return s != nil && s.port != nil
}

func (s *Serial) CarrierFrequencies() ([]CarrierRange, error) {
	return s.ranges, nil
}

func (s *Serial) Transmit(frequency int, pattern encoder.Pattern) error {
	line, err := json.Marshal(serialFrame{frequency, pattern})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.port.Write(line); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	reply, err := s.reader.ReadString('\n')
	reply = strings.TrimSpace(reply)
	if reply == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", ErrNoReply, err)
		}
		return ErrNoReply
	}
	switch {
	case reply == "OK":
		return nil
	case strings.HasPrefix(reply, "ERR"):
		return fmt.Errorf("blaster: %s", strings.TrimSpace(strings.TrimPrefix(reply, "ERR")))
	default:
		return fmt.Errorf("blaster: unexpected reply %q", reply)
	}
}

// Close closes the underlying port.
func (s *Serial) Close() error {
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}
