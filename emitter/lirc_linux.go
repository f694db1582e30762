//go:build linux

package emitter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/derktes/ir-blaster-bridge/encoder"
	"golang.org/x/sys/unix"
)

// LIRC transmits through a Linux LIRC character device such as /dev/lirc0.
type LIRC struct {
	mu       sync.Mutex
	path     string
	fd       int
	features lircFeatures
}

// OpenLIRC opens the device and reads its feature set.
func OpenLIRC(path string) (*LIRC, error) {
	if path == "" {
		path = DefaultLIRCDevice
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	features, err := unix.IoctlGetUint32(fd, lircGetFeatures)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("LIRC_GET_FEATURES on %s: %w", path, err)
	}
	l := &LIRC{path: path, fd: fd, features: lircFeatures(features)}
	if l.features.canSetDuty() {
		if err := unix.IoctlSetPointerInt(fd, lircSetSendDutyCycle, lircDutyCycle); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("LIRC_SET_SEND_DUTY_CYCLE on %s: %w", path, err)
		}
	}
	return l, nil
}

func (l *LIRC) HasIrEmitter() bool {
	return l != nil && l.features.canSend()
}

func (l *LIRC) CarrierFrequencies() ([]CarrierRange, error) {
	return l.features.ranges(), nil
}

func (l *LIRC) Transmit(frequency int, pattern encoder.Pattern) error {
	if len(pattern)%2 == 0 {
		return errors.New("lirc: pattern must end with a mark")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.features.canSetCarrier() {
		if err := unix.IoctlSetPointerInt(l.fd, lircSetSendCarrier, frequency); err != nil {
			return fmt.Errorf("LIRC_SET_SEND_CARRIER %d on %s: %w", frequency, l.path, err)
		}
	}
	buf := lircPacket(pattern)
	n, err := unix.Write(l.fd, buf)
	if err != nil {
		return fmt.Errorf("writing to %s: %w", l.path, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short write to %s: %d of %d bytes", l.path, n, len(buf))
	}
	return nil
}

// Close releases the device.
func (l *LIRC) Close() error {
	return unix.Close(l.fd)
}
