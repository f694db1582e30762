package emitter

import (
	"encoding/binary"

	"github.com/derktes/ir-blaster-bridge/encoder"
)

// DefaultLIRCDevice is the first LIRC character device on Linux.
const DefaultLIRCDevice = "/dev/lirc0"

// From <linux/lirc.h>.
const (
	lircGetFeatures       = 0x80046900 // _IOR('i', 0x00, __u32)
	lircSetSendCarrier    = 0x40046913 // _IOW('i', 0x13, __u32)
	lircSetSendDutyCycle  = 0x40046915 // _IOW('i', 0x15, __u32)
	lircCanSendPulse      = 0x00000002
	lircCanSetSendCarrier = 0x00000100
	lircCanSetDutyCycle   = 0x00000200
)

const lircDutyCycle = 50

type lircFeatures uint32

func (f lircFeatures) canSend() bool       { return f&lircCanSendPulse != 0 }
func (f lircFeatures) canSetCarrier() bool { return f&lircCanSetSendCarrier != 0 }
func (f lircFeatures) canSetDuty() bool    { return f&lircCanSetDutyCycle != 0 }

// ranges reports what the device can modulate at. Devices without a
// settable carrier are fixed at 38 kHz.
func (f lircFeatures) ranges() []CarrierRange {
	if f.canSetCarrier() {
		return []CarrierRange{{MinCarrier, MaxCarrier}}
	}
	return []CarrierRange{{Freq38Khz, Freq38Khz}}
}

// lircPacket lays the pattern out as the kernel expects it in pulse mode:
// one native endian unsigned int per mark or space, starting with a mark.
func lircPacket(pattern encoder.Pattern) []byte {
	buf := make([]byte, 0, 4*len(pattern))
	for _, d := range pattern {
		buf = binary.NativeEndian.AppendUint32(buf, d)
	}
	return buf
}
