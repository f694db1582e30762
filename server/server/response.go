package server

import (
	"time"

	"github.com/derktes/ir-blaster-bridge/encoder"
)

// transmission is what the server remembers about each transmit request and
// pushes to stream listeners.
type transmission struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Code      string          `json:"code"`
	Frequency int             `json:"frequency"`
	Value     string          `json:"value,omitempty"`
	Pattern   encoder.Pattern `json:"pattern,omitempty"`
	Error     string          `json:"error,omitempty"`
	Time      time.Time       `json:"time"`
}

//
type channelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type channelReply struct {
	Result         interface{}   `json:"result,omitempty"`
	Error          *channelError `json:"error,omitempty"`
	NotImplemented bool          `json:"notImplemented,omitempty"`
}

type emitterStatus struct {
	HasIrEmitter bool `json:"hasIrEmitter"`
}
