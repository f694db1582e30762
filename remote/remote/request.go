package remote

import (
	"encoding/json"
	"fmt"
	"time"
)

// channelCall invokes a method on the bridge's method channel.
type channelCall struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
}

type transmitArgs struct {
	HexCode   string `json:"hexCode"`
	Frequency int    `json:"frequency,omitempty"`
}

type channelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *channelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type channelReply struct {
	Result         json.RawMessage `json:"result"`
	Error          *channelError   `json:"error"`
	NotImplemented bool            `json:"notImplemented"`
}

// transmission is the bridge's record of one transmit request.
type transmission struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Code      string    `json:"code"`
	Frequency int       `json:"frequency"`
	Value     string    `json:"value"`
	Pattern   []uint32  `json:"pattern"`
	Error     string    `json:"error"`
	Time      time.Time `json:"time"`
}

func (t transmission) String() string {
	if t.Error != "" {
		return fmt.Sprintf("%s %s %q at %d Hz failed: %s", t.Time.Format(time.RFC3339), t.Method, t.Code, t.Frequency, t.Error)
	}
	return fmt.Sprintf("%s %s %s at %d Hz, %d pulses", t.Time.Format(time.RFC3339), t.Method, t.Value, t.Frequency, len(t.Pattern))
}

type carrierRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
