package server

import "encoding/json"

// transmitRequest is the body of POST /ir/transmit and the arguments of the
// transmitHex channel method.
type transmitRequest struct {
	HexCode   *string `json:"hexCode"`
	Frequency *int    `json:"frequency"`
}

func (r transmitRequest) frequency() int {
	if r.Frequency == nil {
		return 0
	}
	return *r.Frequency
}

// channelCall is a named method invocation on a method channel.
type channelCall struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments"`
}
