package server

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/derktes/ir-blaster-bridge/device"
	"github.com/derktes/ir-blaster-bridge/encoder"
	"github.com/derktes/ir-blaster-bridge/gateway"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// irChannel is the only method channel the bridge serves.
const irChannel = "ir_channel"

// Channel methods.
const (
	methodTransmitHex           = "transmitHex"
	methodHasIrEmitter          = "hasIrEmitter"
	methodGetCarrierFrequencies = "getCarrierFrequencies"
	methodGetDeviceInfo         = "getDeviceInfo"
)

const (
	codeInvalidArguments = "INVALID_ARGUMENTS"
	codeInvalidHex       = "INVALID_HEX"
	codeNoEmitter        = "NO_IR_EMITTER"
	codeFrequency        = "FREQUENCY_OUT_OF_RANGE"
	codeTooFrequent      = "TOO_FREQUENT"
	codeBusy             = "BUSY"
	codeTransmitFailed   = "TRANSMIT_FAILED"
	codeCanceled         = "CANCELED"
	codeInternal         = "INTERNAL"
)

type bridge struct {
	gw      *gateway.Gateway
	history *transmitHistory
	origins []string
}

// transmit runs one request through the gateway and records the outcome.
func (b *bridge) transmit(ctx context.Context, method, code string, frequency int) (transmission, error) {
	t := transmission{
		ID:        uuid.NewString(),
		Method:    method,
		Code:      code,
		Frequency: frequency,
		Time:      time.Now().UTC(),
	}
	if t.Frequency <= 0 {
		t.Frequency = b.gw.DefaultFrequency()
	}
	pattern, err := b.gw.Transmit(ctx, code, frequency)
	if err != nil {
		t.Error = err.Error()
		log.Printf("Transmit of %q at %d Hz failed: %v", code, t.Frequency, err)
	} else {
		t.Pattern = pattern
		if v, derr := encoder.Decode(pattern); derr == nil {
			t.Value = encoder.FormatValue(v)
		}
		if debugMode {
			log.Printf("Transmitted %s at %d Hz (%v)", t.Value, t.Frequency, pattern.Duration())
		}
	}
	b.history.insert(t)
	return t, err
}

// classify maps an error to its channel code and HTTP status.
func classify(err error) (string, int) {
	var txErr *gateway.TransmitError
	switch {
	case errors.Is(err, encoder.ErrInvalidHex):
		return codeInvalidHex, http.StatusBadRequest
	case errors.Is(err, gateway.ErrFrequencyOutOfRange):
		return codeFrequency, http.StatusBadRequest
	case errors.Is(err, gateway.ErrNoEmitter):
		return codeNoEmitter, http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrTooFrequent):
		return codeTooFrequent, http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrBusy):
		return codeBusy, http.StatusConflict
	case errors.As(err, &txErr):
		return codeTransmitFailed, http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return codeCanceled, http.StatusServiceUnavailable
	default:
		return codeInternal, http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	output, err := json.Marshal(v)
	if err != nil {
		log.Print(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(output)
}

func writeError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	writeJSON(w, status, channelError{code, err.Error()})
}

func (b *bridge) transmitHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Println("Error reading from request body.", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req transmitRequest
	if err := json.Unmarshal(body, &req); err != nil || req.HexCode == nil {
		writeJSON(w, http.StatusBadRequest, channelError{codeInvalidArguments, "Invalid arguments"})
		return
	}
	if debugMode {
		log.Printf("Unmarshalled -> %s", body)
	}
	t, err := b.transmit(r.Context(), "rest", *req.HexCode, req.frequency())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *bridge) emitterHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emitterStatus{b.gw.HasIrEmitter()})
}

func (b *bridge) frequenciesHandler(w http.ResponseWriter, r *http.Request) {
	ranges, err := b.gw.CarrierFrequencies()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranges)
}

func (b *bridge) transmissionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.history.list())
}

func deviceHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, device.Get())
}

// channelHandler answers method channel calls. Like a platform channel, the
// HTTP status is 200 whenever the call could be read; failures travel in
// the reply.
func (b *bridge) channelHandler(w http.ResponseWriter, r *http.Request) {
	if mux.Vars(r)["channel"] != irChannel {
		http.NotFound(w, r)
		return
	}
	var call channelCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		log.Println("Error unmarshaling.", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if debugMode {
		log.Printf("Channel call -> %s %s", call.Method, call.Arguments)
	}
	writeJSON(w, http.StatusOK, b.dispatch(r.Context(), call))
}

func (b *bridge) dispatch(ctx context.Context, call channelCall) channelReply {
	switch call.Method {
	case methodTransmitHex:
		var args transmitRequest
		if len(call.Arguments) == 0 || json.Unmarshal(call.Arguments, &args) != nil || args.HexCode == nil {
			return channelReply{Error: &channelError{codeInvalidArguments, "Invalid arguments"}}
		}
		t, err := b.transmit(ctx, call.Method, *args.HexCode, args.frequency())
		if err != nil {
			code, _ := classify(err)
			return channelReply{Error: &channelError{code, err.Error()}}
		}
		return channelReply{Result: t}
	case methodHasIrEmitter:
		return channelReply{Result: b.gw.HasIrEmitter()}
	case methodGetCarrierFrequencies:
		ranges, err := b.gw.CarrierFrequencies()
		if err != nil {
			code, _ := classify(err)
			return channelReply{Error: &channelError{code, err.Error()}}
		}
		return channelReply{Result: ranges}
	case methodGetDeviceInfo:
		return channelReply{Result: device.Get()}
	default:
		return channelReply{NotImplemented: true}
	}
}

func (b *bridge) streamHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: b.origins})
	if err != nil {
		// Accept has already written the response
		log.Print(err)
		return
	}
	log.Printf("Accepted websocket request from %s", r.RemoteAddr)
	defer log.Printf("Closing websocket connection for %s", r.RemoteAddr)
	defer c.Close(websocket.StatusNormalClosure, "Handler exits")

	var notifier transmitNotifier = b.history
	subscriber := getSubscriberID(r.RemoteAddr)
	events, err := notifier.notify(subscriber)
	if err != nil {
		if debugMode {
			log.Print(err)
		}
		c.Close(websocket.StatusPolicyViolation, "Already subscribed")
		return
	}
	defer func() {
		if err := notifier.unNotify(subscriber); err != nil && debugMode {
			log.Print(err)
		}
	}()

	ctx := c.CloseRead(r.Context())
	for {
		select {
		case t := <-events:
			if err := writeTransmission(ctx, c, t); err != nil {
				log.Print(err)
				return
			}
		case <-ctx.Done():
			if debugMode {
				log.Print(ctx.Err())
			}
			return
		}
	}
}

func getSubscriberID(data string) string {
	h := sha1.Sum([]byte(data))
	return hex.EncodeToString(h[:])
}

func writeTransmission(ctx context.Context, c *websocket.Conn, t transmission) error {
	ctx, cancelFunc := context.WithTimeout(ctx, 1*time.Second)
	defer cancelFunc()

	return wsjson.Write(ctx, c, t)
}
