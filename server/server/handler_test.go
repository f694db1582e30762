package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/derktes/ir-blaster-bridge/emitter"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Emitter = EmitterDryRun
	cfg.MinIntervalMillis = -1
	return cfg
}

func newTestBridge(em emitter.Emitter) (*bridge, http.Handler) {
	b := newBridge(testConfig(), em)
	return b, b.routes("")
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "http://localhost:8080"+path, strings.NewReader(body))
	h.ServeHTTP(w, r)
	return w
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) channelReply {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reply channelReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("Reply is not JSON: %v", err)
	}
	return reply
}

func TestChannelTransmitHex(t *testing.T) {
	rec := &emitter.Recorder{}
	_, h := newTestBridge(rec)

	w := call(t, h, http.MethodPost, "/channel/ir_channel",
		`{"method":"transmitHex","arguments":{"hexCode":"0x20DF10EF","frequency":38000}}`)
	reply := decodeReply(t, w)
	if reply.Error != nil {
		t.Fatalf("Unexpected error %+v", reply.Error)
	}
	result, ok := reply.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Unexpected result %v", reply.Result)
	}
	if result["value"] != "20DF10EF" {
		t.Errorf("Expected value 20DF10EF, got %v", result["value"])
	}

	sent := rec.Sent()
	if len(sent) != 1 || sent[0].Frequency != 38000 || len(sent[0].Pattern) != 67 {
		t.Errorf("Unexpected transmit %+v", sent)
	}
}

func TestChannelDefaultFrequency(t *testing.T) {
	rec := &emitter.Recorder{}
	_, h := newTestBridge(rec)

	decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel",
		`{"method":"transmitHex","arguments":{"hexCode":"A2"}}`))
	sent := rec.Sent()
	if len(sent) != 1 || sent[0].Frequency != 38000 {
		t.Errorf("Expected one transmit at 38000 Hz, got %+v", sent)
	}
}

func TestChannelErrors(t *testing.T) {
	rec := &emitter.Recorder{}
	_, h := newTestBridge(rec)

	tests := []struct {
		body string
		code string
	}{
		{`{"method":"transmitHex"}`, codeInvalidArguments},
		{`{"method":"transmitHex","arguments":{"frequency":38000}}`, codeInvalidArguments},
		{`{"method":"transmitHex","arguments":{"hexCode":"0xZZ"}}`, codeInvalidHex},
		{`{"method":"transmitHex","arguments":{"hexCode":"1","frequency":90000}}`, codeFrequency},
	}
	for _, tt := range tests {
		reply := decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel", tt.body))
		if reply.Error == nil || reply.Error.Code != tt.code {
			t.Errorf("%s: expected %s, got %+v", tt.body, tt.code, reply.Error)
		}
	}
	if len(rec.Sent()) != 0 {
		t.Error("Failed calls should not reach the emitter")
	}

	reply := decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel", `{"method":"vibrate"}`))
	if !reply.NotImplemented {
		t.Error("Unknown method should be not implemented")
	}

	if w := call(t, h, http.MethodPost, "/channel/other_channel", `{"method":"transmitHex"}`); w.Code != http.StatusNotFound {
		t.Errorf("Unknown channel: expected 404, got %d", w.Code)
	}
	if w := call(t, h, http.MethodPost, "/channel/ir_channel", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("Bad body: expected 400, got %d", w.Code)
	}
}

func TestChannelQueries(t *testing.T) {
	_, h := newTestBridge(&emitter.Recorder{Absent: true})

	reply := decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel", `{"method":"hasIrEmitter"}`))
	if reply.Result != false {
		t.Errorf("Expected hasIrEmitter false, got %v", reply.Result)
	}

	reply = decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel", `{"method":"getCarrierFrequencies"}`))
	if reply.Error == nil || reply.Error.Code != codeNoEmitter {
		t.Errorf("Expected %s, got %+v", codeNoEmitter, reply.Error)
	}

	reply = decodeReply(t, call(t, h, http.MethodPost, "/channel/ir_channel", `{"method":"getDeviceInfo"}`))
	info, ok := reply.Result.(map[string]interface{})
	if !ok || info["manufacturer"] == "" {
		t.Errorf("Unexpected device info %v", reply.Result)
	}
}

func TestRESTTransmitStatus(t *testing.T) {
	tests := []struct {
		name   string
		em     emitter.Emitter
		body   string
		status int
	}{
		{"ok", &emitter.Recorder{}, `{"hexCode":"0x1FE48B7"}`, http.StatusOK},
		{"missing code", &emitter.Recorder{}, `{}`, http.StatusBadRequest},
		{"bad hex", &emitter.Recorder{}, `{"hexCode":"xyz"}`, http.StatusBadRequest},
		{"no emitter", &emitter.Recorder{Absent: true}, `{"hexCode":"1"}`, http.StatusServiceUnavailable},
		{"hardware", &emitter.Recorder{Fail: errors.New("write failed")}, `{"hexCode":"1"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		_, h := newTestBridge(tt.em)
		w := call(t, h, http.MethodPost, "/ir/transmit", tt.body)
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d: %s", tt.name, tt.status, w.Code, w.Body.String())
		}
	}

	if w := call(t, newBridge(testConfig(), &emitter.Recorder{}).routes(""), http.MethodGet, "/ir/transmit", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /ir/transmit: expected 405, got %d", w.Code)
	}
}

func TestRESTTransmitTooFrequent(t *testing.T) {
	cfg := testConfig()
	cfg.MinIntervalMillis = 60000
	h := newBridge(cfg, &emitter.Recorder{}).routes("")

	if w := call(t, h, http.MethodPost, "/ir/transmit", `{"hexCode":"1"}`); w.Code != http.StatusOK {
		t.Fatalf("First transmit: expected 200, got %d", w.Code)
	}
	w := call(t, h, http.MethodPost, "/ir/transmit", `{"hexCode":"1"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Second transmit: expected 429, got %d", w.Code)
	}
	var e channelError
	json.Unmarshal(w.Body.Bytes(), &e)
	if e.Code != codeTooFrequent {
		t.Errorf("Expected %s, got %s", codeTooFrequent, e.Code)
	}
}

func TestQueries(t *testing.T) {
	_, h := newTestBridge(&emitter.Recorder{})

	w := call(t, h, http.MethodGet, "/ir/emitter", "")
	var status emitterStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil || !status.HasIrEmitter {
		t.Errorf("Unexpected emitter status %s", w.Body.String())
	}

	w = call(t, h, http.MethodGet, "/ir/frequencies", "")
	var ranges []emitter.CarrierRange
	if err := json.Unmarshal(w.Body.Bytes(), &ranges); err != nil || len(ranges) != 1 || ranges[0].Min != 30000 {
		t.Errorf("Unexpected ranges %s", w.Body.String())
	}

	if w = call(t, h, http.MethodGet, "/health", ""); strings.TrimSpace(w.Body.String()) != "OK" {
		t.Errorf("Unexpected health %q", w.Body.String())
	}
	if w = call(t, h, http.MethodGet, "/device", ""); w.Code != http.StatusOK {
		t.Errorf("GET /device: expected 200, got %d", w.Code)
	}
}

func TestTransmissionsHistory(t *testing.T) {
	_, h := newTestBridge(&emitter.Recorder{})

	call(t, h, http.MethodPost, "/ir/transmit", `{"hexCode":"1","frequency":40000}`)
	call(t, h, http.MethodPost, "/ir/transmit", `{"hexCode":"nope"}`)

	w := call(t, h, http.MethodGet, "/ir/transmissions", "")
	var list []transmission
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("History is not JSON: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 transmissions, got %d", len(list))
	}
	if list[0].Value != "00000001" || list[0].Frequency != 40000 || list[0].Error != "" {
		t.Errorf("Unexpected first entry %+v", list[0])
	}
	if list[1].Error == "" || list[1].Pattern != nil || list[1].Frequency != 38000 {
		t.Errorf("Unexpected second entry %+v", list[1])
	}
	if list[0].ID == "" || list[0].ID == list[1].ID {
		t.Error("Transmissions need distinct ids")
	}
}

func TestStream(t *testing.T) {
	b, h := newTestBridge(&emitter.Recorder{})
	server := httptest.NewServer(h)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/ir/stream", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	// wait for the handler to subscribe
	for {
		b.history.mu.Lock()
		n := len(b.history.listeners)
		b.history.mu.Unlock()
		if n == 1 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("Stream handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(server.URL+"/ir/transmit", "application/json", bytes.NewReader([]byte(`{"hexCode":"0xA2"}`)))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	resp.Body.Close()

	var got transmission
	if err := wsjson.Read(ctx, c, &got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Value != "000000A2" || len(got.Pattern) != 67 {
		t.Errorf("Unexpected event %+v", got)
	}
}

func TestTokenAuth(t *testing.T) {
	b := newBridge(testConfig(), &emitter.Recorder{})
	h := b.routes(testTokenHash(t, "s3cret"))

	if w := call(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("/health should stay open, got %d", w.Code)
	}
	if w := call(t, h, http.MethodGet, "/ir/emitter", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ir/emitter", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/ir/emitter", nil)
	r.Header.Set("Authorization", "Bearer s3cret")
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with token, got %d", w.Code)
	}

	if w := call(t, h, http.MethodGet, "/ir/transmissions?token=s3cret", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with query token, got %d", w.Code)
	}
}

func BenchmarkChannelTransmit(b *testing.B) {
	h := newBridge(testConfig(), &emitter.Recorder{}).routes("")
	var wg sync.WaitGroup
	wg.Add(b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		go func() {
			defer wg.Done()
			data := []byte(`{"method":"transmitHex","arguments":{"hexCode":"0x20DF10EF","frequency":38000}}`)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "http://localhost:8080/channel/ir_channel", bytes.NewReader(data))
			h.ServeHTTP(w, r)
		}()
		time.Sleep(20 * time.Nanosecond)
	}
	wg.Wait()
}
