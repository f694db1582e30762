package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ErrNotImplemented is returned when the bridge does not know a method.
var ErrNotImplemented = errors.New("method not implemented by bridge")

type bridgeClient struct {
	serverURL string
	token     string
	client    *http.Client
}

func newBridgeClient(serverURLString, token string) (*bridgeClient, error) {
	if _, err := url.Parse(serverURLString); err != nil {
		return nil, err
	}
	return &bridgeClient{
		serverURL: strings.TrimSuffix(serverURLString, "/"),
		token:     token,
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (bc *bridgeClient) do(req *http.Request) (*http.Response, error) {
	if bc.token != "" {
		req.Header.Set("Authorization", "Bearer "+bc.token)
	}
	return bc.client.Do(req)
}

// invoke calls a channel method and decodes its result into v, if v is not nil.
func (bc *bridgeClient) invoke(method string, args interface{}, v interface{}) error {
	body, err := json.Marshal(channelCall{method, args})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, bc.serverURL+"/channel/ir_channel", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	response, err := bc.do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: response %v received", method, response.StatusCode)
	}
	var reply channelReply
	if err := json.NewDecoder(response.Body).Decode(&reply); err != nil {
		return err
	}
	switch {
	case reply.NotImplemented:
		return fmt.Errorf("%w: %s", ErrNotImplemented, method)
	case reply.Error != nil:
		return reply.Error
	case v != nil && len(reply.Result) > 0:
		return json.Unmarshal(reply.Result, v)
	}
	return nil
}

func (bc *bridgeClient) get(path string, v interface{}) error {
	req, err := http.NewRequest(http.MethodGet, bc.serverURL+path, nil)
	if err != nil {
		return err
	}
	response, err := bc.do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: response %v received", path, response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(v)
}

// watch streams transmissions until ctx is done or the connection drops.
func (bc *bridgeClient) watch(ctx context.Context, onTransmission func(transmission)) error {
	streamURL := "ws" + strings.TrimPrefix(bc.serverURL, "http") + "/ir/stream"
	var opts *websocket.DialOptions
	if bc.token != "" {
		opts = &websocket.DialOptions{HTTPHeader: http.Header{"Authorization": []string{"Bearer " + bc.token}}}
	}
	c, _, err := websocket.Dial(ctx, streamURL, opts)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	for {
		var t transmission
		if err := wsjson.Read(ctx, c, &t); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		onTransmission(t)
	}
}
