package server

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/derktes/ir-blaster-bridge/emitter"
	"github.com/derktes/ir-blaster-bridge/gateway"
)

// Emitter backends selectable in Config.Emitter.
const (
	EmitterLIRC   = "lirc"
	EmitterSerial = "serial"
	EmitterDryRun = "dry-run"
)

// Config holds the server settings. It can be read from a JSON file; fields
// missing from the file keep their defaults.
type Config struct {
	Addr       string `json:"addr"`
	Emitter    string `json:"emitter"`
	LIRCDevice string `json:"lircDevice"`
	SerialPort string `json:"serialPort"`
	BaudRate   int    `json:"baudRate"`
	// MinIntervalMillis is the debounce window; negative disables it.
	MinIntervalMillis int      `json:"minIntervalMillis"`
	DefaultFrequency  int      `json:"defaultFrequency"`
	MinFrequency      int      `json:"minFrequency"`
	MaxFrequency      int      `json:"maxFrequency"`
	HistorySize       int      `json:"historySize"`
	TokenHash         string   `json:"tokenHash"`
	OriginPatterns    []string `json:"originPatterns"`
	Debug             bool     `json:"debug"`
}

// DefaultConfig listens on :8080 and drives the first LIRC device.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Emitter:           EmitterLIRC,
		LIRCDevice:        emitter.DefaultLIRCDevice,
		BaudRate:          115200,
		MinIntervalMillis: int(gateway.DefaultMinInterval / time.Millisecond),
		DefaultFrequency:  emitter.Freq38Khz,
		MinFrequency:      emitter.MinCarrier,
		MaxFrequency:      emitter.MaxCarrier,
		HistorySize:       defaultHistorySize,
		OriginPatterns:    []string{"localhost:*", "192.168.*.*:*"},
	}
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Emitter {
	case EmitterLIRC, EmitterDryRun:
	case EmitterSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("emitter %q needs a serial port", c.Emitter)
		}
	default:
		return fmt.Errorf("unknown emitter %q", c.Emitter)
	}
	if c.MinFrequency > c.MaxFrequency {
		return fmt.Errorf("minFrequency %d is above maxFrequency %d", c.MinFrequency, c.MaxFrequency)
	}
	return nil
}

func (c Config) gatewayConfig() gateway.Config {
	return gateway.Config{
		MinInterval:      time.Duration(c.MinIntervalMillis) * time.Millisecond,
		DefaultFrequency: c.DefaultFrequency,
		MinFrequency:     c.MinFrequency,
		MaxFrequency:     c.MaxFrequency,
	}
}
