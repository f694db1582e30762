package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/derktes/ir-blaster-bridge/emitter"
	"github.com/derktes/ir-blaster-bridge/gateway"
	"github.com/gorilla/mux"
)

var debugMode bool

// NewHandler builds the bridge's routes around em.
func NewHandler(cfg Config, em emitter.Emitter) http.Handler {
	debugMode = cfg.Debug
	return newBridge(cfg, em).routes(cfg.TokenHash)
}

func newBridge(cfg Config, em emitter.Emitter) *bridge {
	return &bridge{
		gw:      gateway.New(em, cfg.gatewayConfig()),
		history: newHistory(cfg.HistorySize),
		origins: cfg.OriginPatterns,
	}
}

func (b *bridge) routes(tokenHash string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/channel/{channel}", b.channelHandler).Methods(http.MethodPost)
	r.HandleFunc("/ir/transmit", b.transmitHandler).Methods(http.MethodPost)
	r.HandleFunc("/ir/emitter", b.emitterHandler).Methods(http.MethodGet)
	r.HandleFunc("/ir/frequencies", b.frequenciesHandler).Methods(http.MethodGet)
	r.HandleFunc("/ir/transmissions", b.transmissionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/ir/stream", b.streamHandler).Methods(http.MethodGet)
	r.HandleFunc("/device", deviceHandler).Methods(http.MethodGet)
	if tokenHash != "" {
		r.Use(tokenAuth(tokenHash))
	}
	return r
}

// openEmitter opens the backend named in cfg. The returned closer releases it.
func openEmitter(cfg Config) (emitter.Emitter, io.Closer, error) {
	switch cfg.Emitter {
	case EmitterLIRC:
		l, err := emitter.OpenLIRC(cfg.LIRCDevice)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Opened LIRC device '%s'", cfg.LIRCDevice)
		return l, l, nil
	case EmitterSerial:
		serialConfig := emitter.DefaultSerialConfig(cfg.SerialPort)
		serialConfig.Baud = cfg.BaudRate
		s, err := emitter.OpenSerial(serialConfig)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Opened serial port '%s' at baud rate %d", cfg.SerialPort, cfg.BaudRate)
		return s, s, nil
	case EmitterDryRun:
		log.Print("Dry run: transmits are logged, not sent")
		rec := &emitter.Recorder{Verbose: true}
		return rec, rec, nil
	default:
		return nil, nil, fmt.Errorf("unknown emitter %q", cfg.Emitter)
	}
}

// Start opens the configured emitter and serves the bridge until interrupted.
func Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	em, closer, err := openEmitter(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	if !em.HasIrEmitter() {
		log.Print("Emitter reports no transmit capability, transmits will be refused")
	}

	bridgeServer := http.Server{Addr: cfg.Addr, Handler: NewHandler(cfg, em)}
	bridgeServer.RegisterOnShutdown(func() {
		log.Print("Shutting down server")
	})
	go func() {
		intr := make(chan os.Signal, 1)
		signal.Notify(intr, os.Interrupt, syscall.SIGTERM)
		<-intr
		bridgeServer.Shutdown(context.Background())
	}()
	log.Printf("Server started on %s", cfg.Addr)
	if err := bridgeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
