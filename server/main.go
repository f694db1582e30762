package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/derktes/ir-blaster-bridge/server/server"
)

func main() {
	defaults := server.DefaultConfig()
	configPath := flag.String("config", "", "Specifies a JSON config file")
	addr := flag.String("addr", defaults.Addr, "Specifies the address to listen on")
	emitterName := flag.String("emitter", defaults.Emitter, "Specifies the emitter: lirc, serial or dry-run")
	lircDevice := flag.String("lirc", defaults.LIRCDevice, "Specifies the LIRC device")
	serialPort := flag.String("serial", "", "Specifies the serial port of the blaster in the form /dev/xxx")
	baudRate := flag.Int("baud", defaults.BaudRate, "Specifies the baud rate of the serial port")
	interval := flag.Int("interval", defaults.MinIntervalMillis, "Specifies the minimum milliseconds between transmits, negative to disable")
	debug := flag.Bool("debug", false, "Enables verbose logging")
	hashToken := flag.String("hash-token", "", "Prints the bcrypt hash of the given token for the config file and exits")
	flag.Parse()

	if *hashToken != "" {
		hash, err := server.HashToken(*hashToken)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	cfg := defaults
	if *configPath != "" {
		var err error
		if cfg, err = server.LoadConfig(*configPath); err != nil {
			log.Fatal("Error loading config.", err)
		}
	}
	// flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "emitter":
			cfg.Emitter = *emitterName
		case "lirc":
			cfg.LIRCDevice = *lircDevice
		case "serial":
			cfg.SerialPort = *serialPort
		case "baud":
			cfg.BaudRate = *baudRate
		case "interval":
			cfg.MinIntervalMillis = *interval
		case "debug":
			cfg.Debug = *debug
		}
	})
	if cfg.Emitter == server.EmitterLIRC && cfg.SerialPort != "" && *emitterName == defaults.Emitter {
		cfg.Emitter = server.EmitterSerial
	}

	if err := server.Start(cfg); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
