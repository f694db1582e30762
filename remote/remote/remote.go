package remote

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/derktes/ir-blaster-bridge/encoder"
	"github.com/google/shlex"
)

// errQuit ends the interactive shell.
var errQuit = errors.New("quit")

const usage = `Commands:
  send <hex> [frequency]   transmit a code through the bridge
  emitter                  report whether the bridge has an IR emitter
  freqs                    list supported carrier frequency ranges
  info                     show the bridge's device information
  history                  list recent transmissions
  watch                    stream transmissions as they happen
  encode <hex>             print the pulse pattern locally, no bridge needed
  shell                    read commands from stdin
`

type flagSet struct {
	serverHost *string
	serverPort *int
	token      *string
	csv        *bool
}

func (fs *flagSet) parseFlags() {
	fs.serverHost = flag.String("server", "localhost", "Specifies host name or IP address of the bridge")
	fs.serverPort = flag.Int("port", 8080, "Specifies the port number of the bridge")
	fs.token = flag.String("token", os.Getenv("IR_BRIDGE_TOKEN"), "Specifies the bridge token")
	fs.csv = flag.Bool("csv", false, "Prints encoded patterns as mark,space CSV")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <command>\n\n%s\nFlags:\n", os.Args[0], usage)
		flag.PrintDefaults()
	}
	flag.Parse()
}

// remote runs commands against a bridge, writing results to out.
type remote struct {
	client *bridgeClient
	out    io.Writer
	csv    bool
}

// Start runs the command given on the command line.
func Start() error {
	var remoteFlag flagSet
	remoteFlag.parseFlags()
	if flag.NArg() < 1 {
		flag.Usage()
		return errors.New("Command not specified")
	}
	client, err := newBridgeClient(fmt.Sprintf("http://%s:%d", *remoteFlag.serverHost, *remoteFlag.serverPort), *remoteFlag.token)
	if err != nil {
		return err
	}
	r := &remote{client: client, out: os.Stdout, csv: *remoteFlag.csv}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if flag.Arg(0) == "shell" {
		return r.shell(ctx, os.Stdin)
	}
	return r.run(ctx, flag.Args())
}

func (r *remote) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "send":
		if len(args) < 2 {
			return errors.New("usage: send <hex> [frequency]")
		}
		a := transmitArgs{HexCode: args[1]}
		if len(args) > 2 {
			f, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("bad frequency %q: %w", args[2], err)
			}
			a.Frequency = f
		}
		var t transmission
		if err := r.client.invoke("transmitHex", a, &t); err != nil {
			return err
		}
		fmt.Fprintln(r.out, t)
	case "emitter":
		var has bool
		if err := r.client.invoke("hasIrEmitter", nil, &has); err != nil {
			return err
		}
		fmt.Fprintln(r.out, has)
	case "freqs":
		var ranges []carrierRange
		if err := r.client.invoke("getCarrierFrequencies", nil, &ranges); err != nil {
			return err
		}
		for _, cr := range ranges {
			fmt.Fprintf(r.out, "%d-%d Hz\n", cr.Min, cr.Max)
		}
	case "info":
		var info map[string]string
		if err := r.client.invoke("getDeviceInfo", nil, &info); err != nil {
			return err
		}
		for _, k := range []string{"manufacturer", "model", "sdkVersion", "hostname", "goVersion", "arch"} {
			fmt.Fprintf(r.out, "%-13s %s\n", k+":", info[k])
		}
	case "history":
		var list []transmission
		if err := r.client.get("/ir/transmissions", &list); err != nil {
			return err
		}
		for _, t := range list {
			fmt.Fprintln(r.out, t)
		}
	case "watch":
		return r.client.watch(ctx, func(t transmission) {
			fmt.Fprintln(r.out, t)
		})
	case "encode":
		if len(args) < 2 {
			return errors.New("usage: encode <hex>")
		}
		return r.encode(args[1])
	case "help":
		fmt.Fprint(r.out, usage)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func (r *remote) encode(code string) error {
	pattern, err := encoder.Encode(code)
	if err != nil {
		return err
	}
	if !r.csv {
		parts := make([]string, len(pattern))
		for i, d := range pattern {
			parts[i] = strconv.FormatUint(uint64(d), 10)
		}
		fmt.Fprintln(r.out, strings.Join(parts, ","))
		return nil
	}

	outputWriter := csv.NewWriter(r.out)
	if err := outputWriter.Write([]string{"mark", "space"}); err != nil {
		return err
	}
	for _, pair := range pattern.Pairs() {
		record := []string{strconv.FormatUint(uint64(pair[0]), 10), strconv.FormatUint(uint64(pair[1]), 10)}
		if err := outputWriter.Write(record); err != nil {
			return err
		}
	}
	outputWriter.Flush()
	return outputWriter.Error()
}

// shell reads one command per line until EOF or quit. Errors are printed and
// the shell carries on.
func (r *remote) shell(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			break
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "shell" {
			fmt.Fprintln(r.out, "Error: already in a shell")
			continue
		}
		if err := r.run(ctx, args); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintln(r.out, "Error:", err)
		}
	}
	return scanner.Err()
}
