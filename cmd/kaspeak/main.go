// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	kaspeak "github.com/kaspeak/kaspeak-go"
	"github.com/kaspeak/kaspeak-go/broadcaster"
	"github.com/kaspeak/kaspeak-go/listener"
	"github.com/kaspeak/kaspeak-go/settings"
	"github.com/kaspeak/kaspeak-go/stream"
)

type globalFlags struct {
	flagset      *flag.FlagSet
	address      string
	network      string
	networkMagic int
	channel      uint
	settingsPath string
	logPath      string
	listenSelf   bool
	debug        bool
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.address,
		"address",
		"",
		"TCP address of the node to connect to in address:port format",
	)
	f.flagset.StringVar(
		&f.network,
		"network",
		"testnet-11",
		"specifies network that node is participating in",
	)
	f.flagset.IntVar(
		&f.networkMagic,
		"network-magic",
		0,
		"specifies network magic value. this overrides the -network option",
	)
	f.flagset.UintVar(&f.channel, "channel", 0, "channel number to join")
	f.flagset.StringVar(
		&f.settingsPath,
		"settings",
		settings.DefaultPath,
		"path to the encrypted settings file",
	)
	f.flagset.StringVar(
		&f.logPath,
		"log",
		settings.DefaultLogPath,
		"path to the log file",
	)
	f.flagset.BoolVar(
		&f.listenSelf,
		"listen-self",
		false,
		"play back your own voice payloads",
	)
	f.flagset.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return f
}

func (f *globalFlags) parse() {
	if err := f.flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if f.networkMagic == 0 {
		network := kaspeak.NetworkByName(f.network)
		if network == kaspeak.NetworkInvalid {
			fmt.Printf("Invalid network specified: %s\n", f.network)
			os.Exit(1)
		}
		f.networkMagic = int(network.NetworkMagic)
	}
}

func main() {
	f := newGlobalFlags()
	f.parse()
	if f.address == "" {
		fmt.Printf("You must specify -address\n\n")
		f.flagset.PrintDefaults()
		os.Exit(1)
	}

	// Log to stdout and the log file
	logFile, err := os.OpenFile(
		f.logPath,
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o644,
	)
	if err != nil {
		fmt.Printf("ERROR: failed to open log file: %s\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logLevel := slog.LevelInfo
	if f.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(
		io.MultiWriter(os.Stdout, logFile),
		&slog.HandlerOptions{Level: logLevel},
	))

	// Load or initialize the local identity
	localSettings := settings.New(f.settingsPath)
	if err := localSettings.Load(); err != nil {
		if !errors.Is(err, settings.ErrNoFile) {
			fmt.Printf("ERROR: failed to load settings: %s\n", err)
			os.Exit(1)
		}
		if err := localSettings.Initialize(); err != nil {
			fmt.Printf("ERROR: failed to initialize settings: %s\n", err)
			os.Exit(1)
		}
	}
	username := localSettings.Current.Username
	channel := uint32(f.channel)
	logger.Info(fmt.Sprintf("starting as %s on channel %d", username, channel))

	// Connect to the node
	conn, err := net.Dial("tcp", f.address)
	if err != nil {
		fmt.Printf("Connection failed: %s\n", err)
		os.Exit(1)
	}
	errorChan := make(chan error, 10)
	go func() {
		for err := range errorChan {
			fmt.Printf("ERROR(async): %s\n", err)
			os.Exit(1)
		}
	}()
	client, err := kaspeak.New(
		kaspeak.WithConnection(conn),
		kaspeak.WithNetworkMagic(uint32(f.networkMagic)),
		kaspeak.WithErrorChan(errorChan),
		kaspeak.WithLogger(logger),
	)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer client.Close()

	// Reassemble incoming payloads into chat messages
	assembler := stream.NewAssembler(stream.NewConfig(
		stream.WithLogger(logger),
		stream.WithMessageFunc(func(msg stream.Message) {
			fmt.Printf("[%d] %s: %s\n", msg.Channel, msg.Username, msg.Content)
		}),
	))
	assembler.Start()
	defer assembler.Stop()

	// Extract payloads from incoming blocks
	l := listener.New(listener.NewConfig(
		listener.WithLogger(logger),
		listener.WithUsername(username),
		listener.WithChannel(channel),
		listener.WithListenSelf(f.listenSelf),
		listener.WithNextBlockFunc(client.BlockNotify().Client.RequestNext),
		listener.WithPayloadFunc(assembler.HandleFragment),
	))
	if err := l.Start(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer l.Stop()

	// Broadcast outgoing messages via the node
	wallet := newNodeWallet(client, logger)
	b := broadcaster.New(broadcaster.NewConfig(
		broadcaster.WithLogger(logger),
		broadcaster.WithWallet(wallet),
	))
	if err := b.Start(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer b.Stop()
	b.SetConnected(true)

	// Read chat messages from stdin
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if err := b.SendMessage(channel, username, line); err != nil {
			fmt.Printf("ERROR: failed to send message: %s\n", err)
		}
	}
}
