// Package main runs the tap lab agent: an NFC read/broadcast screen and a
// wallet pass screen, driven from the system tray or over a websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"

	"github.com/dotside-studios/davi-tap-lab/buildinfo"
	"github.com/dotside-studios/davi-tap-lab/nfc"
	"github.com/dotside-studios/davi-tap-lab/screen"
	"github.com/dotside-studios/davi-tap-lab/wallet"
)

const defaultPort = 18080

// options are the parsed command line flags.
type options struct {
	devicePath    string
	port          int
	cli           bool
	apiSecret     string
	platform      string
	walletDB      string
	passesFile    string
	broadcastText string
	tls           bool
	noMDNS        bool
	version       bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet(buildinfo.Name, flag.ContinueOnError)
	fs.StringVar(&o.devicePath, "device", "", "Path to NFC device (optional)")
	fs.IntVar(&o.port, "port", defaultPort, "Port to listen on for screen clients")
	fs.BoolVar(&o.cli, "cli", false, "Run in CLI mode (default: system tray mode)")
	fs.StringVar(&o.apiSecret, "api-secret", "", "Secret screen clients must pass as ?secret= (optional)")
	fs.StringVar(&o.platform, "platform", string(wallet.PlatformIOS), "Wallet platform to emulate: ios or android")
	fs.StringVar(&o.walletDB, "wallet-db", "", "Wallet database file (default: in the user config dir)")
	fs.StringVar(&o.passesFile, "passes", "", "JSON file listing the passes offered by the wallet screen")
	fs.StringVar(&o.broadcastText, "broadcast-text", screen.DefaultBroadcastText, "Initial broadcast text")
	fs.BoolVar(&o.tls, "tls", false, "Serve over TLS with a locally trusted certificate")
	fs.BoolVar(&o.noMDNS, "no-mdns", false, "Do not advertise the agent over mDNS")
	fs.BoolVar(&o.version, "version", false, "Print build information and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.port < 0 || o.port > 65535 {
		return o, fmt.Errorf("invalid port %d", o.port)
	}
	return o, nil
}

// agentConfig validates the options that need more than flag parsing.
func (o options) agentConfig() (AgentConfig, error) {
	platform, err := wallet.ParsePlatform(o.platform)
	if err != nil {
		return AgentConfig{}, err
	}

	var passes []wallet.PassIdentity
	if o.passesFile != "" {
		if passes, err = wallet.LoadPasses(o.passesFile); err != nil {
			return AgentConfig{}, err
		}
	}

	return AgentConfig{
		DevicePath:    o.devicePath,
		Port:          o.port,
		APISecret:     o.apiSecret,
		Platform:      platform,
		WalletDB:      o.walletDB,
		Passes:        passes,
		BroadcastText: o.broadcastText,
		EnableTLS:     o.tls,
		DisableMDNS:   o.noMDNS,
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}
	if opts.version {
		fmt.Println(buildinfo.BuildInfo())
		return
	}

	cfg, err := opts.agentConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	agent := NewAgent(nfc.NewManager(), cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if opts.cli {
		if err := agent.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start agent: %v", err)
		}
		defer agent.Stop()

		log.Printf("%s %s listening for screens on %s", buildinfo.DisplayName, buildinfo.FullVersion(), agent.ScreenURL())
		<-sigChan
		log.Println("Shutdown signal received, stopping agent...")
		return
	}

	app := NewSystrayApp(agent)
	go func() {
		<-sigChan
		systray.Quit()
	}()
	app.Run()
}
