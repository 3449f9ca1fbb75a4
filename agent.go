package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/dotside-studios/davi-tap-lab/buildinfo"
	"github.com/dotside-studios/davi-tap-lab/nfc"
	"github.com/dotside-studios/davi-tap-lab/screen"
	"github.com/dotside-studios/davi-tap-lab/server"
	"github.com/dotside-studios/davi-tap-lab/tls"
	"github.com/dotside-studios/davi-tap-lab/wallet"
	"github.com/dotside-studios/davi-tap-lab/wallet/store"
)

// AgentConfig collects the command line settings.
type AgentConfig struct {
	DevicePath    string
	Port          int
	APISecret     string
	Platform      wallet.Platform
	WalletDB      string                // defaults to <config dir>/wallet.db
	Passes        []wallet.PassIdentity // defaults to wallet.DefaultPasses
	BroadcastText string
	EnableTLS     bool
	DisableMDNS   bool
	ConfigDir     string // defaults to the user config dir
}

// Agent owns the NFC session manager, the local wallet, both screens and
// the screen server.
type Agent struct {
	Logger  *log.Logger
	Manager nfc.Manager
	Config  AgentConfig

	Tech   *nfc.TechManager
	NFC    *screen.NFCScreen
	Wallet *screen.WalletScreen
	Server *server.Server

	db     *sql.DB
	writer *store.Worker
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	notifiers []screen.Notifier
}

func NewAgent(manager nfc.Manager, cfg AgentConfig) *Agent {
	if cfg.Platform == "" {
		cfg.Platform = wallet.PlatformIOS
	}
	if len(cfg.Passes) == 0 {
		cfg.Passes = wallet.DefaultPasses()
	}
	return &Agent{
		Logger:  log.New(os.Stderr, "[agent] ", log.LstdFlags),
		Manager: manager,
		Config:  cfg,
	}
}

// AddNotifier registers an extra receiver of screen notices.
func (a *Agent) AddNotifier(n screen.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// Alert logs a screen notice and forwards it to the connected clients and
// the registered notifiers.
func (a *Agent) Alert(title, message string) {
	a.Logger.Printf("%s: %s", title, message)

	a.mu.Lock()
	srv := a.Server
	notifiers := append([]screen.Notifier(nil), a.notifiers...)
	a.mu.Unlock()

	if srv != nil {
		srv.Alert(title, message)
	}
	for _, n := range notifiers {
		n.Alert(title, message)
	}
}

// configDir returns the directory for the wallet database and certificates.
func (a *Agent) configDir() (string, error) {
	if a.Config.ConfigDir != "" {
		return a.Config.ConfigDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, buildinfo.DirName), nil
}

// Start wires every component and serves the screens in the background.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	running := a.Server != nil
	a.mu.Unlock()
	if running {
		return errors.New("agent is already running")
	}

	dir, err := a.configDir()
	if err != nil {
		return err
	}
	dbPath := a.Config.WalletDB
	if dbPath == "" {
		dbPath = filepath.Join(dir, "wallet.db")
	}

	db, err := store.Open(ctx, store.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("open wallet database: %w", err)
	}
	writer := store.NewWorker(db)
	local := wallet.NewLocalWallet(wallet.LocalConfig{Platform: a.Config.Platform}, store.NewPassStore(db, writer))
	a.Logger.Printf("Wallet database: %s (platform %s)", dbPath, local.Platform())

	tech := nfc.NewTechManager(a.Manager, a.Config.DevicePath)
	tech.Start()

	notifier := screen.NotifierFunc(a.Alert)
	nfcScreen := screen.NewNFCScreen(screen.NFCConfig{
		Technology:    tech,
		Notifier:      notifier,
		BroadcastText: a.Config.BroadcastText,
	})
	walletScreen := screen.NewWalletScreen(screen.WalletConfig{
		Manager:  local,
		Platform: local.Platform(),
		Passes:   a.Config.Passes,
	})

	srvCfg := server.Config{
		NFC:         nfcScreen,
		Wallet:      walletScreen,
		Reader:      tech,
		Port:        a.Config.Port,
		APISecret:   a.Config.APISecret,
		DisableMDNS: a.Config.DisableMDNS,
	}
	if a.Config.EnableTLS {
		certs := tls.NewManager(dir)
		if srvCfg.CertFile, srvCfg.KeyFile, err = certs.EnsureCertificates(); err != nil {
			a.Logger.Printf("TLS disabled: %v", err)
			srvCfg.CertFile, srvCfg.KeyFile = "", ""
		}
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		nfcScreen.Close()
		walletScreen.Close()
		tech.Close()
		writer.Close()
		db.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.Tech, a.NFC, a.Wallet, a.Server = tech, nfcScreen, walletScreen, srv
	a.db, a.writer, a.cancel, a.done = db, writer, cancel, done
	a.mu.Unlock()

	go func() {
		defer close(done)
		if err := srv.Start(runCtx); err != nil {
			a.Logger.Printf("Server stopped: %v", err)
		}
	}()
	return nil
}

// Screens returns the running screens, or nils when the agent is stopped.
func (a *Agent) Screens() (*screen.NFCScreen, *screen.WalletScreen) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.NFC, a.Wallet
}

// ReaderStatus returns the reader connection of the running agent.
func (a *Agent) ReaderStatus() nfc.DeviceStatus {
	a.mu.Lock()
	tech := a.Tech
	a.mu.Unlock()
	if tech == nil {
		return nfc.DeviceStatus{}
	}
	return tech.Status()
}

// Running reports whether Start has succeeded and Stop has not been called.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Server != nil
}

// ScreenURL is the websocket address clients connect to.
func (a *Agent) ScreenURL() string {
	a.mu.Lock()
	srv := a.Server
	a.mu.Unlock()

	scheme := "ws"
	if srv != nil && srv.TLSEnabled() {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, tls.PreferredHost(), a.Config.Port, server.RouteWS)
}

// Stop tears the screens down first so running operations release their
// sessions, then stops the server and closes the wallet database.
func (a *Agent) Stop() {
	a.mu.Lock()
	if a.Server == nil {
		a.mu.Unlock()
		a.Logger.Println("Agent is not running")
		return
	}
	tech, nfcScreen, walletScreen, srv := a.Tech, a.NFC, a.Wallet, a.Server
	db, writer, cancel, done := a.db, a.writer, a.cancel, a.done
	a.Tech, a.NFC, a.Wallet, a.Server = nil, nil, nil, nil
	a.db, a.writer, a.cancel, a.done = nil, nil, nil, nil
	a.mu.Unlock()

	a.Logger.Println("Stopping agent...")

	nfcScreen.Close()
	walletScreen.Close()

	srv.Stop()
	cancel()
	<-done

	tech.Close()
	writer.Close()
	if err := db.Close(); err != nil {
		a.Logger.Printf("Closing wallet database: %v", err)
	}

	a.Logger.Println("Agent stopped successfully")
}
