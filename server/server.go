// Package server exposes the NFC and wallet screens over HTTP and a
// websocket, and advertises itself on the local network with mDNS.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"

	"github.com/dotside-studios/davi-tap-lab/buildinfo"
	"github.com/dotside-studios/davi-tap-lab/nfc"
	"github.com/dotside-studios/davi-tap-lab/protocol"
	"github.com/dotside-studios/davi-tap-lab/screen"
)

var logger = log.New(os.Stderr, "[server] ", log.LstdFlags)

// ReaderStatus reports the NFC reader connection.
type ReaderStatus interface {
	Status() nfc.DeviceStatus
}

// Config holds the server configuration
type Config struct {
	NFC       *screen.NFCScreen
	Wallet    *screen.WalletScreen
	Reader    ReaderStatus // optional
	Port      int
	APISecret string // optional secret required on /ws?secret=

	// TLS is enabled when both files are set.
	CertFile string
	KeyFile  string

	DisableMDNS bool
}

// Server manages the HTTP and websocket endpoints.
type Server struct {
	config     Config
	httpServer *http.Server
	cancel     context.CancelFunc
	mu         sync.Mutex

	clients  *WebsocketClientManager
	sessions *SessionManager
	upgrader websocket.Upgrader

	handlerRegistry *HandlerRegistry
	screens         *ScreenHandler

	mdnsServer *zeroconf.Server
}

// New creates a server and registers the screen handlers.
func New(config Config) (*Server, error) {
	if config.NFC == nil || config.Wallet == nil {
		return nil, errors.New("server: both screens are required")
	}

	s := &Server{
		config:   config,
		clients:  NewClientManager(),
		sessions: NewSessionManager(config.APISecret),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handlerRegistry: NewHandlerRegistry(),
		screens:         NewScreenHandler(config.NFC, config.Wallet),
	}

	if err := s.screens.Register(s); err != nil {
		return nil, fmt.Errorf("server: register screen handlers: %w", err)
	}
	return s, nil
}

// Handle implements HandlerServer.
func (s *Server) Handle(messageType string, handler HandlerFunc) error {
	return s.handlerRegistry.Handle(messageType, handler)
}

// StartLifecycle implements HandlerServer.
func (s *Server) StartLifecycle(start func(ctx context.Context)) {
	s.handlerRegistry.RegisterLifecycle(start)
}

// Broadcast implements HandlerServer.
func (s *Server) Broadcast(messageType string, payload any) {
	s.clients.Broadcast(protocol.WebSocketMessage{Type: messageType, Payload: payload})
}

// Alert pushes a notice to connected clients. It makes the server usable as
// a screen.Notifier.
func (s *Server) Alert(title, message string) {
	s.Broadcast(protocol.WSTypeAlert, protocol.AlertPayload{Title: title, Message: message})
}

// enableCORS is a middleware that adds CORS headers to responses
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", CORSAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", CORSAllowHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(RouteHealth, enableCORS(getOnly(s.handleHealthCheck)))
	mux.HandleFunc(RouteScreens, enableCORS(getOnly(s.handleScreens)))
	mux.HandleFunc(RouteWS, s.handleWebSocket)
	mux.HandleFunc("/", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "%s %s running", buildinfo.DisplayName, buildinfo.FullVersion())
	}))
	return mux
}

// TLSEnabled reports whether the server serves HTTPS.
func (s *Server) TLSEnabled() bool {
	return s.config.CertFile != "" && s.config.KeyFile != ""
}

// Start serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("server: listen on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.cancel = cancel
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		scheme := "http"
		var err error
		if s.TLSEnabled() {
			scheme = "https"
			logger.Printf("Starting server on %s://%s", scheme, ln.Addr())
			err = httpServer.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			logger.Printf("Starting server on %s://%s", scheme, ln.Addr())
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !s.config.DisableMDNS {
		if err := s.startMDNS(ln); err != nil {
			logger.Printf("Warning: Failed to start mDNS service: %v", err)
			logger.Printf("Auto-discovery will not be available, but server will continue normally")
		}
	}

	s.handlerRegistry.StartLifecycleHandlers(ctx)

	select {
	case <-ctx.Done():
		logger.Println("Server context cancelled, initiating shutdown...")
		s.Stop()
		return nil
	case err, ok := <-errCh:
		s.Stop()
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() {
	s.mu.Lock()
	mdnsServer, httpServer, cancel := s.mdnsServer, s.httpServer, s.cancel
	s.mdnsServer, s.httpServer, s.cancel = nil, nil, nil
	s.mu.Unlock()

	if mdnsServer != nil {
		mdnsServer.Shutdown()
		logger.Printf("mDNS service stopped")
	}

	s.clients.CloseAll()

	if httpServer != nil {
		ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Printf("Server shutdown error: %v", err)
		}
	}
	if cancel != nil {
		cancel()
	}
}

// startMDNS registers the agent as an mDNS service for auto-discovery.
func (s *Server) startMDNS(ln net.Listener) error {
	port := s.config.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	scheme := "ws"
	if s.TLSEnabled() {
		scheme = "wss"
	}
	txtRecords := []string{
		"version=" + buildinfo.Version,
		"protocol=websocket",
		"scheme=" + scheme,
		"path=" + RouteWS,
	}

	server, err := zeroconf.Register(MDNSServiceName, MDNSServiceType, MDNSDomain, port, txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	s.mu.Lock()
	s.mdnsServer = server
	s.mu.Unlock()
	logger.Printf("mDNS service registered: %s on port %d", MDNSServiceName, port)
	return nil
}

// handleWebSocket upgrades the single client session and dispatches its
// requests. Requests run concurrently so a second action while one is
// running is answered with BUSY instead of waiting.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Authorized(r.URL.Query().Get("secret")) {
		logger.Printf("WebSocket connection rejected: invalid API secret")
		http.Error(w, "Unauthorized: Invalid API secret", http.StatusUnauthorized)
		return
	}
	sessionID, ok := s.sessions.Acquire(r.RemoteAddr)
	if !ok {
		logger.Printf("WebSocket connection rejected: session already claimed")
		http.Error(w, "Session already claimed by another client", http.StatusConflict)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessions.Release()
		logger.Printf("WebSocket upgrade error: %v", err)
		return
	}
	conn := newConn(ws)

	ctx, cancel := context.WithCancel(r.Context())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
		s.clients.Unregister(conn)
		conn.Close()
		s.sessions.Release()
		logger.Printf("WebSocket session %s disconnected", sessionID)
	}()

	logger.Printf("WebSocket session %s connected from %s", sessionID, r.RemoteAddr)
	s.clients.Register(conn)

	conn.WriteJSON(protocol.WebSocketMessage{Type: protocol.WSTypeNFCScreen, Payload: s.screens.NFCPayload()})
	conn.WriteJSON(protocol.WebSocketMessage{Type: protocol.WSTypeWalletScreen, Payload: s.screens.WalletPayload()})

	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req protocol.WebSocketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			logger.Printf("Failed to parse WebSocket message: %v", err)
			conn.SendError("", "", protocol.ErrCodeParse, "Invalid message format")
			continue
		}

		handler, ok := s.handlerRegistry.Get(req.Type)
		if !ok {
			logger.Printf("Unknown message type: %s", req.Type)
			conn.SendError(req.ID, req.Type, protocol.ErrCodeUnknownType, fmt.Sprintf("Unknown message type: %s", req.Type))
			continue
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := handler(ctx, conn, req); err != nil {
				logger.Printf("Handler error for message type '%s': %v", req.Type, err)
			}
		}()
	}
}

// handleHealthCheck serves GET /api/v1/health.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := protocol.HealthResponse{
		Status:   "ok",
		Name:     buildinfo.Name,
		Version:  buildinfo.FullVersion(),
		Platform: string(s.config.Wallet.Snapshot().Platform),
	}
	if s.config.Reader != nil {
		status := s.config.Reader.Status()
		resp.Reader = protocol.ReaderStatus{Connected: status.Connected, Device: status.Device}
	}
	writeJSON(w, resp)
}

// handleScreens serves GET /api/v1/screens.
func (s *Server) handleScreens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.screens.Screens())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf("Failed to write response: %v", err)
	}
}
