package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dotside-studios/davi-tap-lab/protocol"
	"github.com/dotside-studios/davi-tap-lab/screen"
	"github.com/dotside-studios/davi-tap-lab/wallet"
)

// NFCScreenPayload is the nfcScreen message payload: the screen state plus
// the captions of its two controls.
type NFCScreenPayload struct {
	screen.NFCState
	ReadLabel      string `json:"readLabel"`
	BroadcastLabel string `json:"broadcastLabel"`
}

func nfcPayload(st screen.NFCState) NFCScreenPayload {
	return NFCScreenPayload{
		NFCState:       st,
		ReadLabel:      st.ReadLabel(),
		BroadcastLabel: st.BroadcastLabel(),
	}
}

// WalletScreenPayload is the walletScreen message payload.
type WalletScreenPayload struct {
	screen.WalletState
	Pending bool `json:"pending"`
}

func walletPayload(st screen.WalletState) WalletScreenPayload {
	return WalletScreenPayload{WalletState: st, Pending: st.IsBusy()}
}

// ScreenHandler serves the NFC and wallet screen requests and pushes every
// state change of either screen to the connected client.
type ScreenHandler struct {
	nfc    *screen.NFCScreen
	wallet *screen.WalletScreen
}

func NewScreenHandler(nfcScreen *screen.NFCScreen, walletScreen *screen.WalletScreen) *ScreenHandler {
	return &ScreenHandler{nfc: nfcScreen, wallet: walletScreen}
}

// Register implements ServerHandler.
func (h *ScreenHandler) Register(server HandlerServer) error {
	routes := map[string]HandlerFunc{
		protocol.WSTypeNFCRead:             h.handleNFCRead,
		protocol.WSTypeNFCBroadcast:        h.handleNFCBroadcast,
		protocol.WSTypeNFCSetBroadcastText: h.handleSetBroadcastText,
		protocol.WSTypeScreensGet:          h.handleScreensGet,
		protocol.WSTypeWalletCanAddPasses:  h.walletAction(wallet.ActionCanAddPasses),
		protocol.WSTypeWalletAddPass:       h.walletAction(wallet.ActionAddPass),
		protocol.WSTypeWalletHasPass:       h.walletAction(wallet.ActionHasPass),
		protocol.WSTypeWalletRemovePass:    h.walletAction(wallet.ActionRemovePass),
		protocol.WSTypeWalletViewPass:      h.walletAction(wallet.ActionViewPass),
	}
	for messageType, handler := range routes {
		if err := server.Handle(messageType, handler); err != nil {
			return err
		}
	}

	server.StartLifecycle(func(ctx context.Context) {
		nfcUpdates, stopNFC := h.nfc.Subscribe()
		walletUpdates, stopWallet := h.wallet.Subscribe()
		go func() {
			defer stopNFC()
			defer stopWallet()
			for {
				select {
				case <-ctx.Done():
					return
				case st := <-nfcUpdates:
					server.Broadcast(protocol.WSTypeNFCScreen, nfcPayload(st))
				case st := <-walletUpdates:
					server.Broadcast(protocol.WSTypeWalletScreen, walletPayload(st))
				}
			}
		}()
	})
	return nil
}

// NFCPayload returns the current nfcScreen payload.
func (h *ScreenHandler) NFCPayload() NFCScreenPayload {
	return nfcPayload(h.nfc.Snapshot())
}

// WalletPayload returns the current walletScreen payload.
func (h *ScreenHandler) WalletPayload() WalletScreenPayload {
	return walletPayload(h.wallet.Snapshot())
}

// Screens returns both screen payloads.
func (h *ScreenHandler) Screens() protocol.ScreensResponse {
	return protocol.ScreensResponse{NFC: h.NFCPayload(), Wallet: h.WalletPayload()}
}

func (h *ScreenHandler) handleScreensGet(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
	return conn.SendSuccess(req, h.Screens())
}

func (h *ScreenHandler) handleNFCRead(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
	if err := h.nfc.Read(ctx); err != nil {
		return sendScreenError(conn, req, err)
	}
	return conn.SendSuccess(req, h.NFCPayload())
}

func (h *ScreenHandler) handleNFCBroadcast(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
	if err := h.nfc.Broadcast(ctx); err != nil {
		return sendScreenError(conn, req, err)
	}
	return conn.SendSuccess(req, h.NFCPayload())
}

func (h *ScreenHandler) handleSetBroadcastText(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
	var payload protocol.SetBroadcastTextPayload
	if err := decodePayload(req, &payload); err != nil {
		return conn.SendError(req.ID, req.Type, protocol.ErrCodeInvalidPayload, err.Error())
	}
	if err := h.nfc.SetBroadcastText(payload.Text); err != nil {
		return sendScreenError(conn, req, err)
	}
	return conn.SendSuccess(req, h.NFCPayload())
}

func (h *ScreenHandler) walletAction(action wallet.Action) HandlerFunc {
	return func(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
		var payload protocol.PassActionPayload
		if action != wallet.ActionCanAddPasses {
			if err := decodePayload(req, &payload); err != nil {
				return conn.SendError(req.ID, req.Type, protocol.ErrCodeInvalidPayload, err.Error())
			}
		}
		if err := h.wallet.Do(ctx, action, payload.Label); err != nil {
			return sendScreenError(conn, req, err)
		}
		return conn.SendSuccess(req, h.WalletPayload())
	}
}

func decodePayload(req protocol.WebSocketRequest, v any) error {
	if len(req.Payload) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(req.Payload, v)
}

// errorCode maps a screen error to its protocol code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, screen.ErrBusy):
		return protocol.ErrCodeBusy
	case errors.Is(err, wallet.ErrUnsupported):
		return protocol.ErrCodeUnsupported
	case errors.Is(err, screen.ErrUnknownPass):
		return protocol.ErrCodeInvalidPayload
	case errors.Is(err, screen.ErrClosed):
		return protocol.ErrCodeClosed
	default:
		return protocol.ErrCodeInternal
	}
}

func sendScreenError(conn *Conn, req protocol.WebSocketRequest, err error) error {
	if sendErr := conn.SendError(req.ID, req.Type, errorCode(err), err.Error()); sendErr != nil {
		return sendErr
	}
	return err
}
