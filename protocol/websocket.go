package protocol

import "encoding/json"

// Request types sent by clients.
const (
	WSTypeNFCRead             = "nfc.read"
	WSTypeNFCBroadcast        = "nfc.broadcast"
	WSTypeNFCSetBroadcastText = "nfc.setBroadcastText"

	WSTypeWalletCanAddPasses = "wallet.canAddPasses"
	WSTypeWalletAddPass      = "wallet.addPass"
	WSTypeWalletHasPass      = "wallet.hasPass"
	WSTypeWalletRemovePass   = "wallet.removePass"
	WSTypeWalletViewPass     = "wallet.viewPass"

	WSTypeScreensGet = "screens.get"
)

// Message types pushed by the agent.
const (
	WSTypeNFCScreen    = "nfcScreen"
	WSTypeWalletScreen = "walletScreen"
	WSTypeAlert        = "alert"
	WSTypeError        = "error"
)

// WebSocketMessage is the envelope of messages pushed by the agent.
type WebSocketMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WebSocketRequest is a request from a client.
type WebSocketRequest struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketResponse answers a WebSocketRequest with the same ID.
type WebSocketResponse struct {
	ID      string     `json:"id,omitempty"`
	Type    string     `json:"type"`
	Success bool       `json:"success"`
	Payload any        `json:"payload,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// SetBroadcastTextPayload is the payload of nfc.setBroadcastText.
type SetBroadcastTextPayload struct {
	Text string `json:"text"`
}

// PassActionPayload is the payload of the per-pass wallet requests.
type PassActionPayload struct {
	Label string `json:"label"`
}

// AlertPayload is a user-visible notice.
type AlertPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
