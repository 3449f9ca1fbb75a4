// Package protocol defines the JSON messages exchanged between the agent and
// screen clients. It has no dependencies on the server so clients can
// import it on its own.
package protocol

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status   string       `json:"status"` // "ok"
	Name     string       `json:"name"`
	Version  string       `json:"version"`
	Platform string       `json:"platform"`
	Reader   ReaderStatus `json:"reader"`
}

// ReaderStatus describes the NFC reader connection.
type ReaderStatus struct {
	Connected bool   `json:"connected"`
	Device    string `json:"device,omitempty"`
}

// ScreensResponse is returned by GET /api/v1/screens and the screens.get
// request. The screen values are the snapshots published on the socket.
type ScreensResponse struct {
	NFC    any `json:"nfc"`
	Wallet any `json:"wallet"`
}

// Error codes carried in ErrorInfo.Code.
const (
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeBusy           = "BUSY"
	ErrCodeUnsupported    = "UNSUPPORTED"
	ErrCodeClosed         = "CLOSED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
