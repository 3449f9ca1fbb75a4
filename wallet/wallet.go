// Package wallet defines the pass manager boundary used by the wallet screen
// and a local, SQLite-backed implementation of it.
package wallet

import (
	"context"
	"errors"
)

// Action names a wallet screen operation.
type Action string

const (
	ActionCanAddPasses Action = "canAddPasses"
	ActionAddPass      Action = "addPass"
	ActionHasPass      Action = "hasPass"
	ActionRemovePass   Action = "removePass"
	ActionViewPass     Action = "viewPass"
)

// AllActions lists every action in display order.
var AllActions = []Action{ActionCanAddPasses, ActionAddPass, ActionHasPass, ActionRemovePass, ActionViewPass}

var (
	// ErrUnsupported is returned for actions the platform does not offer.
	ErrUnsupported = errors.New("operation not supported on this platform")

	// ErrPassNotFound is returned when no stored pass matches.
	ErrPassNotFound = errors.New("pass not found")
)

// PassManager is the wallet SDK surface the wallet screen drives.
type PassManager interface {
	CanAddPasses(ctx context.Context) (Result, error)
	AddPassFromURL(ctx context.Context, url string) (Result, error)
	HasPass(ctx context.Context, passTypeIdentifier, serialNumber string) (Result, error)
	RemovePass(ctx context.Context, passTypeIdentifier string) (Result, error)
	ViewInWallet(ctx context.Context, passTypeIdentifier string) (Result, error)
}
