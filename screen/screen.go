// Package screen holds the two interaction controllers, NFC and Wallet.
// Each screen is an explicit state struct guarded by a mutex. Actions are
// rejected rather than queued while another one runs, and every state change
// is published to subscribers as an immutable snapshot.
package screen

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dotside-studios/davi-tap-lab/wallet"
)

var (
	// ErrBusy is returned when an action is attempted while another runs.
	ErrBusy = errors.New("screen is busy")

	// ErrClosed is returned after the screen has been torn down.
	ErrClosed = errors.New("screen is closed")

	// ErrUnsupported is returned for actions the platform does not offer.
	ErrUnsupported = fmt.Errorf("screen: %w", wallet.ErrUnsupported)

	// ErrUnknownPass is returned for a pass label that is not configured.
	ErrUnknownPass = errors.New("unknown pass")
)

var logger = log.New(os.Stderr, "[screen] ", log.LstdFlags)

// Notifier shows a short user-visible notice.
type Notifier interface {
	Alert(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Alert(title, message string) { f(title, message) }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// subscriberBuffer is the channel depth per subscriber. Slow subscribers miss
// intermediate snapshots but can always read the latest via Snapshot.
const subscriberBuffer = 16

type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func (b *broadcaster[T]) subscribe() (<-chan T, func()) {
	ch := make(chan T, subscriberBuffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan T]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// TriState is a last-observed yes/no answer that starts out unknown.
type TriState int

const (
	Unknown TriState = iota
	Yes
	No
)

// TriStateOf converts a definite answer.
func TriStateOf(b bool) TriState {
	if b {
		return Yes
	}
	return No
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Unknown"
	}
}

func (t TriState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func yesNo(b bool) string {
	return TriStateOf(b).String()
}
