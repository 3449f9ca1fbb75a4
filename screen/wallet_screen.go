package screen

import (
	"context"
	"fmt"
	"sync"

	"github.com/dotside-studios/davi-tap-lab/wallet"
)

// PassState is the last observed state of one configured pass.
type PassState struct {
	Label        string   `json:"label"`
	SerialNumber string   `json:"serialNumber"`
	HasPass      TriState `json:"hasPass"`
}

// WalletState is a snapshot of the wallet screen.
type WalletState struct {
	Platform     wallet.Platform `json:"platform"`
	Actions      []wallet.Action `json:"actions"`
	Busy         string          `json:"busy,omitempty"` // label of the running action
	Result       string          `json:"result,omitempty"`
	CanAddPasses TriState        `json:"canAddPasses"`
	Passes       []PassState     `json:"passes"`
}

// IsBusy reports whether the action controls are disabled.
func (s WalletState) IsBusy() bool {
	return s.Busy != ""
}

func (s WalletState) clone() WalletState {
	s.Actions = append([]wallet.Action(nil), s.Actions...)
	s.Passes = append([]PassState(nil), s.Passes...)
	return s
}

// WalletConfig wires a WalletScreen. Passes defaults to wallet.DefaultPasses.
type WalletConfig struct {
	Manager  wallet.PassManager
	Platform wallet.Platform
	Passes   []wallet.PassIdentity
}

// WalletScreen runs one pass manager call at a time and shows its outcome.
type WalletScreen struct {
	manager  wallet.PassManager
	platform wallet.Platform
	passes   []wallet.PassIdentity

	life     context.Context
	shutdown context.CancelFunc

	mu    sync.Mutex
	state WalletState

	subs broadcaster[WalletState]
}

func NewWalletScreen(cfg WalletConfig) *WalletScreen {
	if cfg.Platform == "" {
		cfg.Platform = wallet.PlatformIOS
	}
	if len(cfg.Passes) == 0 {
		cfg.Passes = wallet.DefaultPasses()
	}

	passes := make([]PassState, len(cfg.Passes))
	for i, p := range cfg.Passes {
		passes[i] = PassState{Label: p.Label, SerialNumber: p.SerialNumber}
	}

	life, shutdown := context.WithCancel(context.Background())
	return &WalletScreen{
		manager:  cfg.Manager,
		platform: cfg.Platform,
		passes:   append([]wallet.PassIdentity(nil), cfg.Passes...),
		life:     life,
		shutdown: shutdown,
		state: WalletState{
			Platform: cfg.Platform,
			Actions:  cfg.Platform.Actions(),
			Passes:   passes,
		},
	}
}

// Actions lists the actions available on the configured platform.
func (s *WalletScreen) Actions() []wallet.Action {
	return s.platform.Actions()
}

// Passes returns the configured pass identities.
func (s *WalletScreen) Passes() []wallet.PassIdentity {
	return append([]wallet.PassIdentity(nil), s.passes...)
}

func (s *WalletScreen) Snapshot() WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel of state snapshots and a function that ends
// the subscription.
func (s *WalletScreen) Subscribe() (<-chan WalletState, func()) {
	return s.subs.subscribe()
}

func (s *WalletScreen) CanAddPasses(ctx context.Context) error {
	return s.Do(ctx, wallet.ActionCanAddPasses, "")
}

func (s *WalletScreen) AddPass(ctx context.Context, label string) error {
	return s.Do(ctx, wallet.ActionAddPass, label)
}

func (s *WalletScreen) HasPass(ctx context.Context, label string) error {
	return s.Do(ctx, wallet.ActionHasPass, label)
}

func (s *WalletScreen) RemovePass(ctx context.Context, label string) error {
	return s.Do(ctx, wallet.ActionRemovePass, label)
}

func (s *WalletScreen) ViewPass(ctx context.Context, label string) error {
	return s.Do(ctx, wallet.ActionViewPass, label)
}

// Do runs action against the pass with the given label; canAddPasses takes
// no label. Pass manager failures are shown as the result text, so Do only
// fails when the action cannot start.
func (s *WalletScreen) Do(ctx context.Context, action wallet.Action, label string) error {
	if !s.platform.Supports(action) {
		return fmt.Errorf("%s: %w", action, ErrUnsupported)
	}

	var pass wallet.PassIdentity
	passIdx := -1
	if action != wallet.ActionCanAddPasses {
		for i, p := range s.passes {
			if p.Label == label {
				pass, passIdx = p, i
				break
			}
		}
		if passIdx < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownPass, label)
		}
	}

	opCtx, done, err := s.begin(ctx, busyLabel(action, label))
	if err != nil {
		return err
	}
	defer done()

	var text string
	switch action {
	case wallet.ActionCanAddPasses:
		res, err := s.manager.CanAddPasses(opCtx)
		if err == nil {
			can := res.Truthy()
			s.update(func(st *WalletState) { st.CanAddPasses = TriStateOf(can) })
			text = "Can Add Passes: " + yesNo(can)
		}
		text = resultText(text, err)
	case wallet.ActionAddPass:
		res, err := s.manager.AddPassFromURL(opCtx, pass.URL)
		text = resultText("Add Pass: "+res.JSON(), err)
	case wallet.ActionHasPass:
		res, err := s.manager.HasPass(opCtx, pass.PassTypeIdentifier, pass.SerialNumber)
		if err == nil {
			has := res.Truthy()
			s.update(func(st *WalletState) { st.Passes[passIdx].HasPass = TriStateOf(has) })
			text = "Has Pass: " + yesNo(has)
		}
		text = resultText(text, err)
	case wallet.ActionRemovePass:
		res, err := s.manager.RemovePass(opCtx, pass.PassTypeIdentifier)
		text = resultText("Remove Pass: "+res.JSON(), err)
	case wallet.ActionViewPass:
		res, err := s.manager.ViewInWallet(opCtx, pass.PassTypeIdentifier)
		text = resultText("View Pass: "+res.JSON(), err)
	}

	s.update(func(st *WalletState) { st.Result = text })
	return nil
}

func resultText(text string, err error) string {
	if err != nil {
		logger.Printf("Wallet action failed: %v", err)
		return "Error: " + err.Error()
	}
	return text
}

func busyLabel(action wallet.Action, label string) string {
	switch action {
	case wallet.ActionAddPass:
		return "Adding " + label + "..."
	case wallet.ActionHasPass:
		return "Checking " + label + "..."
	case wallet.ActionRemovePass:
		return "Removing " + label + "..."
	case wallet.ActionViewPass:
		return "Opening " + label + "..."
	default:
		return "Checking..."
	}
}

// begin sets the busy label and clears the previous result. The returned
// context ends when ctx ends or the screen is closed.
func (s *WalletScreen) begin(ctx context.Context, label string) (context.Context, func(), error) {
	s.mu.Lock()
	if s.life.Err() != nil {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	if s.state.IsBusy() {
		s.mu.Unlock()
		return nil, nil, ErrBusy
	}
	s.state.Busy = label
	s.state.Result = ""
	snap := s.state.clone()
	s.mu.Unlock()
	s.subs.publish(snap)

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)

	return opCtx, func() {
		stop()
		cancel()
		s.update(func(st *WalletState) { st.Busy = "" })
	}, nil
}

func (s *WalletScreen) update(fn func(*WalletState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()
	s.subs.publish(snap)
}

// Close cancels a running pass manager call and rejects further actions.
func (s *WalletScreen) Close() {
	s.shutdown()
}
