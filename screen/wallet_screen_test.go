package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dotside-studios/davi-tap-lab/wallet"
)

func newTestWalletScreen(platform wallet.Platform) (*WalletScreen, *wallet.MockPassManager) {
	mock := wallet.NewMockPassManager()
	s := NewWalletScreen(WalletConfig{Manager: mock, Platform: platform})
	return s, mock
}

func TestWalletScreen_CanAddPassesTriState(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)

	if got := s.Snapshot().CanAddPasses.String(); got != "Unknown" {
		t.Errorf("before any check = %q, want Unknown", got)
	}

	mock.SetResult(wallet.ActionCanAddPasses, wallet.BoolResult(true))
	if err := s.CanAddPasses(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.CanAddPasses != Yes || st.Result != "Can Add Passes: Yes" {
		t.Errorf("after true: %v %q", st.CanAddPasses, st.Result)
	}

	mock.SetResult(wallet.ActionCanAddPasses, wallet.BoolResult(false))
	s.CanAddPasses(context.Background())
	st = s.Snapshot()
	if st.CanAddPasses != No || st.Result != "Can Add Passes: No" {
		t.Errorf("after false: %v %q", st.CanAddPasses, st.Result)
	}
}

func TestWalletScreen_ResultFormatting(t *testing.T) {
	tests := []struct {
		name   string
		action wallet.Action
		result wallet.Result
		want   string
	}{
		{"add bool", wallet.ActionAddPass, wallet.BoolResult(true), "Add Pass: true"},
		{"add none", wallet.ActionAddPass, wallet.NoneResult(), "Add Pass: null"},
		{"remove object", wallet.ActionRemovePass, wallet.ObjectResult(map[string]any{"removed": 1}), `Remove Pass: {"removed":1}`},
		{"view text", wallet.ActionViewPass, wallet.TextResult("shown"), `View Pass: "shown"`},
		{"has pass yes", wallet.ActionHasPass, wallet.BoolResult(true), "Has Pass: Yes"},
		{"has pass no", wallet.ActionHasPass, wallet.BoolResult(false), "Has Pass: No"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestWalletScreen(wallet.PlatformIOS)
			mock.SetResult(tt.action, tt.result)

			if err := s.Do(context.Background(), tt.action, "Pass 1"); err != nil {
				t.Fatal(err)
			}
			if got := s.Snapshot().Result; got != tt.want {
				t.Errorf("Result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalletScreen_UsesPassIdentity(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	ctx := context.Background()

	s.AddPass(ctx, "Pass 2")
	s.HasPass(ctx, "Pass 2")
	s.RemovePass(ctx, "Pass 1")
	s.ViewPass(ctx, "Pass 1")
	s.CanAddPasses(ctx)

	want := []string{
		"AddPassFromURL(https://www.logica.haus/test/FinalTestPass2.pkpass)",
		"HasPass(pass.haus.logica.exponfctest, serial202)",
		"RemovePass(pass.haus.logica.exponfctest)",
		"ViewInWallet(pass.haus.logica.exponfctest)",
		"CanAddPasses",
	}
	got := mock.GetCallLog()
	if len(got) != len(want) {
		t.Fatalf("calls = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalletScreen_HasPassTracksEachPass(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	mock.SetResult(wallet.ActionHasPass, wallet.BoolResult(true))
	s.HasPass(context.Background(), "Pass 2")

	st := s.Snapshot()
	if st.Passes[0].HasPass != Unknown || st.Passes[1].HasPass != Yes {
		t.Errorf("passes = %+v", st.Passes)
	}
}

func TestWalletScreen_ErrorResult(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	mock.SetError(wallet.ActionHasPass, errors.New("wallet unavailable"))

	if err := s.HasPass(context.Background(), "Pass 1"); err != nil {
		t.Fatalf("manager failures are shown, not returned: %v", err)
	}
	st := s.Snapshot()
	if st.Result != "Error: wallet unavailable" {
		t.Errorf("Result = %q", st.Result)
	}
	if st.Passes[0].HasPass != Unknown {
		t.Errorf("failed check must not change the flag, got %v", st.Passes[0].HasPass)
	}
	if st.IsBusy() {
		t.Error("busy label not cleared")
	}
}

func TestWalletScreen_AndroidHidesRestrictedActions(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformAndroid)

	actions := s.Actions()
	for _, a := range actions {
		if a == wallet.ActionHasPass || a == wallet.ActionRemovePass || a == wallet.ActionViewPass {
			t.Errorf("restricted action %q offered on android", a)
		}
	}
	if len(s.Snapshot().Actions) != 2 {
		t.Errorf("snapshot actions = %v", s.Snapshot().Actions)
	}

	for _, a := range []wallet.Action{wallet.ActionHasPass, wallet.ActionRemovePass, wallet.ActionViewPass} {
		if err := s.Do(context.Background(), a, "Pass 1"); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", a, err)
		}
	}
	if !errors.Is(ErrUnsupported, wallet.ErrUnsupported) {
		t.Error("ErrUnsupported should wrap wallet.ErrUnsupported")
	}
	if len(mock.GetCallLog()) != 0 {
		t.Errorf("restricted actions reached the manager: %v", mock.GetCallLog())
	}
}

func TestWalletScreen_UnknownPass(t *testing.T) {
	s, _ := newTestWalletScreen(wallet.PlatformIOS)
	if err := s.AddPass(context.Background(), "Pass 9"); !errors.Is(err, ErrUnknownPass) {
		t.Errorf("expected ErrUnknownPass, got %v", err)
	}
}

func TestWalletScreen_GlobalBusyFlag(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	mock.Block = make(chan struct{})
	mock.SetResult(wallet.ActionAddPass, wallet.BoolResult(true))

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan error)
	go func() { done <- s.AddPass(context.Background(), "Pass 1") }()

	busy := <-updates
	if busy.Busy != "Adding Pass 1..." || busy.Result != "" {
		t.Fatalf("busy state = %+v", busy)
	}

	if err := s.HasPass(context.Background(), "Pass 2"); !errors.Is(err, ErrBusy) {
		t.Errorf("HasPass on another pass while busy: %v", err)
	}
	if err := s.CanAddPasses(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("CanAddPasses while busy: %v", err)
	}

	close(mock.Block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.IsBusy() || st.Result != "Add Pass: true" {
		t.Errorf("final state = %+v", st)
	}
}

func TestWalletScreen_BusyLabels(t *testing.T) {
	tests := []struct {
		action wallet.Action
		want   string
	}{
		{wallet.ActionCanAddPasses, "Checking..."},
		{wallet.ActionAddPass, "Adding Pass 1..."},
		{wallet.ActionHasPass, "Checking Pass 1..."},
		{wallet.ActionRemovePass, "Removing Pass 1..."},
		{wallet.ActionViewPass, "Opening Pass 1..."},
	}
	for _, tt := range tests {
		if got := busyLabel(tt.action, "Pass 1"); got != tt.want {
			t.Errorf("busyLabel(%s) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestWalletScreen_ClearsPreviousResult(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	mock.SetResult(wallet.ActionCanAddPasses, wallet.BoolResult(true))
	s.CanAddPasses(context.Background())

	mock.Block = make(chan struct{})
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	go s.CanAddPasses(context.Background())
	if st := <-updates; st.Result != "" {
		t.Errorf("result not cleared when action starts: %q", st.Result)
	}
	close(mock.Block)
}

func TestWalletScreen_CloseCancelsInFlight(t *testing.T) {
	s, mock := newTestWalletScreen(wallet.PlatformIOS)
	mock.Block = make(chan struct{})
	defer close(mock.Block)

	done := make(chan error)
	go func() { done <- s.ViewPass(context.Background(), "Pass 1") }()

	deadline := time.After(2 * time.Second)
	for !s.Snapshot().IsBusy() {
		select {
		case <-deadline:
			t.Fatal("action never started")
		case <-time.After(time.Millisecond):
		}
	}

	s.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ViewPass: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight call not cancelled by Close")
	}
	if got := s.Snapshot().Result; got != "Error: "+context.Canceled.Error() {
		t.Errorf("Result = %q", got)
	}
	if err := s.CanAddPasses(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("action after Close: %v", err)
	}
}
