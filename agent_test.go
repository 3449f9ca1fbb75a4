package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dotside-studios/davi-tap-lab/nfc"
	"github.com/dotside-studios/davi-tap-lab/screen"
	"github.com/dotside-studios/davi-tap-lab/wallet"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	return NewAgent(nfc.NewMockManager(), AgentConfig{
		WalletDB:    ":memory:",
		ConfigDir:   t.TempDir(),
		DisableMDNS: true,
	})
}

func TestNewAgentDefaults(t *testing.T) {
	agent := NewAgent(nfc.NewMockManager(), AgentConfig{})
	if agent.Config.Platform != wallet.PlatformIOS {
		t.Errorf("platform = %q", agent.Config.Platform)
	}
	if len(agent.Config.Passes) != 2 {
		t.Errorf("passes = %+v", agent.Config.Passes)
	}
	if agent.Running() {
		t.Error("new agent should not be running")
	}
}

func TestAgentStartStop(t *testing.T) {
	agent := newTestAgent(t)

	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !agent.Running() {
		t.Fatal("agent should be running")
	}
	if err := agent.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	nfcScreen, walletScreen := agent.Screens()
	if nfcScreen == nil || walletScreen == nil {
		t.Fatal("screens not created")
	}
	if got := nfcScreen.Snapshot().BroadcastText; got != screen.DefaultBroadcastText {
		t.Errorf("broadcast text = %q", got)
	}
	if !strings.HasPrefix(agent.ScreenURL(), "ws://") {
		t.Errorf("ScreenURL = %q", agent.ScreenURL())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := walletScreen.CanAddPasses(ctx); err != nil {
		t.Fatal(err)
	}
	if st := walletScreen.Snapshot(); st.CanAddPasses != screen.Yes {
		t.Errorf("local wallet should allow adding passes, got %+v", st)
	}

	agent.Stop()
	if agent.Running() {
		t.Error("agent should be stopped")
	}
	if n, w := agent.Screens(); n != nil || w != nil {
		t.Error("screens should be released after Stop")
	}
	if err := walletScreen.CanAddPasses(ctx); err == nil {
		t.Error("closed screen accepted an action")
	}

	// Stopping twice is harmless.
	agent.Stop()
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (r *recordingNotifier) Alert(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, title+": "+message)
}

func TestAgentAlertFansOut(t *testing.T) {
	agent := newTestAgent(t)
	first, second := &recordingNotifier{}, &recordingNotifier{}
	agent.AddNotifier(first)
	agent.AddNotifier(second)

	agent.Alert("Error", "Failed to read NFC")

	for _, n := range []*recordingNotifier{first, second} {
		if len(n.alerts) != 1 || n.alerts[0] != "Error: Failed to read NFC" {
			t.Errorf("alerts = %v", n.alerts)
		}
	}
}

func TestTrayTitles(t *testing.T) {
	msg, at := nfcResultTitles(screen.NFCState{})
	if msg != "Message: None" || at != "Time: None" {
		t.Errorf("empty titles = %q, %q", msg, at)
	}

	msg, at = nfcResultTitles(screen.NFCState{
		Result:     &screen.TagReadResult{Message: "Hello NFC!", Time: "2024-01-01T00:00:00.000Z"},
		ResultTime: "2024-01-01 00:00:00",
	})
	if msg != "Message: Hello NFC!" || at != "Time: 2024-01-01 00:00:00" {
		t.Errorf("titles = %q, %q", msg, at)
	}

	if got := walletResultTitle(screen.WalletState{Busy: "Adding Pass 1..."}); got != "Adding Pass 1..." {
		t.Errorf("busy title = %q", got)
	}
	if got := walletResultTitle(screen.WalletState{}); got != "Result: None" {
		t.Errorf("empty title = %q", got)
	}
	if got := walletResultTitle(screen.WalletState{Result: "Add Pass: true"}); got != "Add Pass: true" {
		t.Errorf("result title = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
