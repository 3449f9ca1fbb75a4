package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dotside-studios/davi-tap-lab/protocol"
)

func noopHandler(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
	return nil
}

func TestHandlerRegistry_Handle(t *testing.T) {
	tests := []struct {
		name        string
		messageType string
		handler     HandlerFunc
		wantErr     bool
	}{
		{"valid handler", protocol.WSTypeNFCRead, noopHandler, false},
		{"nil handler", protocol.WSTypeNFCBroadcast, nil, true},
		{"empty message type", "", noopHandler, true},
		{"duplicate", protocol.WSTypeNFCRead, noopHandler, true},
	}

	registry := NewHandlerRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Handle(tt.messageType, tt.handler)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle(%q) error = %v, wantErr %v", tt.messageType, err, tt.wantErr)
			}
		})
	}

	if !registry.Has(protocol.WSTypeNFCRead) {
		t.Error("expected nfc.read to be registered")
	}
	if registry.Has(protocol.WSTypeNFCBroadcast) {
		t.Error("nil handler should not have been registered")
	}
}

func TestHandlerRegistry_GetRunsHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	wantErr := errors.New("handler failed")

	var got protocol.WebSocketRequest
	registry.Handle(protocol.WSTypeScreensGet, func(ctx context.Context, conn *Conn, req protocol.WebSocketRequest) error {
		got = req
		return wantErr
	})

	h, ok := registry.Get(protocol.WSTypeScreensGet)
	if !ok {
		t.Fatal("handler not found")
	}
	req := protocol.WebSocketRequest{ID: "42", Type: protocol.WSTypeScreensGet}
	if err := h(context.Background(), nil, req); err != wantErr {
		t.Fatalf("handler error = %v, want %v", err, wantErr)
	}
	if got.ID != "42" {
		t.Errorf("handler received %+v", got)
	}

	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("expected unknown type not to be found")
	}
}

func TestHandlerRegistry_MessageTypesSorted(t *testing.T) {
	registry := NewHandlerRegistry()
	if n := len(registry.MessageTypes()); n != 0 {
		t.Fatalf("empty registry has %d types", n)
	}

	registry.Handle(protocol.WSTypeWalletAddPass, noopHandler)
	registry.Handle(protocol.WSTypeNFCRead, noopHandler)
	registry.Handle(protocol.WSTypeScreensGet, noopHandler)

	want := []string{protocol.WSTypeNFCRead, protocol.WSTypeScreensGet, protocol.WSTypeWalletAddPass}
	got := registry.MessageTypes()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("MessageTypes() = %v, want %v", got, want)
	}
}

func TestHandlerRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewHandlerRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			registry.Handle(fmt.Sprintf("type.%d", i), noopHandler)
		}(i)
		go func(i int) {
			defer wg.Done()
			registry.Get(fmt.Sprintf("type.%d", i))
			registry.MessageTypes()
		}(i)
	}
	wg.Wait()

	if n := len(registry.MessageTypes()); n != 50 {
		t.Errorf("registered %d types, want 50", n)
	}
}

func TestHandlerRegistry_StartLifecycleHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.Handle("regular", noopHandler)

	var order []int
	for i := 1; i <= 3; i++ {
		registry.RegisterLifecycle(func(ctx context.Context) {
			if ctx == nil {
				t.Error("lifecycle function did not receive context")
			}
			order = append(order, i)
		})
	}

	registry.StartLifecycleHandlers(context.Background())
	if fmt.Sprint(order) != "[1 2 3]" {
		t.Errorf("lifecycle order = %v", order)
	}

	// Starting an empty registry is a no-op.
	NewHandlerRegistry().StartLifecycleHandlers(context.Background())
}
