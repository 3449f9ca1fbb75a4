package wallet

import (
	"context"
	"fmt"
	"sync"
)

// MockPassManager is a PassManager with scripted responses.
type MockPassManager struct {
	// Results maps an action to the result it resolves with.
	Results map[Action]Result

	// Errors maps an action to the error it fails with.
	Errors map[Action]error

	// Block, when set, makes every call wait until it is closed or ctx ends.
	Block chan struct{}

	// CallLog records method calls for verification in tests.
	CallLog []string

	mu sync.Mutex
}

var _ PassManager = (*MockPassManager)(nil)

// NewMockPassManager creates a mock that answers every action with NoneResult.
func NewMockPassManager() *MockPassManager {
	return &MockPassManager{
		Results: make(map[Action]Result),
		Errors:  make(map[Action]error),
	}
}

func (m *MockPassManager) call(ctx context.Context, a Action, entry string) (Result, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, entry)
	block := m.Block
	res, ok := m.Results[a]
	err := m.Errors[a]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return NoneResult(), nil
	}
	return res, nil
}

func (m *MockPassManager) CanAddPasses(ctx context.Context) (Result, error) {
	return m.call(ctx, ActionCanAddPasses, "CanAddPasses")
}

func (m *MockPassManager) AddPassFromURL(ctx context.Context, url string) (Result, error) {
	return m.call(ctx, ActionAddPass, fmt.Sprintf("AddPassFromURL(%s)", url))
}

func (m *MockPassManager) HasPass(ctx context.Context, passTypeIdentifier, serialNumber string) (Result, error) {
	return m.call(ctx, ActionHasPass, fmt.Sprintf("HasPass(%s, %s)", passTypeIdentifier, serialNumber))
}

func (m *MockPassManager) RemovePass(ctx context.Context, passTypeIdentifier string) (Result, error) {
	return m.call(ctx, ActionRemovePass, fmt.Sprintf("RemovePass(%s)", passTypeIdentifier))
}

func (m *MockPassManager) ViewInWallet(ctx context.Context, passTypeIdentifier string) (Result, error) {
	return m.call(ctx, ActionViewPass, fmt.Sprintf("ViewInWallet(%s)", passTypeIdentifier))
}

// SetResult scripts the result of an action.
func (m *MockPassManager) SetResult(a Action, r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[a] = r
}

// SetError scripts the error of an action.
func (m *MockPassManager) SetError(a Action, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[a] = err
}

// GetCallLog returns a copy of the call log.
func (m *MockPassManager) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}
