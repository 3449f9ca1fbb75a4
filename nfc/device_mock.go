package nfc

import (
	"fmt"
	"sync"
)

// MockDevice is a Device whose field contents are set by tests.
type MockDevice struct {
	// DeviceName is returned by String.
	DeviceName string

	// DeviceConnection is returned by Connection.
	DeviceConnection string

	// IsOpen tracks whether the device is open.
	IsOpen bool

	// InitError, if set, is returned by InitiatorInit.
	InitError error

	// GetTagsFunc overrides GetTags when set.
	GetTagsFunc func() ([]Tag, error)

	// GetTagsError, if set, is returned by GetTags.
	GetTagsError error

	// CallLog records method calls for verification in tests.
	CallLog []string

	tags []Tag
	mu   sync.Mutex
}

// NewMockDevice creates an open MockDevice with an empty field.
func NewMockDevice() *MockDevice {
	return &MockDevice{
		DeviceName:       "Mock NFC Reader",
		DeviceConnection: "mock:usb:001",
		IsOpen:           true,
	}
}

func (m *MockDevice) reopen(conn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeviceConnection = conn
	m.IsOpen = true
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "Close")
	if !m.IsOpen {
		return fmt.Errorf("device already closed")
	}
	m.IsOpen = false
	return nil
}

func (m *MockDevice) InitiatorInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "InitiatorInit")
	if !m.IsOpen {
		return fmt.Errorf("device not open")
	}
	return m.InitError
}

func (m *MockDevice) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceName
}

func (m *MockDevice) Connection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceConnection
}

// GetTags returns the tags currently placed in the field.
func (m *MockDevice) GetTags() ([]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "GetTags")
	if !m.IsOpen {
		return nil, fmt.Errorf("device not open")
	}
	if m.GetTagsFunc != nil {
		return m.GetTagsFunc()
	}
	if m.GetTagsError != nil {
		return nil, m.GetTagsError
	}
	return append([]Tag(nil), m.tags...), nil
}

// AddTag places a tag in the field.
func (m *MockDevice) AddTag(tag Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append(m.tags, tag)
}

// ClearTags removes every tag from the field.
func (m *MockDevice) ClearTags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = nil
}

// GetCallLog returns a copy of the call log.
func (m *MockDevice) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}
