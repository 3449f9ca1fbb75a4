package nfc

import (
	"fmt"
	"sync"
)

// MockManager is a Manager that hands out a single MockDevice.
//
// Example:
//
//	manager := NewMockManager()
//	manager.MockDevice.AddTag(NewMockTag("04A1B2C3"))
//	tm := NewTechManager(manager, "")
type MockManager struct {
	// DevicesList is returned by ListDevices.
	DevicesList []string

	// ListDevicesError, if set, is returned by ListDevices.
	ListDevicesError error

	// MockDevice is returned by OpenDevice. A fresh one is created when nil.
	MockDevice *MockDevice

	// OpenDeviceError, if set, is returned by OpenDevice.
	OpenDeviceError error

	// CallLog records method calls for verification in tests.
	CallLog []string

	mu sync.Mutex
}

// NewMockManager creates a MockManager with one device listed.
func NewMockManager() *MockManager {
	return &MockManager{
		DevicesList: []string{"mock:usb:001"},
		MockDevice:  NewMockDevice(),
	}
}

func (m *MockManager) OpenDevice(deviceStr string) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("OpenDevice(%s)", deviceStr))
	if m.OpenDeviceError != nil {
		return nil, m.OpenDeviceError
	}
	if m.MockDevice == nil {
		m.MockDevice = NewMockDevice()
	}
	m.MockDevice.reopen(deviceStr)
	return m.MockDevice, nil
}

func (m *MockManager) ListDevices() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "ListDevices")
	if m.ListDevicesError != nil {
		return nil, m.ListDevicesError
	}
	return append([]string(nil), m.DevicesList...), nil
}

// GetCallLog returns a copy of the call log.
func (m *MockManager) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}
