package nfc

import (
	"fmt"
	"time"

	"github.com/clausecker/nfc/v2"
)

// defaultManager implements Manager using libnfc.
type defaultManager struct{}

// NewManager returns the libnfc-backed Manager.
func NewManager() Manager {
	return &defaultManager{}
}

func (m *defaultManager) OpenDevice(deviceStr string) (Device, error) {
	dev, err := nfc.Open(deviceStr)
	if err != nil {
		return nil, NewNoDeviceError("OpenDevice", err)
	}
	return NewDevice(dev), nil
}

func (m *defaultManager) ListDevices() ([]string, error) {
	var devices []string
	var err error
	for i := 0; i < DeviceEnumRetries; i++ {
		devices, err = nfc.ListDevices()
		if err == nil {
			return devices, nil
		}
		time.Sleep(DeviceEnumRetryDelay)
	}
	return nil, fmt.Errorf("failed to list NFC devices after %d retries: %w", DeviceEnumRetries, err)
}
