package nfc

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Reconnection timing used by DeviceManager.Reconnect.
const (
	MaxReconnectTries = 3
	ReconnectDelay    = 500 * time.Millisecond
)

// DeviceManager owns the connection to a single NFC reader and reopens it
// when the reader stops responding.
type DeviceManager struct {
	manager    Manager
	device     Device
	devicePath string

	mu sync.RWMutex
}

// NewDeviceManager creates a DeviceManager. An empty devicePath selects the
// first reader reported by the Manager.
func NewDeviceManager(manager Manager, devicePath string) *DeviceManager {
	return &DeviceManager{
		manager:    manager,
		devicePath: devicePath,
	}
}

// Device returns the connected device, or nil.
func (dm *DeviceManager) Device() Device {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.device
}

// HasDevice reports whether a device is connected.
func (dm *DeviceManager) HasDevice() bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.device != nil
}

// DevicePath returns the path of the managed device.
func (dm *DeviceManager) DevicePath() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.devicePath
}

// TryConnect makes sure a responsive device is connected. A connected device
// that fails InitiatorInit is closed and reopened.
func (dm *DeviceManager) TryConnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.device != nil {
		err := dm.device.InitiatorInit()
		if err == nil {
			return nil
		}
		log.Printf("DeviceManager: device stopped responding (%v), reopening", err)
		dm.device.Close()
		dm.device = nil
	}

	path := dm.devicePath
	if path == "" {
		devices, err := dm.manager.ListDevices()
		if err != nil {
			return NewNoDeviceError("TryConnect", err)
		}
		if len(devices) == 0 {
			return NewNoDeviceError("TryConnect", fmt.Errorf("no NFC devices found"))
		}
		path = devices[0]
	}

	dev, err := dm.manager.OpenDevice(path)
	if err != nil {
		return NewNoDeviceError("TryConnect", fmt.Errorf("open %s: %w", path, err))
	}
	if err := dev.InitiatorInit(); err != nil {
		dev.Close()
		return NewNoDeviceError("TryConnect", fmt.Errorf("init %s: %w", path, err))
	}

	dm.device = dev
	dm.devicePath = path
	log.Printf("DeviceManager: connected to %s", dev.String())
	return nil
}

// Reconnect closes the device and retries TryConnect with a linear backoff
// until it succeeds, the attempts run out, or stop is closed.
func (dm *DeviceManager) Reconnect(stop <-chan struct{}) error {
	dm.Close()

	var lastErr error
	for attempt := 1; attempt <= MaxReconnectTries; attempt++ {
		if lastErr = dm.TryConnect(); lastErr == nil {
			return nil
		}
		log.Printf("DeviceManager: reconnect attempt %d failed: %v", attempt, lastErr)

		select {
		case <-stop:
			return ErrCancelled
		case <-time.After(ReconnectDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("reconnect failed after %d attempts: %w", MaxReconnectTries, lastErr)
}

// Close closes the current device, if any.
func (dm *DeviceManager) Close() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.device == nil {
		return
	}
	if err := dm.device.Close(); err != nil {
		log.Printf("DeviceManager: error closing device: %v", err)
	}
	dm.device = nil
}
