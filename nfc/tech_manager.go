package nfc

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/clausecker/nfc/v2"
)

// TechManager hands out exclusive technology sessions on one reader.
//
// A session starts with RequestTechnology, which blocks until a tag enters
// the field, and ends with CancelTechnologyRequest. GetTag and
// WriteNdefMessage operate on the tag acquired by the current session.
type TechManager struct {
	devices *DeviceManager
	logger  *log.Logger

	// PollInterval is how often the field is polled while a request waits.
	PollInterval time.Duration

	startOnce sync.Once

	mu      sync.Mutex
	active  bool
	abort   chan struct{}
	current Tag
}

// DeviceStatus reports the reader connection for health output.
type DeviceStatus struct {
	Connected bool   `json:"connected"`
	Device    string `json:"device,omitempty"`
}

// NewTechManager creates a TechManager over manager. An empty devicePath
// selects the first reader found.
func NewTechManager(manager Manager, devicePath string) *TechManager {
	return &TechManager{
		devices:      NewDeviceManager(manager, devicePath),
		logger:       log.New(os.Stderr, "[nfc] ", log.LstdFlags),
		PollInterval: PollInterval,
	}
}

// Start initialises the manager. Only the first call has any effect.
func (tm *TechManager) Start() {
	tm.startOnce.Do(func() {
		tm.logger.Printf("libnfc %s", nfc.Version())
		if err := tm.devices.TryConnect(); err != nil {
			tm.logger.Printf("No reader yet, will connect on first request: %v", err)
		}
	})
}

// Status returns the current reader connection.
func (tm *TechManager) Status() DeviceStatus {
	dev := tm.devices.Device()
	if dev == nil {
		return DeviceStatus{}
	}
	return DeviceStatus{Connected: true, Device: dev.Connection()}
}

// RequestTechnology waits for a tag supporting tech. Only one request may be
// outstanding; a second one fails with ErrCodeBusy until the first is
// released with CancelTechnologyRequest.
func (tm *TechManager) RequestTechnology(ctx context.Context, tech Tech) error {
	const op = "RequestTechnology"
	if tech != TechNdef {
		return NewNotSupportedError(op)
	}
	if err := ctx.Err(); err != nil {
		return WrapError(ErrCodeCancelled, op, "technology request cancelled", err)
	}

	tm.mu.Lock()
	if tm.active {
		tm.mu.Unlock()
		return &NFCError{Code: ErrCodeBusy, Op: op, Message: "a technology request is already active"}
	}
	tm.active = true
	abort := make(chan struct{})
	tm.abort = abort
	tm.current = nil
	tm.mu.Unlock()

	tag, err := tm.waitForTag(ctx, abort)

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.abort != abort {
		// Cancelled and possibly superseded while waiting.
		return &NFCError{Code: ErrCodeCancelled, Op: op, Message: "technology request cancelled"}
	}
	tm.abort = nil
	if err != nil {
		tm.active = false
		return err
	}
	tm.current = tag
	tm.logger.Printf("Acquired %s tag %s", tag.Type(), tag.UID())
	return nil
}

func (tm *TechManager) waitForTag(ctx context.Context, abort <-chan struct{}) (Tag, error) {
	const op = "RequestTechnology"
	if err := tm.devices.TryConnect(); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(tm.PollInterval)
	defer ticker.Stop()

	for {
		if dev := tm.devices.Device(); dev != nil {
			tags, err := dev.GetTags()
			switch {
			case err != nil:
				tm.logger.Printf("Polling failed: %v", err)
				if !IsTagRemovedError(err) {
					if rerr := tm.devices.Reconnect(abort); rerr != nil {
						return nil, NewNoDeviceError(op, rerr)
					}
				}
			case len(tags) > 0:
				return tags[0], nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, WrapError(ErrCodeCancelled, op, "technology request cancelled", ctx.Err())
		case <-abort:
			return nil, &NFCError{Code: ErrCodeCancelled, Op: op, Message: "technology request cancelled"}
		case <-ticker.C:
		}
	}
}

// GetTag reads the acquired tag and describes it.
func (tm *TechManager) GetTag() (*TagDescriptor, error) {
	tag, err := tm.acquired("GetTag")
	if err != nil {
		return nil, err
	}

	data, err := tag.ReadData()
	if err != nil {
		if GetErrorCode(err) == 0 {
			err = NewReadError("GetTag", tag.UID(), err)
		}
		return nil, err
	}

	writable, err := tag.IsWritable()
	if err != nil {
		tm.logger.Printf("Could not read lock state of %s: %v", tag.UID(), err)
	}
	return describeTag(tag, data, writable), nil
}

// WriteNdefMessage replaces the NDEF message on the acquired tag.
func (tm *TechManager) WriteNdefMessage(message []byte) error {
	if len(message) == 0 {
		return Errorf(ErrCodeInvalidData, "WriteNdefMessage", "empty NDEF message")
	}
	tag, err := tm.acquired("WriteNdefMessage")
	if err != nil {
		return err
	}

	if err := tag.WriteData(message); err != nil {
		if GetErrorCode(err) == 0 {
			err = NewWriteError("WriteNdefMessage", tag.UID(), err)
		}
		return err
	}
	tm.logger.Printf("Wrote %d byte NDEF message to %s", len(message), tag.UID())
	return nil
}

// CancelTechnologyRequest aborts a pending request and releases the session.
// It is a no-op when nothing is held.
func (tm *TechManager) CancelTechnologyRequest() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.abort != nil {
		close(tm.abort)
		tm.abort = nil
	}
	tm.current = nil
	tm.active = false
	return nil
}

// Close releases any session and closes the reader.
func (tm *TechManager) Close() {
	tm.CancelTechnologyRequest()
	tm.devices.Close()
}

func (tm *TechManager) acquired(op string) (Tag, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return nil, &NFCError{Code: ErrCodeNotAcquired, Op: op, Message: "no tag acquired"}
	}
	return tm.current, nil
}
