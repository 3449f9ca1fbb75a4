package nfc

import (
	"fmt"
	"sync"
)

// MockTag is an in-memory Tag. Data holds the raw NDEF message bytes.
//
// Example:
//
//	tag := NewMockTag("04A1B2C3")
//	tag.Data, _ = NewNDEFMessage().AddText("hi", "en").Encode()
type MockTag struct {
	// TagUID is returned by UID.
	TagUID string

	// TagType is returned by Type.
	TagType string

	// Data is the stored NDEF message, nil when the tag is blank.
	Data []byte

	// Capacity is returned by MaxSize. WriteData rejects larger messages.
	Capacity int

	// ReadOnly makes IsWritable report false and WriteData fail.
	ReadOnly bool

	// ReadDataError, if set, is returned by ReadData.
	ReadDataError error

	// WriteDataError, if set, is returned by WriteData.
	WriteDataError error

	// CallLog records method calls for verification in tests.
	CallLog []string

	mu sync.Mutex
}

// NewMockTag creates a blank, writable MockTag with room for 137 bytes,
// the user area of an NTAG213.
func NewMockTag(uid string) *MockTag {
	return &MockTag{
		TagUID:   uid,
		TagType:  TagTypeMock,
		Capacity: 137,
	}
}

func (m *MockTag) UID() string {
	return m.TagUID
}

func (m *MockTag) Type() string {
	return m.TagType
}

func (m *MockTag) MaxSize() int {
	return m.Capacity
}

func (m *MockTag) ReadData() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "ReadData")
	if m.ReadDataError != nil {
		return nil, m.ReadDataError
	}
	if m.Data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.Data...), nil
}

func (m *MockTag) WriteData(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("WriteData(%d bytes)", len(data)))
	if m.WriteDataError != nil {
		return m.WriteDataError
	}
	if m.ReadOnly {
		return NewWriteError("MockTag.WriteData", m.TagUID, fmt.Errorf("tag is read-only"))
	}
	if m.Capacity > 0 && len(data) > m.Capacity {
		return Errorf(ErrCodeCapacityExceeded, "MockTag.WriteData", "NDEF message too large (%d bytes, %d available)", len(data), m.Capacity)
	}
	m.Data = append([]byte(nil), data...)
	return nil
}

func (m *MockTag) IsWritable() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "IsWritable")
	return !m.ReadOnly, nil
}

// GetCallLog returns a copy of the call log.
func (m *MockTag) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}
