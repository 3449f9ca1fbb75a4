package nfc

// Device represents an NFC reader/writer hardware device.
//
// A Device is obtained from a Manager and provides low-level access
// to NFC communication capabilities.
//
// Example:
//
//	manager := nfc.NewManager()
//	device, err := manager.OpenDevice("")
//	defer device.Close()
type Device interface {
	Close() error
	InitiatorInit() error
	String() string
	Connection() string
	GetTags() ([]Tag, error)
}

// Manager handles NFC device discovery.
//
// Manager provides methods to list available NFC readers and open connections
// to devices.
//
// Example:
//
//	manager := nfc.NewManager()
//	devices, _ := manager.ListDevices()
//	device, _ := manager.OpenDevice(devices[0])
//	tags, _ := device.GetTags()
type Manager interface {
	OpenDevice(deviceStr string) (Device, error)
	ListDevices() ([]string, error)
}

// Tag represents an NFC tag that stores an NDEF message.
//
// ReadData returns the raw NDEF message bytes (TLV framing already removed),
// or nil when the tag holds no NDEF message. WriteData replaces the NDEF
// message with data.
type Tag interface {
	UID() string
	Type() string
	ReadData() ([]byte, error)
	WriteData(data []byte) error
	IsWritable() (bool, error)
	MaxSize() int
}
