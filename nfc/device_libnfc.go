package nfc

import (
	"log"

	"github.com/clausecker/freefare"
	"github.com/clausecker/nfc/v2"
)

// libnfcDevice implements Device on top of a libnfc reader.
type libnfcDevice struct {
	device nfc.Device
}

// NewDevice wraps an opened libnfc device.
func NewDevice(dev nfc.Device) Device {
	return &libnfcDevice{device: dev}
}

func (d *libnfcDevice) Close() error {
	return d.device.Close()
}

func (d *libnfcDevice) InitiatorInit() error {
	return d.device.InitiatorInit()
}

func (d *libnfcDevice) String() string {
	return d.device.String()
}

func (d *libnfcDevice) Connection() string {
	return d.device.Connection()
}

// GetTags polls the reader through freefare and keeps the Type 2 tags.
// Other freefare tag families are logged and skipped.
func (d *libnfcDevice) GetTags() ([]Tag, error) {
	ffTags, err := freefare.GetTags(d.device)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tags []Tag
	for _, ffTag := range ffTags {
		uid := ffTag.UID()
		if seen[uid] {
			continue
		}
		seen[uid] = true

		switch t := ffTag.(type) {
		case freefare.UltralightTag:
			tags = append(tags, newUltralightTag(t))
		default:
			log.Printf("libnfcDevice.GetTags: skipping unsupported tag %s (%T)", uid, t)
		}
	}
	return tags, nil
}
