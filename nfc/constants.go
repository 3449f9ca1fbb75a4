package nfc

import "time"

// Tech identifies a tag technology that can be requested from the TechManager.
type Tech string

const (
	// TechNdef requests any tag that carries (or can carry) an NDEF message.
	TechNdef Tech = "Ndef"
)

// Tag type strings reported by Tag.Type and TagDescriptor.Type.
const (
	TagTypeUltralight  = "MIFARE Ultralight"
	TagTypeUltralightC = "MIFARE Ultralight C"
	TagTypeMock        = "Mock Tag"
)

// NDEF record constants
const (
	TNFEmpty       byte = 0x00
	TNFWellKnown   byte = 0x01
	TNFMimeMedia   byte = 0x02
	TNFAbsoluteURI byte = 0x03
	TNFExternal    byte = 0x04

	// DefaultLanguage is used for text records when no language code is given.
	DefaultLanguage = "en"
)

// Polling and connection timing
const (
	// PollInterval is how often RequestTechnology polls the reader for a tag.
	PollInterval = 150 * time.Millisecond

	// DeviceEnumRetries is how many times ListDevices is attempted before giving up.
	DeviceEnumRetries = 3

	// DeviceEnumRetryDelay is the pause between ListDevices attempts.
	DeviceEnumRetryDelay = 100 * time.Millisecond
)

// Type 2 (Ultralight / NTAG) memory layout
const (
	type2FirstDataPage    = 4
	type2UltralightPages  = 16
	type2UltralightCPages = 48
	type2PageSize         = 4
)
