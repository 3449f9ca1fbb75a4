package nfc

import (
	"fmt"
	"log"
)

// NDEFMessage is an ordered list of NDEF records.
type NDEFMessage struct {
	records []NDEFRecord
}

// NewNDEFMessage creates a message from records.
func NewNDEFMessage(records ...NDEFRecord) *NDEFMessage {
	return &NDEFMessage{records: records}
}

// AddText adds an NDEF Text Record to the message.
func (m *NDEFMessage) AddText(text, langCode string) *NDEFMessage {
	m.records = append(m.records, TextRecord(text, langCode))
	return m
}

// AddURI adds an NDEF URI Record to the message.
func (m *NDEFMessage) AddURI(uri string) *NDEFMessage {
	m.records = append(m.records, URIRecord(uri))
	return m
}

// Records returns the list of NDEF records in this message.
func (m *NDEFMessage) Records() []NDEFRecord {
	return m.records
}

// Encode converts the NDEF message to bytes.
func (m *NDEFMessage) Encode() ([]byte, error) {
	if len(m.records) == 0 {
		return nil, Errorf(ErrCodeEncodeFailed, "NDEFMessage.Encode", "cannot encode empty NDEF message")
	}
	return EncodeRecords(m.records)
}

// GetText returns the text content from the first Text Record in the message.
func (m *NDEFMessage) GetText() (string, error) {
	for _, r := range m.records {
		if text, ok := r.GetText(); ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("no text record found in NDEF message")
}

// DecodeNDEF parses raw bytes into an NDEFMessage.
// Returns error if the data is not valid NDEF format.
func DecodeNDEF(data []byte) (*NDEFMessage, error) {
	records, err := ParseRecords(data)
	if err != nil {
		return nil, err
	}
	return &NDEFMessage{records: records}, nil
}

// Codec is the text-record codec used by the NFC screen. It mirrors the
// handset SDK contract: EncodeMessage reports failure by returning nil rather
// than an error, so callers must check the result before writing it.
type Codec struct {
	// Language is the language code stamped on text records; defaults to "en".
	Language string
}

// TextRecord builds a text record in the codec's language.
func (c Codec) TextRecord(text string) NDEFRecord {
	return TextRecord(text, c.Language)
}

// EncodeMessage encodes records into NDEF message bytes, or returns nil when
// the records cannot be encoded.
func (c Codec) EncodeMessage(records ...NDEFRecord) []byte {
	data, err := EncodeRecords(records)
	if err != nil {
		log.Printf("Codec.EncodeMessage: %v", err)
		return nil
	}
	return data
}

// DecodeTextPayload decodes the payload of a text record.
func (c Codec) DecodeTextPayload(payload []byte) (string, error) {
	return DecodeTextPayload(payload)
}
