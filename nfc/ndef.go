package nfc

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// NDEFRecord represents a single NDEF record within a message.
type NDEFRecord struct {
	TNF     byte   // Type Name Format (0x00-0x07)
	Type    []byte // Record type (e.g., "T" for text, "U" for URI)
	ID      []byte // Optional record ID
	Payload []byte // Record payload data
}

// TextRecord builds an NFC Forum Text record (TNF=0x01, Type='T') with a
// UTF-8 payload.
func TextRecord(text, langCode string) NDEFRecord {
	return NDEFRecord{
		TNF:     TNFWellKnown,
		Type:    []byte("T"),
		Payload: MakeTextRecordPayload(text, langCode),
	}
}

// URIRecord builds an NFC Forum URI record without prefix abbreviation.
func URIRecord(uri string) NDEFRecord {
	payload := make([]byte, 1+len(uri))
	copy(payload[1:], uri)
	return NDEFRecord{
		TNF:     TNFWellKnown,
		Type:    []byte("U"),
		Payload: payload,
	}
}

// IsTextRecord returns true if this is a Text Record.
func (r NDEFRecord) IsTextRecord() bool {
	return r.TNF == TNFWellKnown && len(r.Type) == 1 && r.Type[0] == 'T'
}

// IsURIRecord returns true if this is a URI Record.
func (r NDEFRecord) IsURIRecord() bool {
	return r.TNF == TNFWellKnown && len(r.Type) == 1 && r.Type[0] == 'U'
}

// GetText extracts text from a Text Record.
// Returns (text, true) if this is a valid text record, or ("", false) otherwise.
func (r NDEFRecord) GetText() (string, bool) {
	if !r.IsTextRecord() {
		return "", false
	}
	text, err := DecodeTextPayload(r.Payload)
	if err != nil {
		return "", false
	}
	return text, true
}

// GetURI extracts the URI from a URI Record.
func (r NDEFRecord) GetURI() (string, bool) {
	if !r.IsURIRecord() || len(r.Payload) < 1 {
		return "", false
	}
	return uriPrefix(r.Payload[0]) + string(r.Payload[1:]), true
}

func uriPrefix(code byte) string {
	switch code {
	case 0x01:
		return "http://www."
	case 0x02:
		return "https://www."
	case 0x03:
		return "http://"
	case 0x04:
		return "https://"
	default:
		return ""
	}
}

// MakeTextRecordPayload creates an NDEF Text Record payload with the specified text and language code.
func MakeTextRecordPayload(text string, langCode string) []byte {
	if langCode == "" {
		langCode = DefaultLanguage
	}
	lang := []byte(langCode)
	if len(lang) > 0x3F {
		lang = lang[:0x3F]
	}
	payload := make([]byte, 1+len(lang)+len(text))
	payload[0] = byte(len(lang)) // status byte, bit 7 clear = UTF-8
	copy(payload[1:], lang)
	copy(payload[1+len(lang):], text)
	return payload
}

// DecodeTextPayload extracts the text from an NDEF Text Record payload.
// It fails when the status byte or language code is truncated, or when the
// text is not valid in its declared encoding.
func DecodeTextPayload(payload []byte) (string, error) {
	if len(payload) < 1 {
		return "", Errorf(ErrCodeInvalidData, "DecodeTextPayload", "text record payload too short (status byte missing)")
	}
	status := payload[0]
	langLength := int(status & 0x3F)
	isUTF16 := status&0x80 != 0

	textStart := 1 + langLength
	if textStart > len(payload) {
		return "", Errorf(ErrCodeInvalidData, "DecodeTextPayload", "text record payload too short (language code truncated)")
	}
	textBytes := payload[textStart:]

	if isUTF16 {
		return decodeUTF16(textBytes)
	}
	if !utf8.Valid(textBytes) {
		return "", Errorf(ErrCodeInvalidData, "DecodeTextPayload", "text record is not valid UTF-8")
	}
	return string(textBytes), nil
}

// decodeUTF16 honours a byte order mark and defaults to big endian.
func decodeUTF16(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if len(b)%2 != 0 {
		return "", Errorf(ErrCodeInvalidData, "DecodeTextPayload", "invalid UTF-16 text length: %d", len(b))
	}
	var order binary.ByteOrder = binary.BigEndian
	switch {
	case b[0] == 0xFE && b[1] == 0xFF:
		b = b[2:]
	case b[0] == 0xFF && b[1] == 0xFE:
		order = binary.LittleEndian
		b = b[2:]
	}
	u16s := make([]uint16, len(b)/2)
	for i := range u16s {
		u16s[i] = order.Uint16(b[i*2:])
	}
	return strings.TrimRight(string(utf16.Decode(u16s)), "\x00"), nil
}

// ParseRecords parses raw NDEF message bytes into records.
func ParseRecords(ndefMessage []byte) ([]NDEFRecord, error) {
	if len(ndefMessage) == 0 {
		return nil, Errorf(ErrCodeInvalidData, "ParseRecords", "empty NDEF message")
	}

	var records []NDEFRecord
	offset := 0

	for offset < len(ndefMessage) {
		header := ndefMessage[offset]
		me := header&0x40 != 0 // Message End
		sr := header&0x10 != 0 // Short Record
		il := header&0x08 != 0 // ID Length present
		tnf := header & 0x07

		pos := offset + 1
		if pos+1 > len(ndefMessage) {
			return nil, truncated("type length", pos)
		}
		typeLength := int(ndefMessage[pos])
		pos++

		var payloadLength int
		if sr {
			if pos+1 > len(ndefMessage) {
				return nil, truncated("short payload length", pos)
			}
			payloadLength = int(ndefMessage[pos])
			pos++
		} else {
			if pos+4 > len(ndefMessage) {
				return nil, truncated("payload length", pos)
			}
			payloadLength = int(binary.BigEndian.Uint32(ndefMessage[pos : pos+4]))
			pos += 4
		}

		var idLength int
		if il {
			if pos+1 > len(ndefMessage) {
				return nil, truncated("ID length", pos)
			}
			idLength = int(ndefMessage[pos])
			pos++
		}

		if pos+typeLength > len(ndefMessage) {
			return nil, truncated("type", pos)
		}
		recordType := append([]byte(nil), ndefMessage[pos:pos+typeLength]...)
		pos += typeLength

		var recordID []byte
		if idLength > 0 {
			if pos+idLength > len(ndefMessage) {
				return nil, truncated("ID", pos)
			}
			recordID = append([]byte(nil), ndefMessage[pos:pos+idLength]...)
			pos += idLength
		}

		if payloadLength < 0 || pos+payloadLength > len(ndefMessage) {
			return nil, truncated("payload", pos)
		}
		payload := append([]byte{}, ndefMessage[pos:pos+payloadLength]...)
		pos += payloadLength

		records = append(records, NDEFRecord{
			TNF:     tnf,
			Type:    recordType,
			ID:      recordID,
			Payload: payload,
		})

		offset = pos
		if me {
			break
		}
	}

	return records, nil
}

func truncated(field string, offset int) error {
	return Errorf(ErrCodeInvalidData, "ParseRecords", "invalid NDEF message: truncated %s at offset %d", field, offset)
}

// EncodeRecords encodes records into raw NDEF message bytes, setting the
// MB flag on the first record and ME on the last.
func EncodeRecords(records []NDEFRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, Errorf(ErrCodeEncodeFailed, "EncodeRecords", "cannot encode empty record list")
	}

	var result []byte
	for i, record := range records {
		if len(record.Type) > 0xFF {
			return nil, Errorf(ErrCodeEncodeFailed, "EncodeRecords", "record %d type too long (%d bytes)", i, len(record.Type))
		}
		if len(record.ID) > 0xFF {
			return nil, Errorf(ErrCodeEncodeFailed, "EncodeRecords", "record %d ID too long (%d bytes)", i, len(record.ID))
		}

		payloadLen := len(record.Payload)
		short := payloadLen <= 0xFF
		hasID := len(record.ID) > 0

		header := record.TNF & 0x07
		if i == 0 {
			header |= 0x80 // MB
		}
		if i == len(records)-1 {
			header |= 0x40 // ME
		}
		if short {
			header |= 0x10 // SR
		}
		if hasID {
			header |= 0x08 // IL
		}

		result = append(result, header, byte(len(record.Type)))
		if short {
			result = append(result, byte(payloadLen))
		} else {
			result = binary.BigEndian.AppendUint32(result, uint32(payloadLen))
		}
		if hasID {
			result = append(result, byte(len(record.ID)))
		}
		result = append(result, record.Type...)
		result = append(result, record.ID...)
		result = append(result, record.Payload...)
	}

	return result, nil
}

// String renders a short description of the record for logs.
func (r NDEFRecord) String() string {
	return fmt.Sprintf("NDEFRecord{tnf=%d type=%q id=%q payload=%d bytes}", r.TNF, r.Type, r.ID, len(r.Payload))
}
