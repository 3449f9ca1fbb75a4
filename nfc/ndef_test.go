package nfc

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTextRecordEncodeDecode(t *testing.T) {
	tests := []struct {
		text     string
		langCode string
	}{
		{"Hello NFC!", "en"},
		{"Bonjour", "fr"},
		{"こんにちは", "ja"},
		{"", ""},
		{"Test", ""},
	}

	for _, tt := range tests {
		encoded, err := EncodeRecords([]NDEFRecord{TextRecord(tt.text, tt.langCode)})
		if err != nil {
			t.Fatalf("EncodeRecords(%q): %v", tt.text, err)
		}
		msg, err := DecodeNDEF(encoded)
		if err != nil {
			t.Fatalf("DecodeNDEF(%q): %v", tt.text, err)
		}
		got, err := msg.GetText()
		if err != nil {
			t.Fatalf("GetText(%q): %v", tt.text, err)
		}
		if got != tt.text {
			t.Errorf("text mismatch for langCode=%q: got %q, want %q", tt.langCode, got, tt.text)
		}
	}
}

func TestTextRecordDefaultLanguage(t *testing.T) {
	r := TextRecord("hi", "")
	if r.Payload[0] != 2 || string(r.Payload[1:3]) != DefaultLanguage {
		t.Errorf("payload = %v, want status 2 and language %q", r.Payload, DefaultLanguage)
	}
}

func TestEncodeRecordsShortAndLong(t *testing.T) {
	short, err := EncodeRecords([]NDEFRecord{TextRecord("Short", "en")})
	if err != nil {
		t.Fatal(err)
	}
	if short[0]&0x10 == 0 {
		t.Error("short record should have SR flag set")
	}
	if short[0]&0xC0 != 0xC0 {
		t.Errorf("single record should have MB and ME set, header 0x%02X", short[0])
	}

	longText := strings.Repeat("a", 300)
	long, err := EncodeRecords([]NDEFRecord{TextRecord(longText, "en")})
	if err != nil {
		t.Fatal(err)
	}
	if long[0]&0x10 != 0 {
		t.Error("long record should not have SR flag set")
	}
	msg, err := DecodeNDEF(long)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := msg.GetText(); got != longText {
		t.Errorf("long record length got %d, want %d", len(got), len(longText))
	}
}

func TestEncodeRecordsMultiple(t *testing.T) {
	records := []NDEFRecord{
		TextRecord("one", "en"),
		URIRecord("https://example.com"),
		{TNF: TNFMimeMedia, Type: []byte("application/json"), ID: []byte("x"), Payload: []byte(`{}`)},
	}
	encoded, err := EncodeRecords(records)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseRecords(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 3 {
		t.Fatalf("expected 3 records, got %d", len(parsed))
	}
	if encoded[0]&0x80 == 0 || encoded[0]&0x40 != 0 {
		t.Errorf("first header 0x%02X should have MB and not ME", encoded[0])
	}
	if uri, ok := parsed[1].GetURI(); !ok || uri != "https://example.com" {
		t.Errorf("GetURI = %q, %v", uri, ok)
	}
	if !bytes.Equal(parsed[2].ID, []byte("x")) {
		t.Errorf("ID = %q, want %q", parsed[2].ID, "x")
	}
	if parsed[2].IsTextRecord() {
		t.Error("mime record reported as text record")
	}
}

func TestEncodeRecordsEmpty(t *testing.T) {
	_, err := EncodeRecords(nil)
	if GetErrorCode(err) != ErrCodeEncodeFailed {
		t.Errorf("expected ErrCodeEncodeFailed, got %v", err)
	}
}

func TestParseRecordsTruncated(t *testing.T) {
	valid, _ := EncodeRecords([]NDEFRecord{TextRecord("Hello", "en")})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"header only", valid[:1]},
		{"missing payload length", valid[:2]},
		{"payload cut short", valid[:len(valid)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if GetErrorCode(err) != ErrCodeInvalidData {
				t.Errorf("expected ErrCodeInvalidData, got %v", err)
			}
		})
	}
}

func TestDecodeTextPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
		wantErr bool
	}{
		{"utf8", append([]byte{0x02, 'e', 'n'}, "hello"...), "hello", false},
		{"no text", []byte{0x02, 'e', 'n'}, "", false},
		{"empty payload", []byte{}, "", true},
		{"language truncated", []byte{0x05, 'e', 'n'}, "", true},
		{"invalid utf8", []byte{0x02, 'e', 'n', 0xFF, 0xFE, 0xFD}, "", true},
		{"utf16 big endian", []byte{0x82, 'e', 'n', 0x00, 'h', 0x00, 'i'}, "hi", false},
		{"utf16 little endian bom", []byte{0x82, 'e', 'n', 0xFF, 0xFE, 'h', 0x00, 'i', 0x00}, "hi", false},
		{"utf16 odd length", []byte{0x82, 'e', 'n', 0x00, 'h', 0x00}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTextPayload(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeTextPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeTextPayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodecEncodeMessage(t *testing.T) {
	c := Codec{Language: "en"}

	data := c.EncodeMessage(c.TextRecord(`{"message":"hi"}`))
	if len(data) == 0 {
		t.Fatal("expected encoded bytes")
	}
	records, err := ParseRecords(data)
	if err != nil {
		t.Fatal(err)
	}
	text, err := c.DecodeTextPayload(records[0].Payload)
	if err != nil || text != `{"message":"hi"}` {
		t.Errorf("round trip = %q, %v", text, err)
	}

	if got := c.EncodeMessage(); got != nil {
		t.Errorf("EncodeMessage() with no records = %v, want nil", got)
	}

	tooLong := NDEFRecord{TNF: TNFExternal, Type: bytes.Repeat([]byte("t"), 300)}
	if got := c.EncodeMessage(tooLong); got != nil {
		t.Errorf("EncodeMessage() with oversized type = %v, want nil", got)
	}
}

func TestNDEFMessageGetTextWithoutText(t *testing.T) {
	msg := NewNDEFMessage().AddURI("https://example.com")
	if _, err := msg.GetText(); err == nil {
		t.Error("expected error for message without text record")
	}
	if _, err := NewNDEFMessage().Encode(); !errors.Is(err, &NFCError{Code: ErrCodeEncodeFailed}) {
		t.Errorf("Encode() on empty message = %v", err)
	}
}
