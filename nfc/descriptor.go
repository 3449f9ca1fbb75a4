package nfc

import (
	"encoding/json"
	"fmt"
	"log"
)

// ByteArray marshals as a JSON array of numbers rather than base64, which is
// how handset NFC stacks expose record bytes.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("byte value %d out of range at index %d", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// RecordDescriptor is the JSON view of one NDEF record.
type RecordDescriptor struct {
	TNF     byte      `json:"tnf"`
	Type    ByteArray `json:"type"`
	ID      ByteArray `json:"id"`
	Payload ByteArray `json:"payload"`
}

// TagDescriptor describes an acquired tag and the NDEF message it holds.
type TagDescriptor struct {
	ID          string             `json:"id"`
	TechTypes   []string           `json:"techTypes"`
	Type        string             `json:"type"`
	MaxSize     int                `json:"maxSize"`
	IsWritable  bool               `json:"isWritable"`
	NdefMessage []RecordDescriptor `json:"ndefMessage"`
}

// describeTag builds a TagDescriptor from a tag and the NDEF bytes read from
// it. Bytes that do not parse as NDEF produce an empty record list.
func describeTag(tag Tag, ndef []byte, writable bool) *TagDescriptor {
	desc := &TagDescriptor{
		ID:          tag.UID(),
		TechTypes:   techTypesFor(tag),
		Type:        tag.Type(),
		MaxSize:     tag.MaxSize(),
		IsWritable:  writable,
		NdefMessage: []RecordDescriptor{},
	}
	if len(ndef) == 0 {
		return desc
	}

	records, err := ParseRecords(ndef)
	if err != nil {
		log.Printf("describeTag: %s holds unparseable NDEF data: %v", tag.UID(), err)
		return desc
	}
	for _, r := range records {
		desc.NdefMessage = append(desc.NdefMessage, RecordDescriptor{
			TNF:     r.TNF,
			Type:    ByteArray(r.Type),
			ID:      ByteArray(r.ID),
			Payload: ByteArray(r.Payload),
		})
	}
	return desc
}

func techTypesFor(tag Tag) []string {
	switch tag.Type() {
	case TagTypeUltralight, TagTypeUltralightC:
		return []string{"NfcA", "MifareUltralight", string(TechNdef)}
	default:
		return []string{string(TechNdef)}
	}
}
