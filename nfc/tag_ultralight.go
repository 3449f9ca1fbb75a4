package nfc

import (
	"fmt"
	"log"

	"github.com/clausecker/freefare"
)

// ultralightTag implements Tag for MIFARE Ultralight / Ultralight C (NFC
// Forum Type 2) tags. The NDEF message lives in a TLV area starting at page 4.
type ultralightTag struct {
	tag freefare.UltralightTag
}

var _ Tag = (*ultralightTag)(nil)

func newUltralightTag(tag freefare.UltralightTag) *ultralightTag {
	return &ultralightTag{tag: tag}
}

func (u *ultralightTag) UID() string {
	return u.tag.UID()
}

func (u *ultralightTag) Type() string {
	switch u.tag.Type() {
	case freefare.Ultralight:
		return TagTypeUltralight
	case freefare.UltralightC:
		return TagTypeUltralightC
	default:
		return fmt.Sprintf("%s (type %d)", TagTypeUltralight, u.tag.Type())
	}
}

func (u *ultralightTag) pageCount() int {
	if u.tag.Type() == freefare.UltralightC {
		return type2UltralightCPages
	}
	return type2UltralightPages
}

// MaxSize is the size of the user data area in bytes.
func (u *ultralightTag) MaxSize() int {
	return (u.pageCount() - type2FirstDataPage) * type2PageSize
}

// ReadData reads the data area and extracts the NDEF Message TLV.
func (u *ultralightTag) ReadData() ([]byte, error) {
	if err := u.tag.Connect(); err != nil {
		return nil, NewReadError("ultralightTag.ReadData", u.UID(), err)
	}
	defer u.tag.Disconnect()

	var area []byte
	for page := type2FirstDataPage; page < u.pageCount(); page++ {
		data, err := u.tag.ReadPage(byte(page))
		if err != nil {
			if page == type2FirstDataPage {
				return nil, NewReadError("ultralightTag.ReadData", u.UID(), err)
			}
			log.Printf("ultralightTag.ReadData: stopping at page %d: %v", page, err)
			break
		}
		area = append(area, data[:]...)
	}

	value, found, err := FindNDEFTLV(area)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

// WriteData frames data in an NDEF TLV and writes it page by page.
func (u *ultralightTag) WriteData(data []byte) error {
	tlv := TLVEncode(data, TLVNDEF)
	if len(tlv) > u.MaxSize() {
		return &NFCError{
			Code:    ErrCodeCapacityExceeded,
			Op:      "ultralightTag.WriteData",
			TagUID:  u.UID(),
			Message: fmt.Sprintf("NDEF message too large (%d bytes, %d available)", len(tlv), u.MaxSize()),
		}
	}

	if err := u.tag.Connect(); err != nil {
		return NewWriteError("ultralightTag.WriteData", u.UID(), err)
	}
	defer u.tag.Disconnect()

	page := type2FirstDataPage
	for offset := 0; offset < len(tlv); offset += type2PageSize {
		var pageData [type2PageSize]byte
		copy(pageData[:], tlv[offset:])
		if err := u.tag.WritePage(byte(page), pageData); err != nil {
			return NewWriteError(fmt.Sprintf("ultralightTag.WriteData page %d", page), u.UID(), err)
		}
		page++
	}

	log.Printf("ultralightTag.WriteData: wrote %d bytes to %s", len(data), u.UID())
	return nil
}

// IsWritable reports false when the static lock bytes on page 2 are set.
func (u *ultralightTag) IsWritable() (bool, error) {
	if err := u.tag.Connect(); err != nil {
		return false, NewReadError("ultralightTag.IsWritable", u.UID(), err)
	}
	defer u.tag.Disconnect()

	lockPage, err := u.tag.ReadPage(2)
	if err != nil {
		return false, NewReadError("ultralightTag.IsWritable", u.UID(), err)
	}
	return !(lockPage[2] == 0xFF && lockPage[3] == 0xFF), nil
}
