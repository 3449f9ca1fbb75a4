package nfc

// TLV block types used on NFC Forum Type 2 tags
const (
	TLVNull        = 0x00 // Null TLV
	TLVLockCtrl    = 0x01 // Lock Control TLV
	TLVMemCtrl     = 0x02 // Memory Control TLV
	TLVNDEF        = 0x03 // NDEF Message TLV
	TLVProprietary = 0xFD // Proprietary TLV
	TLVTerminator  = 0xFE // Terminator TLV
)

// TLVEncode encodes data into TLV format
// For NDEF, use type = 0x03 (TLVNDEF)
// Returns: [Type][Length][Value][Terminator (0xFE)]
func TLVEncode(data []byte, tlvType byte) []byte {
	length := len(data)
	result := make([]byte, 0, length+5)
	result = append(result, tlvType)

	if length < 0xFF {
		result = append(result, byte(length))
	} else {
		// Long format: 0xFF followed by 2-byte big-endian length
		result = append(result, 0xFF, byte(length>>8), byte(length&0xFF))
	}

	result = append(result, data...)
	return append(result, TLVTerminator)
}

// FindNDEFTLV walks a Type 2 data area and returns the value of the first
// NDEF Message TLV. Null TLVs are skipped, other TLVs are stepped over, and a
// Terminator ends the walk. found is false when no NDEF TLV exists.
func FindNDEFTLV(data []byte) (value []byte, found bool, err error) {
	offset := 0
	for offset < len(data) {
		tlvType := data[offset]
		switch tlvType {
		case TLVNull:
			offset++
			continue
		case TLVTerminator:
			return nil, false, nil
		}

		lengthStart := offset + 1
		if lengthStart >= len(data) {
			return nil, false, Errorf(ErrCodeInvalidData, "FindNDEFTLV", "TLV 0x%02X at offset %d: length field missing", tlvType, offset)
		}

		var length, lengthSize int
		if data[lengthStart] == 0xFF {
			if lengthStart+2 >= len(data) {
				return nil, false, Errorf(ErrCodeInvalidData, "FindNDEFTLV", "TLV 0x%02X at offset %d: long length truncated", tlvType, offset)
			}
			length = int(data[lengthStart+1])<<8 | int(data[lengthStart+2])
			lengthSize = 3
		} else {
			length = int(data[lengthStart])
			lengthSize = 1
		}

		valueStart := lengthStart + lengthSize
		if valueStart+length > len(data) {
			return nil, false, Errorf(ErrCodeInvalidData, "FindNDEFTLV", "TLV 0x%02X at offset %d: value (len %d) exceeds buffer", tlvType, offset, length)
		}

		if tlvType == TLVNDEF {
			return data[valueStart : valueStart+length], true, nil
		}
		offset = valueStart + length
	}
	return nil, false, nil
}
