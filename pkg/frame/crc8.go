package frame

// CRC-8/CDMA2000 parameters.
const (
	CRC8Init byte = 0xff
	CRC8Poly byte = 0x9b

	// CRC8Check is the CRC of "123456789".
	CRC8Check byte = 0xda
)

var crc8Table = makeCRC8Table(CRC8Poly)

func makeCRC8Table(poly byte) (t [256]byte) {
	for n := range t {
		crc := byte(n)
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[n] = crc
	}
	return
}

// CRC8 calculates CRC-8/CDMA2000 over data.
func CRC8(data []byte) byte {
	return UpdateCRC8(CRC8Init, data)
}

// UpdateCRC8 continues a CRC over more data.
func UpdateCRC8(crc byte, data []byte) byte {
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}

// ValidateCRC8 checks the CRC implementation against the standard check
// value.
func ValidateCRC8() bool {
	return CRC8([]byte("123456789")) == CRC8Check
}

// XORFold16 folds data into a 16-bit checksum by XOR-ing big-endian
// byte pairs. An odd trailing byte is taken as the high byte.
func XORFold16(data []byte) (sum uint16) {
	for i := 0; i < len(data); i += 2 {
		w := uint16(data[i]) << 8
		if i+1 < len(data) {
			w |= uint16(data[i+1])
		}
		sum ^= w
	}
	return
}
