package indexing

import (
	"hash/crc32"
	"strconv"
)

// crc16 computes CRC-16/MCRF4XX (reflected poly 0x8408, init 0xffff, no final xor)
func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func hashString(s string, size int) string {
	if size == 16 {
		return strconv.FormatUint(uint64(crc16([]byte(s))), 36)
	}
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(s))), 36)
}
